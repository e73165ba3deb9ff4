package models

import (
	"time"
)

// Validate checks the payload against the insertable post shape.
func (in *InsertPost) Validate() error {
	if err := validate.Struct(in); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// Build turns a validated payload into a new Post. Optional text fields
// default to the empty string and upvotes always start at zero.
func (in *InsertPost) Build(createdAt time.Time) *Post {
	post := &Post{
		CreatedAt: createdAt,
	}
	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	if in.UserID != nil && *in.UserID != "" {
		userID := *in.UserID
		post.UserID = &userID
	}
	return post
}

// Validate checks the partial payload. Every field is optional.
func (u *UpdatePost) Validate() error {
	if err := validate.Struct(u); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// Empty reports whether the update carries no fields at all.
func (u *UpdatePost) Empty() bool {
	return u.Title == nil && u.Content == nil && u.ImageURL == nil
}

// Apply merges the provided fields into p. Id, upvotes, createdAt and
// userId are left alone.
func (p *Post) Apply(u *UpdatePost) {
	if u == nil {
		return
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
}

// Clone returns a copy that shares no memory with p.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	if p.UserID != nil {
		userID := *p.UserID
		c.UserID = &userID
	}
	return &c
}

// OwnedBy reports whether the post was created under the given opaque id.
func (p *Post) OwnedBy(userID string) bool {
	return userID != "" && p.UserID != nil && *p.UserID == userID
}
