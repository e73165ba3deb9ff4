package models

import (
	"time"
)

// Validate checks the payload against the insertable comment shape.
func (in *InsertComment) Validate() error {
	if err := validate.Struct(in); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// Build turns a validated payload into a new Comment.
func (in *InsertComment) Build(createdAt time.Time) *Comment {
	c := &Comment{CreatedAt: createdAt}
	if in.PostID != nil {
		c.PostID = *in.PostID
	}
	if in.Content != nil {
		c.Content = *in.Content
	}
	return c
}

// Clone returns a copy of c.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
