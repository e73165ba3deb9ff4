package models

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports field errors by their JSON names so messages match
// what the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// User is an account created through the signup path.
type User struct {
	ID       int    `gorm:"primaryKey;column:id" json:"id"`
	Username string `gorm:"column:username;not null;unique" json:"username"`
	Password string `gorm:"column:password;not null" json:"-"`
}

// Post is a forum topic. UserID is the opaque identifier the client
// generated for itself; it is not a reference to User.
type Post struct {
	ID        int       `gorm:"primaryKey;column:id" json:"id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Content   string    `gorm:"column:content" json:"content"`
	ImageURL  string    `gorm:"column:image_url" json:"imageUrl"`
	Upvotes   int       `gorm:"column:upvotes;not null;default:0" json:"upvotes"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	UserID    *string   `gorm:"column:user_id" json:"userId"`
}

// Comment is a reply attached to exactly one post.
type Comment struct {
	ID        int       `gorm:"primaryKey;column:id" json:"id"`
	PostID    int       `gorm:"column:post_id;not null" json:"postId"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// InsertUser is the signup payload.
type InsertUser struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// InsertPost is the client-settable subset of Post. Pointers distinguish a
// missing field from an empty one.
type InsertPost struct {
	Title    *string `json:"title" validate:"required"`
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
	UserID   *string `json:"userId"`
}

// UpdatePost is a partial InsertPost; only non-nil fields are applied.
type UpdatePost struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
}

// InsertComment is the client-settable subset of Comment.
type InsertComment struct {
	PostID  *int    `json:"postId" validate:"required"`
	Content *string `json:"content" validate:"required"`
}
