package repositories

import (
	"context"

	"hobbyhub/app/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.InsertUser) (*models.User, error)
}

// PostRepository defines the interface for post data access.
// Lookups, updates and upvotes return ErrNotFound for a missing post.
type PostRepository interface {
	GetPosts(ctx context.Context) ([]*models.Post, error)
	GetPostByID(ctx context.Context, id int) (*models.Post, error)
	SearchPosts(ctx context.Context, term string) ([]*models.Post, error)
	CreatePost(ctx context.Context, post *models.InsertPost) (*models.Post, error)
	UpdatePost(ctx context.Context, id int, update *models.UpdatePost) (*models.Post, error)
	DeletePost(ctx context.Context, id int) (bool, error)
	UpvotePost(ctx context.Context, id int) (*models.Post, error)
	GetPostsByUserID(ctx context.Context, userID string) ([]*models.Post, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	GetCommentsByPostID(ctx context.Context, postID int) ([]*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.InsertComment) (*models.Comment, error)
	DeleteComment(ctx context.Context, id int) (bool, error)
}

// Storage is the full persistence contract every backend implements.
type Storage interface {
	UserRepository
	PostRepository
	CommentRepository
	Close() error
}
