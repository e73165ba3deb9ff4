package services

import (
	"context"
	"fmt"

	"hobbyhub/app/models"
	"hobbyhub/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// ListPostComments retrieves the comments of a post, oldest first. The post
// itself is not looked up; an unknown id yields an empty list.
func (s *CommentService) ListPostComments(ctx context.Context, postID int) ([]*models.Comment, error) {
	comments, err := s.commentRepo.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// CreateComment validates and stores a comment. The referenced post is not
// required to exist.
func (s *CommentService) CreateComment(ctx context.Context, in *models.InsertComment) (*models.Comment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.CreateComment(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// DeleteComment deletes a comment
func (s *CommentService) DeleteComment(ctx context.Context, id int) (bool, error) {
	return s.commentRepo.DeleteComment(ctx, id)
}
