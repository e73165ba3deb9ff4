package services

import (
	"context"
	"fmt"
	"sort"

	"hobbyhub/app/models"
	"hobbyhub/app/repositories"
)

// SortByUpvotes is the sortBy value that orders a listing by votes.
// Any other value orders newest first.
const SortByUpvotes = "upvotes"

// PostService handles business logic for forum posts
type PostService struct {
	postRepo repositories.PostRepository
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// List returns all posts, or those whose title contains search, ordered by
// sortBy.
func (s *PostService) List(ctx context.Context, search, sortBy string) ([]*models.Post, error) {
	var (
		posts []*models.Post
		err   error
	)
	if search != "" {
		posts, err = s.postRepo.SearchPosts(ctx, search)
	} else {
		posts, err = s.postRepo.GetPosts(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	if sortBy == SortByUpvotes {
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].Upvotes > posts[j].Upvotes
		})
	} else {
		sortByNewest(posts)
	}
	return posts, nil
}

// GetPost retrieves a post by ID
func (s *PostService) GetPost(ctx context.Context, id int) (*models.Post, error) {
	return s.postRepo.GetPostByID(ctx, id)
}

// CreatePost validates the payload and stores a new post
func (s *PostService) CreatePost(ctx context.Context, in *models.InsertPost) (*models.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	post, err := s.postRepo.CreatePost(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// UpdatePost applies the provided fields to an existing post
func (s *PostService) UpdatePost(ctx context.Context, id int, update *models.UpdatePost) (*models.Post, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return s.postRepo.UpdatePost(ctx, id, update)
}

// DeletePost deletes a post and all its comments. It reports whether the
// post existed.
func (s *PostService) DeletePost(ctx context.Context, id int) (bool, error) {
	return s.postRepo.DeletePost(ctx, id)
}

// Upvote adds one vote to the post
func (s *PostService) Upvote(ctx context.Context, id int) (*models.Post, error) {
	return s.postRepo.UpvotePost(ctx, id)
}

// ListByUser returns the posts created under userID, newest first.
func (s *PostService) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	posts, err := s.postRepo.GetPostsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts of user %q: %w", userID, err)
	}
	sortByNewest(posts)
	return posts, nil
}

func sortByNewest(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
