package controllers

import (
	"net/http"

	"hobbyhub/app/models"
	"hobbyhub/app/services"

	"go.uber.org/zap"
)

// PostController handles HTTP requests for forum posts
type PostController struct {
	postService *services.PostService
	logger      *zap.SugaredLogger
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, logger *zap.SugaredLogger) *PostController {
	return &PostController{postService: postService, logger: logger}
}

// Index lists posts. ?search= filters by title and ?sortBy=upvotes orders by
// votes; the default order is newest first.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	posts, err := pc.postService.List(r.Context(), query.Get("search"), query.Get("sortBy"))
	if err != nil {
		failure(pc.logger, w, r, err, "", "Failed to get posts")
		return
	}
	sendJSON(w, http.StatusOK, posts)
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := pc.postService.GetPost(r.Context(), id)
	if err != nil {
		failure(pc.logger, w, r, err, "Post not found", "Failed to get post")
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	var in models.InsertPost
	if err := decodeJSON(r, &in); err != nil {
		failure(pc.logger, w, r, err, "", "Failed to create post")
		return
	}

	post, err := pc.postService.CreatePost(r.Context(), &in)
	if err != nil {
		failure(pc.logger, w, r, err, "", "Failed to create post")
		return
	}
	sendJSON(w, http.StatusCreated, post)
}

// Update applies a partial update to a post
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var update models.UpdatePost
	if err := decodeJSON(r, &update); err != nil {
		failure(pc.logger, w, r, err, "", "Failed to update post")
		return
	}

	post, err := pc.postService.UpdatePost(r.Context(), id, &update)
	if err != nil {
		failure(pc.logger, w, r, err, "Post not found", "Failed to update post")
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// Delete removes a post and its comments
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	deleted, err := pc.postService.DeletePost(r.Context(), id)
	if err != nil {
		failure(pc.logger, w, r, err, "", "Failed to delete post")
		return
	}
	if !deleted {
		sendError(w, http.StatusNotFound, "Post not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upvote adds one vote to a post. The request body is ignored.
func (pc *PostController) Upvote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := pc.postService.Upvote(r.Context(), id)
	if err != nil {
		failure(pc.logger, w, r, err, "Post not found", "Failed to upvote post")
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// UserPosts lists the posts created under an opaque client user id.
func (pc *PostController) UserPosts(w http.ResponseWriter, r *http.Request) {
	userID := muxVar(r, "userId")
	if userID == "" {
		sendError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	posts, err := pc.postService.ListByUser(r.Context(), userID)
	if err != nil {
		failure(pc.logger, w, r, err, "", "Failed to get user posts")
		return
	}
	sendJSON(w, http.StatusOK, posts)
}
