package controllers

import (
	"net/http"

	"hobbyhub/app/models"
	"hobbyhub/app/services"

	"go.uber.org/zap"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	commentService *services.CommentService
	logger         *zap.SugaredLogger
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService, logger *zap.SugaredLogger) *CommentController {
	return &CommentController{commentService: commentService, logger: logger}
}

// Index lists a post's comments, oldest first
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		sendError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	comments, err := cc.commentService.ListPostComments(r.Context(), postID)
	if err != nil {
		failure(cc.logger, w, r, err, "", "Failed to get comments")
		return
	}
	sendJSON(w, http.StatusOK, comments)
}

// Create handles creating a new comment
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	var in models.InsertComment
	if err := decodeJSON(r, &in); err != nil {
		failure(cc.logger, w, r, err, "", "Failed to create comment")
		return
	}

	comment, err := cc.commentService.CreateComment(r.Context(), &in)
	if err != nil {
		failure(cc.logger, w, r, err, "", "Failed to create comment")
		return
	}
	sendJSON(w, http.StatusCreated, comment)
}

// Delete handles deleting a comment
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	deleted, err := cc.commentService.DeleteComment(r.Context(), id)
	if err != nil {
		failure(cc.logger, w, r, err, "", "Failed to delete comment")
		return
	}
	if !deleted {
		sendError(w, http.StatusNotFound, "Comment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
