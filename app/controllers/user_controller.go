package controllers

import (
	"net/http"

	"hobbyhub/app/models"
	"hobbyhub/app/services"

	"go.uber.org/zap"
)

// UserController handles account signup
type UserController struct {
	userService *services.UserService
	logger      *zap.SugaredLogger
}

// NewUserController creates a new UserController
func NewUserController(userService *services.UserService, logger *zap.SugaredLogger) *UserController {
	return &UserController{userService: userService, logger: logger}
}

// Signup creates an account. The response never includes the password.
func (uc *UserController) Signup(w http.ResponseWriter, r *http.Request) {
	var in models.InsertUser
	if err := decodeJSON(r, &in); err != nil {
		failure(uc.logger, w, r, err, "", "Failed to create user")
		return
	}

	user, err := uc.userService.Signup(r.Context(), &in)
	if err != nil {
		failure(uc.logger, w, r, err, "", "Failed to create user")
		return
	}
	sendJSON(w, http.StatusCreated, user)
}
