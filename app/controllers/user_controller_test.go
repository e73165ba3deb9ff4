package controllers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"hobbyhub/app/repositories"
	"hobbyhub/app/repositories/mock"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserControllerSignup(t *testing.T) {
	router := setupRouter(repositories.NewMemStorage(false), zap.NewNop().Sugar())
	username := gofakeit.LetterN(12)
	password := gofakeit.Password(true, true, true, false, false, 12)
	body := `{"username":"` + username + `","password":"` + password + `"}`

	w := doRequest(router, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"username":"`+username+`"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), password)

	w = doRequest(router, http.MethodPost, "/api/users", body)
	assertMessage(t, w, http.StatusConflict, "Username already exists")
}

func TestUserControllerSignupValidation(t *testing.T) {
	router := setupRouter(repositories.NewMemStorage(false), zap.NewNop().Sugar())

	w := doRequest(router, http.MethodPost, "/api/users", `{"username":"ab","password":"secret1"}`)
	assertMessage(t, w, http.StatusBadRequest, `Validation error: Must contain at least 3 character(s) at "username"`)

	w = doRequest(router, http.MethodPost, "/api/users", `{"username":"abc"}`)
	assertMessage(t, w, http.StatusBadRequest, `Validation error: Required at "password"`)

	w = doRequest(router, http.MethodPost, "/api/users", `{"username":"abc","password":"`+strings.Repeat("é", 60)+`"}`)
	assertMessage(t, w, http.StatusBadRequest, `Validation error: Must contain at most 72 byte(s) at "password"`)
}

func TestUserControllerSignupStorageFailure(t *testing.T) {
	storage := new(mock.Storage)
	storage.On("GetUserByUsername", testifymock.Anything, "historian").Return(nil, errors.New("db down"))
	router := setupRouter(storage, zap.NewNop().Sugar())

	w := doRequest(router, http.MethodPost, "/api/users", `{"username":"historian","password":"rubicon49"}`)
	assertMessage(t, w, http.StatusInternalServerError, "Failed to create user")
	storage.AssertExpectations(t)
}
