package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"hobbyhub/app/middleware"
	"hobbyhub/app/models"
	"hobbyhub/app/repositories"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// errorResponse is the body of every non-2xx API answer.
type errorResponse struct {
	Message string `json:"message"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, errorResponse{Message: message})
}

// decodeJSON reads the request body into dst. An empty body decodes as {}.
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return models.NewValidationError(err)
}

// pathID parses the named path variable as a decimal id. Trailing garbage
// such as "12abc" is rejected.
func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(muxVar(r, name))
	if err != nil {
		return 0, false
	}
	return id, true
}

func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// failure maps a service error onto a response. notFound is used for
// ErrNotFound and generic for anything unexpected, whose cause is logged but
// never sent to the client.
func failure(logger *zap.SugaredLogger, w http.ResponseWriter, r *http.Request, err error, notFound, generic string) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case models.KindValidation:
			sendError(w, http.StatusBadRequest, appErr.Message)
			return
		case models.KindNotFound:
			sendError(w, http.StatusNotFound, appErr.Message)
			return
		case models.KindConflict:
			sendError(w, http.StatusConflict, appErr.Message)
			return
		}
	}
	if notFound != "" && errors.Is(err, repositories.ErrNotFound) {
		sendError(w, http.StatusNotFound, notFound)
		return
	}

	logger.Errorw(generic,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.RequestIDFromContext(r.Context()),
	)
	sendError(w, http.StatusInternalServerError, generic)
}
