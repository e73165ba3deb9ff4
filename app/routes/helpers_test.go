package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hobbyhub/app/models"
	"hobbyhub/app/repositories"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestRouter builds the full router over a fresh store.
func setupTestRouter(t *testing.T, storage repositories.Storage) *mux.Router {
	t.Helper()
	t.Cleanup(func() { storage.Close() })
	return SetupRoutes(storage, zap.NewNop().Sugar())
}

func setupBadgerStorage(t *testing.T) repositories.Storage {
	t.Helper()
	storage, err := repositories.NewBadgerStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeInto[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeInto[map[string]string](t, w)["message"]
}

func createPost(t *testing.T, router http.Handler, body string) models.Post {
	t.Helper()
	w := serve(router, http.MethodPost, "/api/posts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeInto[models.Post](t, w)
}
