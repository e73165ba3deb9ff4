package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"hobbyhub/app/controllers"
	"hobbyhub/app/middleware"
	"hobbyhub/app/repositories"
	"hobbyhub/app/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(storage repositories.Storage, logger *zap.SugaredLogger) *mux.Router {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(metrics.Middleware)

	postController := controllers.NewPostController(services.NewPostService(storage), logger)
	commentController := controllers.NewCommentController(services.NewCommentService(storage), logger)
	userController := controllers.NewUserController(services.NewUserService(storage), logger)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	// Posts API endpoints
	posts := api.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods(http.MethodGet)
	posts.HandleFunc("", postController.Create).Methods(http.MethodPost)
	posts.HandleFunc("/{id}", postController.Show).Methods(http.MethodGet)
	posts.HandleFunc("/{id}", postController.Update).Methods(http.MethodPatch)
	posts.HandleFunc("/{id}", postController.Delete).Methods(http.MethodDelete)
	posts.HandleFunc("/{id}/upvote", postController.Upvote).Methods(http.MethodPost)

	// Comments API endpoints
	posts.HandleFunc("/{id}/comments", commentController.Index).Methods(http.MethodGet)
	api.HandleFunc("/comments", commentController.Create).Methods(http.MethodPost)
	api.HandleFunc("/comments/{id}", commentController.Delete).Methods(http.MethodDelete)

	// Users API endpoints
	api.HandleFunc("/users", userController.Signup).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId}/posts", postController.UserPosts).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not found"})
	})

	return router
}

// NewServer wraps the router in an http.Server with the timeouts used in
// production.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
