package api

import (
	"net/http"
	"time"

	chatapi "github.com/courseqa/courseqa-backend/internal/api/chat"
	corpusapi "github.com/courseqa/courseqa-backend/internal/api/corpus"
	"github.com/courseqa/courseqa-backend/internal/api/docs"
	"github.com/courseqa/courseqa-backend/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(corpusHandler *corpusapi.Handler, chatHandler *chatapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                  // Recover from panics
	r.Use(chimiddleware.RequestID)                  // Add request ID
	r.Use(middleware.Logger(logger))                // Log requests
	r.Use(middleware.CORS)                          // Handle CORS
	r.Use(chimiddleware.Timeout(120 * time.Second)) // Ingestion of large files is slow

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		corpusapi.RegisterRoutes(r, corpusHandler)
		chatapi.RegisterRoutes(r, chatHandler)
	})

	return r
}
