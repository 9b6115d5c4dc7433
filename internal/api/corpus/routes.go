package corpus

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers corpus routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/upload", h.UploadFile)

	r.Route("/files", func(r chi.Router) {
		r.Get("/", h.ListFiles)
		r.Delete("/{file_name}", h.DeleteFile)
	})
}
