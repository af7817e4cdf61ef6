package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/auth/login", s.handleLogin)
		r.With(s.requireUser).Get("/auth/verify", s.handleVerify)

		r.Get("/index", s.handleIndex)
		r.Get("/characters/{id}", s.handleGetCharacter)
		r.Get("/download/{id}", s.handleDownload)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser, s.requireAdmin)
			r.Post("/upload", s.handleUpload)
			r.Post("/upload/validate", s.handleValidateBatch)
			r.Post("/upload/batch", s.handleUploadBatch)
			r.Put("/characters/{id}", s.handleUpdateCharacter)
			r.Delete("/characters/{id}", s.handleDeleteCharacter)
		})
	})

	r.Get(s.publicPrefix+"/*", s.handleFile)
	return r
}
