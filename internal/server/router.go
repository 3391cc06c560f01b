package server

import (
	"github.com/flamego/flamego"
)

// NewRouter wires the API routes onto a fresh Flame instance.
func NewRouter(h *Handler, frontendURL string) *flamego.Flame {
	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(CORS(frontendURL))

	f.Get("/api/health", h.Health)
	f.Post("/api/ocr/process", h.ProcessDocument)
	f.Get("/api/runs/{id}", h.GetRun)
	f.Get("/api/runs/{id}/export", h.ExportRun)

	// Preflight for the upload endpoint; the CORS middleware answers
	// before this handler runs for allowed origins.
	f.Options("/api/{**}", func(c flamego.Context) {
		c.ResponseWriter().WriteHeader(204)
	})

	return f
}
