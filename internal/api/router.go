package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Graph state and queries.
	r.Get("/graph", h.Graph)
	r.Get("/graph.svg", h.GraphSVG)
	r.Get("/backlinks", h.Backlinks)
	r.Get("/search", h.Search)

	// Interaction.
	r.Post("/pointer", h.Pointer)
	r.Post("/wheel", h.Wheel)
	r.Put("/viewport", h.Viewport)
	r.Put("/settings", h.Settings)
	r.Post("/create", h.ConfirmCreate)
	r.Delete("/create", h.CancelCreate)
	r.Post("/preview/open", h.OpenPreview)
	r.Delete("/preview", h.ClosePreview)
	r.Post("/rescan", h.Rescan)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
