package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Graph handles GET /api/graph.
//
//	@Summary		Current graph with node positions
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Graph())
}

// GraphSVG handles GET /api/graph.svg.
//
//	@Summary		Current layout rendered as SVG
//	@Tags			graph
//	@Produce		image/svg+xml
//	@Security		BearerAuth
//	@Router			/graph.svg [get]
func (h *Handler) GraphSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := h.svc.SVG(r.Context())
	if err != nil {
		writeError(w, "render svg", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// Backlinks handles GET /api/backlinks?id=.
//
//	@Summary		Documents referencing a node
//	@Tags			graph
//	@Produce		json
//	@Param			id	query		string	true	"Node id (note path)"
//	@Success		200	{object}	BacklinksResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'id' is required"))
		return
	}
	bl, err := h.svc.Backlinks(id)
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{ID: id, Backlinks: bl})
}

// Pointer handles POST /api/pointer.
//
//	@Summary		Feed a pointer event (down, move, up)
//	@Tags			interaction
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PointerRequest	true	"Pointer event"
//	@Success		200		{object}	PointerResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pointer [post]
func (h *Handler) Pointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.Pointer(r.Context(), req)
	if err != nil {
		writeError(w, "pointer", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Wheel handles POST /api/wheel.
func (h *Handler) Wheel(w http.ResponseWriter, r *http.Request) {
	var req WheelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.svc.Wheel(r.Context(), req)
	if err != nil {
		writeError(w, "wheel", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Viewport handles PUT /api/viewport.
func (h *Handler) Viewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Resize(r.Context(), req); err != nil {
		writeError(w, "viewport", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Settings handles PUT /api/settings.
//
//	@Summary		Change display settings
//	@Tags			graph
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SettingsRequest	true	"Settings to change"
//	@Success		200		{object}	layout.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		writeError(w, "settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ConfirmCreate handles POST /api/create.
//
//	@Summary		Create the document requested by a link drop on empty canvas
//	@Tags			interaction
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateRequest	true	"New document"
//	@Success		201		{object}	CreateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/create [post]
func (h *Handler) ConfirmCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	path, err := h.svc.ConfirmCreate(r.Context(), req)
	if err != nil && path == "" {
		writeError(w, "create", err)
		return
	}
	if err != nil {
		// The document exists; only the back-reference failed.
		slog.Warn("create: append reference failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusCreated, CreateResponse{Path: path})
}

// CancelCreate handles DELETE /api/create.
func (h *Handler) CancelCreate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CancelCreate(r.Context()); err != nil {
		writeError(w, "cancel create", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenPreview handles POST /api/preview/open.
func (h *Handler) OpenPreview(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.OpenPreview(r.Context()); err != nil {
		writeError(w, "open preview", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClosePreview handles DELETE /api/preview.
func (h *Handler) ClosePreview(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClosePreview(r.Context()); err != nil {
		writeError(w, "close preview", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rescan handles POST /api/rescan.
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Rescan(r.Context()); err != nil {
		writeError(w, "rescan", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
