package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/engine"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/layout"
	"github.com/starford/linkgraph/internal/models"
	"github.com/starford/linkgraph/internal/render"
)

// Searcher runs full-text queries over the document index.
type Searcher interface {
	Search(query string, limit int) ([]index.SearchResult, error)
}

// Service turns API requests into engine operations. Mutations run on the
// engine loop through Do; reads use the engine snapshot.
type Service struct {
	eng    *engine.Engine
	search Searcher
}

// NewService creates a new API service. search may be nil.
func NewService(eng *engine.Engine, search Searcher) *Service {
	return &Service{eng: eng, search: search}
}

// Graph returns the latest graph snapshot with positions.
func (s *Service) Graph() GraphResponse {
	snap := s.eng.Snapshot()
	f := snap.Frame
	resp := GraphResponse{
		Nodes:    make([]GraphNode, len(snap.Graph.Nodes)),
		Edges:    f.Edges,
		Stats:    snap.Stats,
		Settings: snap.Settings,
		Alpha:    f.Alpha,
		Settled:  snap.Settled,
		State:    snap.State,
		View:     f.View,
		Preview:  snap.Preview,
		Pending:  snap.Pending,
	}
	for i, n := range snap.Graph.Nodes {
		resp.Nodes[i] = GraphNode{Node: n}
		if i < len(f.Nodes) {
			resp.Nodes[i].X, resp.Nodes[i].Y = f.Nodes[i].X, f.Nodes[i].Y
			resp.Nodes[i].Pinned = f.Nodes[i].Pinned
		}
	}
	return resp
}

// Backlinks lists the documents that reference node id.
func (s *Service) Backlinks(id string) ([]models.Backlink, error) {
	return s.eng.Backlinks(id)
}

// Pointer feeds one pointer event to the interaction controller.
func (s *Service) Pointer(ctx context.Context, req PointerRequest) (PointerResponse, error) {
	if err := req.Validate(); err != nil {
		return PointerResponse{}, fmt.Errorf("api: pointer: %w: %w", apperr.ErrInvalidInput, err)
	}
	p := interaction.Point{X: req.X, Y: req.Y}

	var resp PointerResponse
	var opErr error
	err := s.eng.Do(ctx, func(e *engine.Engine) {
		c := e.Controller()
		switch req.Action {
		case PointerDown:
			c.PointerDown(p, interaction.Modifiers{Link: req.Link, Pan: req.Pan})
		case PointerMove:
			c.PointerMove(p)
		case PointerUp:
			opErr = c.PointerUp(ctx, p)
		}
		resp.State = c.State().String()
		if pc, ok := c.Pending(); ok {
			resp.Pending = &pc
		}
	})
	if err != nil {
		return PointerResponse{}, err
	}
	return resp, opErr
}

// Wheel zooms the view.
func (s *Service) Wheel(ctx context.Context, req WheelRequest) (interaction.View, error) {
	var v interaction.View
	err := s.eng.Do(ctx, func(e *engine.Engine) {
		c := e.Controller()
		c.Wheel(interaction.Point{X: req.X, Y: req.Y}, req.Delta)
		v = c.View()
	})
	return v, err
}

// Resize changes the viewport size.
func (s *Service) Resize(ctx context.Context, req ViewportRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("api: viewport: %w: %w", apperr.ErrInvalidInput, err)
	}
	var opErr error
	if err := s.eng.Do(ctx, func(e *engine.Engine) {
		opErr = e.Resize(req.Width, req.Height)
	}); err != nil {
		return err
	}
	return opErr
}

// UpdateSettings merges req into the current settings and applies them.
func (s *Service) UpdateSettings(ctx context.Context, req SettingsRequest) (layout.Settings, error) {
	var out layout.Settings
	var opErr error
	err := s.eng.Do(ctx, func(e *engine.Engine) {
		next := req.apply(e.Simulation().Settings())
		if opErr = e.UpdateSettings(next); opErr == nil {
			out = e.Simulation().Settings()
		}
	})
	if err != nil {
		return layout.Settings{}, err
	}
	return out, opErr
}

// ConfirmCreate creates the pending document and schedules a rescan so the
// new node appears at the drop point.
func (s *Service) ConfirmCreate(ctx context.Context, req CreateRequest) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", fmt.Errorf("api: create: title is required: %w", apperr.ErrInvalidInput)
	}
	var path string
	var opErr error
	err := s.eng.Do(ctx, func(e *engine.Engine) {
		path, opErr = e.Controller().ConfirmCreate(ctx, interaction.NewDocument{
			Title:  req.Title,
			Folder: req.Folder,
			Tags:   req.Tags,
			Body:   req.Body,
		})
		if path != "" {
			e.RequestRescan()
		}
	})
	if err != nil {
		return "", err
	}
	return path, opErr
}

// CancelCreate drops the pending creation.
func (s *Service) CancelCreate(ctx context.Context) error {
	return s.eng.Do(ctx, func(e *engine.Engine) { e.Controller().CancelCreate() })
}

// OpenPreview navigates to the previewed document.
func (s *Service) OpenPreview(ctx context.Context) error {
	opened := false
	if err := s.eng.Do(ctx, func(e *engine.Engine) {
		opened = e.Controller().OpenPreviewDocument()
	}); err != nil {
		return err
	}
	if !opened {
		return fmt.Errorf("api: no open preview: %w", apperr.ErrNotFound)
	}
	return nil
}

// ClosePreview hides the preview.
func (s *Service) ClosePreview(ctx context.Context) error {
	return s.eng.Do(ctx, func(e *engine.Engine) { e.Controller().ClosePreview() })
}

// Rescan schedules a corpus rescan.
func (s *Service) Rescan(ctx context.Context) error {
	return s.eng.Do(ctx, func(e *engine.Engine) { e.RequestRescan() })
}

// Search runs a full-text query.
func (s *Service) Search(query string, limit int) ([]index.SearchResult, error) {
	if s.search == nil {
		return nil, fmt.Errorf("api: search index not configured: %w", apperr.ErrNotFound)
	}
	res, err := s.search.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []index.SearchResult{}
	}
	return res, nil
}

// SVG renders the latest frame through graphviz.
func (s *Service) SVG(ctx context.Context) ([]byte, error) {
	return render.RenderSVG(ctx, render.ToDOT(s.eng.Snapshot().Frame))
}
