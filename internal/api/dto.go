package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkgraph/internal/graph"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/layout"
	"github.com/starford/linkgraph/internal/models"
	"github.com/starford/linkgraph/internal/render"
)

// Pointer actions.
const (
	PointerDown = "down"
	PointerMove = "move"
	PointerUp   = "up"
)

// GraphNode is a node with its current position.
type GraphNode struct {
	graph.Node
	X      float64 `json:"x" example:"12.5"`
	Y      float64 `json:"y" example:"-40.1"`
	Pinned bool    `json:"pinned,omitempty"`
}

// GraphResponse is the current graph with positions.
type GraphResponse struct {
	Nodes    []GraphNode                  `json:"nodes" validate:"required"`
	Edges    []render.EdgeView            `json:"edges" validate:"required"`
	Stats    graph.Stats                  `json:"stats"`
	Settings layout.Settings              `json:"settings"`
	Alpha    float64                      `json:"alpha" example:"0.12"`
	Settled  bool                         `json:"settled"`
	State    string                       `json:"state" example:"idle"`
	View     render.Transform             `json:"view"`
	Preview  *interaction.Preview         `json:"preview,omitempty"`
	Pending  *interaction.PendingCreation `json:"pending,omitempty"`
}

// BacklinksResponse wraps the backlinks of one node.
type BacklinksResponse struct {
	ID        string            `json:"id" example:"notes/hello.md" validate:"required"`
	Backlinks []models.Backlink `json:"backlinks" validate:"required"`
}

// PointerRequest is one pointer event in screen coordinates.
type PointerRequest struct {
	Action string  `json:"action" example:"down" validate:"required"`
	X      float64 `json:"x" example:"400"`
	Y      float64 `json:"y" example:"300"`
	Link   bool    `json:"link,omitempty"`
	Pan    bool    `json:"pan,omitempty"`
}

// Validate checks the action name.
func (r *PointerRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Action, validation.Required, validation.In(PointerDown, PointerMove, PointerUp)),
	)
}

// PointerResponse reports the controller state after a pointer event.
type PointerResponse struct {
	State   string                       `json:"state" example:"dragging-node"`
	Pending *interaction.PendingCreation `json:"pending,omitempty"`
}

// WheelRequest zooms around a screen point.
type WheelRequest struct {
	X     float64 `json:"x" example:"400"`
	Y     float64 `json:"y" example:"300"`
	Delta float64 `json:"delta" example:"-120"`
}

// ViewportRequest resizes the viewport.
type ViewportRequest struct {
	Width  float64 `json:"width" example:"1280"`
	Height float64 `json:"height" example:"720"`
}

// Validate checks the viewport size.
func (r *ViewportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&r.Height, validation.Required, validation.Min(1.0)),
	)
}

// SettingsRequest changes display settings. Omitted fields keep their value.
type SettingsRequest struct {
	Profile  *string  `json:"profile,omitempty" example:"default"`
	Gravity  *float64 `json:"gravity,omitempty" example:"1"`
	ShowTags *bool    `json:"show_tags,omitempty"`
}

// apply merges r into s.
func (r SettingsRequest) apply(s layout.Settings) layout.Settings {
	if r.Profile != nil {
		s.Profile = layout.Profile(*r.Profile)
	}
	if r.Gravity != nil {
		s.Gravity = *r.Gravity
	}
	if r.ShowTags != nil {
		s.ShowTags = *r.ShowTags
	}
	return s
}

// CreateRequest confirms a pending creation.
type CreateRequest struct {
	Title  string   `json:"title" example:"New idea" validate:"required"`
	Folder string   `json:"folder,omitempty" example:"ideas"`
	Tags   []string `json:"tags,omitempty"`
	Body   string   `json:"body,omitempty"`
}

// CreateResponse is returned after a document was created.
type CreateResponse struct {
	Path string `json:"path" example:"ideas/New idea.md" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
