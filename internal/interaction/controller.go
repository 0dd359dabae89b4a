// Package interaction turns pointer and wheel input into graph manipulation:
// dragging nodes, drawing new references between notes, hover previews,
// click-to-open and zoom/pan.
//
// The Controller is driven from a single goroutine. The only asynchronous
// work it starts is preview loading, whose results are posted to a channel
// and applied by Advance.
package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/graph"
	"github.com/starford/linkgraph/internal/layout"
)

// State is the pointer state machine.
type State int

// Controller states.
const (
	Idle State = iota
	DraggingNode
	DraggingLink
)

func (s State) String() string {
	switch s {
	case DraggingNode:
		return "dragging-node"
	case DraggingLink:
		return "dragging-link"
	}
	return "idle"
}

// Energy levels applied by interaction.
const (
	DragAlphaTarget = 0.3
	ViewReheat      = 0.1
)

// Modifiers select the gesture started by PointerDown.
type Modifiers struct {
	Link bool `json:"link"`
	Pan  bool `json:"pan"`
}

// PendingCreation is a link drag released over empty canvas, waiting for the
// host to supply the new document's details.
type PendingCreation struct {
	SourceID    string `json:"source_id"`
	SourcePath  string `json:"source_path"`
	SourceTitle string `json:"source_title"`
	Drop        Point  `json:"drop"`
}

// NewDocument is what the host returns for a PendingCreation.
type NewDocument struct {
	Title  string   `json:"title"`
	Folder string   `json:"folder"`
	Tags   []string `json:"tags"`
	Body   string   `json:"body"`
}

// LinkLine is the transient line drawn during a link drag, in simulation space.
type LinkLine struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Overlay is the interaction state the renderer needs.
type Overlay struct {
	View     View      `json:"view"`
	Hovered  string    `json:"hovered,omitempty"`
	Dragging string    `json:"dragging,omitempty"`
	Link     *LinkLine `json:"link,omitempty"`
}

// Config tunes the controller.
type Config struct {
	HoverDelay      time.Duration
	PreviewMaxRunes int
	HitRadius       float64
	ClickSlop       float64
}

// DefaultConfig returns the standard interaction tuning.
func DefaultConfig() Config {
	return Config{
		HoverDelay:      800 * time.Millisecond,
		PreviewMaxRunes: 600,
		HitRadius:       20,
		ClickSlop:       3,
	}
}

// Controller owns transient interaction state and applies it to a simulation.
type Controller struct {
	cfg    Config
	deps   Deps
	sim    *layout.Simulation
	logger *slog.Logger
	clock  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	view    View
	state   State
	panning bool

	// gesture bookkeeping
	activeID   string
	downScreen Point
	lastScreen Point
	moved      bool
	pressEmpty bool
	linkEnd    Point

	hoverID       string
	hoverArmedID  string
	hoverDeadline time.Time
	hoverPoint    Point

	preview *Preview
	seq     uint64
	loads   chan previewResult

	pending *PendingCreation
	seeds   map[string]Point

	dirty bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now as the source of hover timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.clock = now }
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a controller for sim.
func New(sim *layout.Simulation, deps Deps, cfg Config, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	w, h := sim.Viewport()
	c := &Controller{
		cfg:    cfg,
		deps:   deps,
		sim:    sim,
		logger: slog.Default(),
		clock:  time.Now,
		ctx:    ctx,
		cancel: cancel,
		view:   CenteredView(w, h),
		loads:  make(chan previewResult, 8),
		seeds:  make(map[string]Point),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close cancels in-flight preview loads.
func (c *Controller) Close() { c.cancel() }

// State returns the pointer state.
func (c *Controller) State() State { return c.state }

// Panning reports whether a pan gesture is in progress.
func (c *Controller) Panning() bool { return c.panning }

// View returns the current view transform.
func (c *Controller) View() View { return c.view }

// SetView replaces the view transform.
func (c *Controller) SetView(v View) {
	c.view = v
	c.dirty = true
}

// Preview returns the open preview, if any.
func (c *Controller) Preview() (Preview, bool) {
	if c.preview == nil {
		return Preview{}, false
	}
	return *c.preview, true
}

// Pending returns the creation request waiting for confirmation, if any.
func (c *Controller) Pending() (PendingCreation, bool) {
	if c.pending == nil {
		return PendingCreation{}, false
	}
	return *c.pending, true
}

// Overlay returns the state the renderer draws on top of the graph.
func (c *Controller) Overlay() Overlay {
	o := Overlay{View: c.view, Hovered: c.hoverID}
	switch c.state {
	case DraggingNode:
		o.Dragging = c.activeID
	case DraggingLink:
		if i, ok := c.sim.Graph().Index(c.activeID); ok {
			b := c.sim.Body(i)
			o.Link = &LinkLine{From: Point{X: b.X, Y: b.Y}, To: c.linkEnd}
		}
	}
	return o
}

// TakeDirty reports whether interaction changed anything visible since the
// last call, and resets the flag.
func (c *Controller) TakeDirty() bool {
	d := c.dirty
	c.dirty = false
	return d
}

// hit returns the node under screen point p.
func (c *Controller) hit(p Point) (int, *graph.Node, bool) {
	sp := c.view.ToSim(p)
	i, ok := c.sim.Find(sp.X, sp.Y, c.cfg.HitRadius/c.view.K)
	if !ok {
		return 0, nil, false
	}
	return i, &c.sim.Graph().Nodes[i], true
}

// PointerDown starts a gesture at screen point p.
func (c *Controller) PointerDown(p Point, mods Modifiers) {
	if c.state != Idle || c.panning {
		return
	}
	c.downScreen, c.lastScreen = p, p
	c.moved, c.pressEmpty = false, false
	c.disarmHover()

	if mods.Pan {
		c.panning = true
		return
	}

	i, n, ok := c.hit(p)
	if !ok {
		c.pressEmpty = true
		return
	}

	if mods.Link {
		if n.IsTag() {
			return
		}
		b := c.sim.Body(i)
		c.sim.Pin(i, b.X, b.Y)
		c.state = DraggingLink
		c.activeID = n.ID
		c.linkEnd = c.view.ToSim(p)
	} else {
		sp := c.view.ToSim(p)
		c.sim.Pin(i, sp.X, sp.Y)
		c.state = DraggingNode
		c.activeID = n.ID
	}
	c.sim.SetAlphaTarget(DragAlphaTarget)
	c.dirty = true
}

// PointerMove updates the active gesture, or hover when idle.
func (c *Controller) PointerMove(p Point) {
	if dist(p, c.downScreen) > c.cfg.ClickSlop {
		c.moved = true
	}

	if c.panning {
		c.view = c.view.Pan(p.X-c.lastScreen.X, p.Y-c.lastScreen.Y)
		c.lastScreen = p
		c.dirty = true
		return
	}

	switch c.state {
	case DraggingNode:
		if i, ok := c.sim.Graph().Index(c.activeID); ok {
			sp := c.view.ToSim(p)
			c.sim.Pin(i, sp.X, sp.Y)
		}
		c.dirty = true
	case DraggingLink:
		c.linkEnd = c.view.ToSim(p)
		c.dirty = true
	default:
		c.updateHover(p)
	}
}

// PointerUp finishes the active gesture. It returns the error of a reference
// append triggered by a link drop.
func (c *Controller) PointerUp(ctx context.Context, p Point) error {
	if c.panning {
		c.panning = false
		c.sim.Reheat(ViewReheat)
		c.dirty = true
		return nil
	}

	switch c.state {
	case DraggingNode:
		return c.finishNodeDrag()
	case DraggingLink:
		return c.finishLinkDrag(ctx, p)
	}

	if c.pressEmpty && !c.moved {
		c.ClosePreview()
	}
	c.pressEmpty = false
	return nil
}

func (c *Controller) finishNodeDrag() error {
	id := c.activeID
	c.release()
	if c.moved {
		return nil
	}
	n, ok := c.sim.Graph().Node(id)
	if !ok || n.IsTag() || c.deps.Navigator == nil {
		return nil
	}
	c.deps.Navigator.OpenDocument(n.Path, n.Title)
	return nil
}

func (c *Controller) finishLinkDrag(ctx context.Context, p Point) error {
	src, ok := c.sim.Graph().Node(c.activeID)
	c.release()
	if !ok {
		return nil
	}

	_, dst, hit := c.hit(p)
	switch {
	case hit && dst.ID == src.ID:
		return nil
	case hit && dst.IsTag():
		return nil
	case hit:
		if c.deps.Appender == nil {
			return nil
		}
		if err := c.deps.Appender.AppendReference(ctx, src.Path, dst.Title); err != nil {
			return fmt.Errorf("interaction: append reference: %w", err)
		}
		c.logger.Info("interaction: reference added",
			slog.String("source", src.Path),
			slog.String("target", dst.Title))
		return nil
	}

	req := PendingCreation{
		SourceID:    src.ID,
		SourcePath:  src.Path,
		SourceTitle: src.Title,
		Drop:        c.view.ToSim(p),
	}
	c.pending = &req
	if c.deps.Prompter != nil {
		c.deps.Prompter.RequestCreation(req)
	}
	return nil
}

// release unpins the active node and drops the interaction energy.
func (c *Controller) release() {
	if i, ok := c.sim.Graph().Index(c.activeID); ok {
		c.sim.Unpin(i)
	}
	c.sim.SetAlphaTarget(0)
	c.state = Idle
	c.activeID = ""
	c.dirty = true
}

// Wheel zooms around screen point p.
func (c *Controller) Wheel(p Point, delta float64) {
	c.view = c.view.ZoomAt(p, delta)
	c.sim.Reheat(ViewReheat)
	c.dirty = true
}

// ConfirmCreate writes the pending document and links the drag source to it.
// It returns the path of the new document.
func (c *Controller) ConfirmCreate(ctx context.Context, doc NewDocument) (string, error) {
	if c.pending == nil {
		return "", apperr.ErrNoPendingCreation
	}
	doc.Title = strings.TrimSpace(doc.Title)
	if doc.Title == "" {
		return "", fmt.Errorf("interaction: title is required: %w", apperr.ErrInvalidInput)
	}
	if strings.ContainsAny(doc.Title, "|\n\r") || strings.Contains(doc.Title, "]]") {
		return "", fmt.Errorf("interaction: title %q cannot be used inside [[...]]: %w", doc.Title, apperr.ErrInvalidInput)
	}
	if c.deps.Creator == nil || c.deps.Appender == nil {
		return "", fmt.Errorf("interaction: document creation is not available: %w", apperr.ErrNotFound)
	}

	req := *c.pending
	path, err := c.deps.Creator.CreateDocument(ctx, doc.Folder, doc.Title, doc.Body, doc.Tags)
	if err != nil {
		return "", fmt.Errorf("interaction: create document: %w", err)
	}
	c.pending = nil
	c.seeds[path] = req.Drop

	if err := c.deps.Appender.AppendReference(ctx, req.SourcePath, doc.Title); err != nil {
		return path, fmt.Errorf("interaction: append reference: %w", err)
	}
	c.logger.Info("interaction: document created",
		slog.String("path", path),
		slog.String("source", req.SourcePath))
	return path, nil
}

// CancelCreate drops the pending creation request.
func (c *Controller) CancelCreate() {
	c.pending = nil
}

// TakeSeeds returns the drop positions of documents created since the last
// call, keyed by node id.
func (c *Controller) TakeSeeds() map[string]Point {
	if len(c.seeds) == 0 {
		return nil
	}
	s := c.seeds
	c.seeds = make(map[string]Point)
	return s
}

// Reconcile drops references to nodes that disappeared in a graph rebuild.
func (c *Controller) Reconcile() {
	g := c.sim.Graph()
	if c.state != Idle {
		if _, ok := g.Index(c.activeID); !ok {
			c.state = Idle
			c.activeID = ""
			c.sim.SetAlphaTarget(0)
		}
	}
	if c.hoverID != "" {
		if _, ok := g.Index(c.hoverID); !ok {
			c.hoverID = ""
			c.disarmHover()
		}
	}
	c.dirty = true
}
