// Package engine owns the document cache, the graph, the layout simulation
// and the interaction controller, and drives them from a single loop.
//
// Every mutation happens on the goroutine running Run (or on the test
// goroutine that calls Rescan/Tick directly). Other goroutines post closures
// with Do and read the immutable Snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/graph"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/layout"
	"github.com/starford/linkgraph/internal/models"
	"github.com/starford/linkgraph/internal/render"
)

// RebuildReheat is the energy a graph rebuild or settings change injects.
const RebuildReheat = 0.3

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("engine: stopped")

// Config tunes an Engine.
type Config struct {
	Settings        layout.Settings
	Width           float64
	Height          float64
	FPS             int
	ReadConcurrency int
	Interaction     interaction.Config
}

// DefaultConfig returns an 800x600, 30 fps engine with the default profile.
func DefaultConfig() Config {
	return Config{
		Settings:        layout.Settings{Profile: layout.ProfileDefault, Gravity: 1, ShowTags: true},
		Width:           800,
		Height:          600,
		FPS:             30,
		ReadConcurrency: 8,
		Interaction:     interaction.DefaultConfig(),
	}
}

// FrameSink receives every drawn frame.
type FrameSink interface {
	PublishFrame(frame any) bool
}

// FramePayload is what a FrameSink receives: the frame model plus the draw
// list a thin client can replay onto a canvas.
type FramePayload struct {
	Frame *render.Frame `json:"frame"`
	Ops   []render.Op   `json:"ops"`
}

// Snapshot is an immutable view of the engine state, safe to share across
// goroutines.
type Snapshot struct {
	Graph    *graph.Graph                 `json:"-"`
	Docs     map[string]*models.Document  `json:"-"`
	Frame    *render.Frame                `json:"frame"`
	Settings layout.Settings              `json:"settings"`
	State    string                       `json:"state"`
	Settled  bool                         `json:"settled"`
	Preview  *interaction.Preview         `json:"preview,omitempty"`
	Pending  *interaction.PendingCreation `json:"pending,omitempty"`
	Stats    graph.Stats                  `json:"stats"`
}

type rescanResult struct {
	docs map[string]*models.Document
	err  error
}

// Engine is the graph view runtime.
type Engine struct {
	cfg      Config
	source   CorpusSource
	logger   *slog.Logger
	frames   FrameSink
	renderer *render.Renderer
	clock    func() time.Time

	docs  map[string]*models.Document
	sim   *layout.Simulation
	ctrl  *interaction.Controller
	seeds map[string]interaction.Point
	dirty bool

	snap atomic.Pointer[Snapshot]

	cmds        chan func(*Engine)
	rescans     chan rescanResult
	loopCtx     context.Context
	running     atomic.Bool
	stopped     chan struct{}
	scanning    bool
	rescanAgain bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithFrameSink sends every drawn frame to s.
func WithFrameSink(s FrameSink) Option {
	return func(e *Engine) { e.frames = s }
}

// WithClock replaces time.Now for hover timing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithRenderer replaces the default renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// New creates an engine reading documents from src. deps are handed to the
// interaction controller.
func New(src CorpusSource, deps interaction.Deps, cfg Config, opts ...Option) *Engine {
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.ReadConcurrency <= 0 {
		cfg.ReadConcurrency = 8
	}
	e := &Engine{
		cfg:      cfg,
		source:   src,
		logger:   slog.Default(),
		renderer: render.NewRenderer(),
		clock:    time.Now,
		docs:     map[string]*models.Document{},
		seeds:    make(map[string]interaction.Point),
		cmds:     make(chan func(*Engine)),
		rescans:  make(chan rescanResult, 1),
		loopCtx:  context.Background(),
		stopped:  make(chan struct{}),
		dirty:    true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sim = layout.New(cfg.Settings, cfg.Width, cfg.Height)
	e.ctrl = interaction.New(e.sim, deps, cfg.Interaction,
		interaction.WithLogger(e.logger),
		interaction.WithClock(e.clock))
	e.publish(nil)
	return e
}

// Controller returns the interaction controller. Loop goroutine only.
func (e *Engine) Controller() *interaction.Controller { return e.ctrl }

// Simulation returns the layout simulation. Loop goroutine only.
func (e *Engine) Simulation() *layout.Simulation { return e.sim }

// Rescan reads the whole corpus and rebuilds the graph. Loop goroutine only;
// from elsewhere use RequestRescan.
func (e *Engine) Rescan(ctx context.Context) error {
	docs, err := e.load(ctx)
	if err != nil {
		return err
	}
	e.apply(docs)
	return nil
}

// RequestRescan starts an asynchronous corpus read whose result is applied
// by the loop. Requests made while a read is in flight collapse into one
// more read started after it finishes, since the running read may have
// missed the change. Loop goroutine only; wrap in Do from elsewhere.
func (e *Engine) RequestRescan() {
	if e.scanning {
		e.rescanAgain = true
		return
	}
	e.scanning = true
	ctx := e.loopCtx
	go func() {
		docs, err := e.load(ctx)
		select {
		case e.rescans <- rescanResult{docs: docs, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (e *Engine) apply(docs map[string]*models.Document) {
	e.docs = docs
	e.Rebuild()
	e.logger.Info("engine: rescan",
		slog.Int("documents", len(docs)),
		slog.Int("nodes", e.sim.Len()))
}

// Rebuild recomputes the graph from the cached documents and current
// settings. Bodies of surviving nodes keep their state.
func (e *Engine) Rebuild() {
	g := graph.Build(e.docs, graph.Options{ShowTags: e.sim.Settings().ShowTags})
	e.sim.SetGraph(g)

	for id, p := range e.ctrl.TakeSeeds() {
		e.seeds[id] = p
	}
	for id, p := range e.seeds {
		if i, ok := g.Index(id); ok {
			e.sim.Place(i, p.X, p.Y)
			delete(e.seeds, id)
		}
	}

	e.ctrl.Reconcile()
	if g.Len() > 0 {
		e.sim.Reheat(RebuildReheat)
	}
	e.dirty = true
	e.publish(nil)
}

// UpdateSettings validates and applies new display settings. A change of
// ShowTags rebuilds the graph; other changes only retune the forces.
func (e *Engine) UpdateSettings(s layout.Settings) error {
	if err := ValidateSettings(s); err != nil {
		return err
	}
	p, _ := layout.ParseProfile(string(s.Profile))
	s.Profile = p

	rebuild := s.ShowTags != e.sim.Settings().ShowTags
	e.sim.Configure(s)
	if rebuild {
		e.Rebuild()
		return nil
	}
	e.sim.Reheat(RebuildReheat)
	e.dirty = true
	e.publish(nil)
	return nil
}

// Resize changes the viewport.
func (e *Engine) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("engine: viewport %vx%v: %w", width, height, apperr.ErrInvalidInput)
	}
	e.sim.Resize(width, height)
	e.ctrl.SetView(interaction.CenteredView(width, height))
	e.dirty = true
	return nil
}

// Tick advances interaction and layout by one frame and draws when anything
// changed. It reports whether a frame was drawn.
func (e *Engine) Tick(now time.Time) bool {
	changed := e.ctrl.Advance(now)
	stepped := e.sim.Step()
	changed = e.ctrl.TakeDirty() || changed
	if !changed && !stepped && !e.dirty {
		return false
	}
	e.dirty = false

	frame := render.NewFrame(e.sim, e.ctrl.Overlay())
	var rec render.Recorder
	e.renderer.Draw(&rec, frame)
	e.publish(frame)
	if e.frames != nil {
		e.frames.PublishFrame(FramePayload{Frame: frame, Ops: rec.Ops})
	}
	return true
}

// Run drives the engine until ctx is cancelled: a frame ticker at the
// configured FPS, closures posted with Do and finished rescans.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: already running")
	}
	defer close(e.stopped)
	defer e.ctrl.Close()
	e.loopCtx = ctx

	ticker := time.NewTicker(time.Second / time.Duration(e.cfg.FPS))
	defer ticker.Stop()

	e.logger.Info("engine: started", slog.Int("fps", e.cfg.FPS))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine: stopped")
			return nil

		case now := <-ticker.C:
			e.Tick(now)

		case fn := <-e.cmds:
			fn(e)

		case res := <-e.rescans:
			e.scanning = false
			if res.err != nil {
				e.logger.Warn("engine: rescan failed", slog.String("error", res.err.Error()))
			} else {
				e.apply(res.docs)
			}
			if e.rescanAgain {
				e.rescanAgain = false
				e.RequestRescan()
			}
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (e *Engine) Do(ctx context.Context, fn func(*Engine)) error {
	done := make(chan struct{})
	wrapped := func(e *Engine) {
		defer close(done)
		fn(e)
	}
	select {
	case e.cmds <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest published state.
func (e *Engine) Snapshot() *Snapshot { return e.snap.Load() }

// Node returns the node with the given id.
func (e *Engine) Node(id string) (graph.Node, error) {
	n, ok := e.Snapshot().Graph.Node(id)
	if !ok {
		return graph.Node{}, fmt.Errorf("engine: node %q: %w", id, apperr.ErrNotFound)
	}
	return *n, nil
}

// Backlinks lists the documents referencing the node with the given id.
func (e *Engine) Backlinks(id string) ([]models.Backlink, error) {
	s := e.Snapshot()
	n, ok := s.Graph.Node(id)
	if !ok {
		return nil, fmt.Errorf("engine: node %q: %w", id, apperr.ErrNotFound)
	}
	return graph.Backlinks(s.Docs, *n), nil
}

// publish stores a new snapshot. A nil frame is captured from the current state.
func (e *Engine) publish(frame *render.Frame) {
	if frame == nil {
		frame = render.NewFrame(e.sim, e.ctrl.Overlay())
	}
	s := &Snapshot{
		Graph:    e.sim.Graph(),
		Docs:     e.docs,
		Frame:    frame,
		Settings: e.sim.Settings(),
		State:    e.ctrl.State().String(),
		Settled:  e.sim.Settled(),
		Stats:    e.sim.Graph().Stats(),
	}
	if p, ok := e.ctrl.Preview(); ok {
		s.Preview = &p
	}
	if p, ok := e.ctrl.Pending(); ok {
		s.Pending = &p
	}
	e.snap.Store(s)
}
