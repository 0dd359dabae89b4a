// Package layout runs the continuous force-directed simulation over a graph.
//
// The integrator follows d3-force semantics (alpha, alpha decay, velocity
// decay, fixed positions) with one difference: every force of a tick reads the
// same pre-tick snapshot and writes into a velocity delta buffer, so the
// result does not depend on node or force order.
package layout

import (
	"math"
	"math/rand/v2"

	"github.com/starford/linkgraph/internal/graph"
)

// Energy constants shared with d3-force.
const (
	AlphaMin        = 0.001
	initialRadius   = 10
	distanceMin2    = 1
	jiggleMagnitude = 1e-6
)

var (
	initialAngle = math.Pi * (3 - math.Sqrt(5))
	alphaDecay   = 1 - math.Pow(AlphaMin, 1.0/300)
)

// Body is the mutable simulation state of one node.
type Body struct {
	X, Y   float64
	VX, VY float64
	Pinned bool
	FX, FY float64
}

// Simulation advances node positions one step per animation frame.
// It is not safe for concurrent use; the engine loop is its only caller.
type Simulation struct {
	g        *graph.Graph
	bodies   []Body
	settings Settings
	params   Params
	width    float64
	height   float64

	alpha       float64
	alphaTarget float64

	rng *rand.Rand

	// per-tick scratch, reused across steps
	snap      []Body
	dvx, dvy  []float64
	xs, ys    []float64
	strengths []float64
	radii     []float64
	counts    []int
}

// New creates an empty simulation for a width x height viewport.
func New(settings Settings, width, height float64) *Simulation {
	s := &Simulation{
		settings: settings,
		params:   ParamsFor(settings),
		width:    width,
		height:   height,
		rng:      rand.New(rand.NewPCG(1, 2)),
		g:        &graph.Graph{},
	}
	return s
}

// Graph returns the graph currently being simulated.
func (s *Simulation) Graph() *graph.Graph { return s.g }

// Settings returns the active settings.
func (s *Simulation) Settings() Settings { return s.settings }

// Params returns the resolved force parameters.
func (s *Simulation) Params() Params { return s.params }

// SetGraph swaps in a rebuilt graph. Bodies whose node id survives keep their
// position, velocity and pin; new nodes are seeded on a phyllotaxis spiral.
func (s *Simulation) SetGraph(g *graph.Graph) {
	prev := make(map[string]Body, len(s.bodies))
	for i := range s.bodies {
		prev[s.g.Nodes[i].ID] = s.bodies[i]
	}

	bodies := make([]Body, g.Len())
	for i, n := range g.Nodes {
		if b, ok := prev[n.ID]; ok {
			bodies[i] = b
			continue
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		bodies[i] = Body{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}

	s.g = g
	s.bodies = bodies
	s.counts = make([]int, g.Len())
	for _, e := range g.Edges {
		s.counts[e.Source]++
		s.counts[e.Target]++
	}
}

// Configure applies new settings without touching body state.
func (s *Simulation) Configure(settings Settings) {
	s.settings = settings
	s.params = ParamsFor(settings)
}

// Resize updates the viewport used by the radial containment force.
func (s *Simulation) Resize(width, height float64) {
	s.width, s.height = width, height
}

// Viewport returns the current viewport size.
func (s *Simulation) Viewport() (float64, float64) { return s.width, s.height }

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the energy directly.
func (s *Simulation) SetAlpha(a float64) { s.alpha = a }

// Reheat raises the energy to at least a.
func (s *Simulation) Reheat(a float64) {
	if s.alpha < a {
		s.alpha = a
	}
}

// SetAlphaTarget sets the value alpha decays towards.
func (s *Simulation) SetAlphaTarget(t float64) { s.alphaTarget = t }

// AlphaTarget returns the value alpha decays towards.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// Settled reports whether the simulation has cooled below AlphaMin with no
// interaction holding it warm.
func (s *Simulation) Settled() bool {
	return s.alpha < AlphaMin && s.alphaTarget < AlphaMin
}

// Len returns the number of bodies.
func (s *Simulation) Len() int { return len(s.bodies) }

// Body returns the state of node i.
func (s *Simulation) Body(i int) Body { return s.bodies[i] }

// Bodies returns a copy of every body.
func (s *Simulation) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

// Pin fixes node i at (x, y) until Unpin.
func (s *Simulation) Pin(i int, x, y float64) {
	b := &s.bodies[i]
	b.Pinned, b.FX, b.FY = true, x, y
}

// Unpin releases node i back to the forces.
func (s *Simulation) Unpin(i int) {
	b := &s.bodies[i]
	b.Pinned, b.FX, b.FY = false, 0, 0
}

// Place moves node i to (x, y) and stops it.
func (s *Simulation) Place(i int, x, y float64) {
	b := &s.bodies[i]
	b.X, b.Y, b.VX, b.VY = x, y, 0, 0
}

// Find returns the body nearest to (x, y) within radius.
func (s *Simulation) Find(x, y, radius float64) (int, bool) {
	best, bestD2 := -1, radius*radius
	for i := range s.bodies {
		dx, dy := s.bodies[i].X-x, s.bodies[i].Y-y
		if d2 := dx*dx + dy*dy; d2 < bestD2 {
			best, bestD2 = i, d2
		}
	}
	return best, best >= 0
}

// Step advances the simulation by one tick. It returns false, doing nothing,
// once the simulation is settled.
func (s *Simulation) Step() bool {
	if s.Settled() || len(s.bodies) == 0 {
		return false
	}
	s.alpha += (s.alphaTarget - s.alpha) * alphaDecay

	s.snapshot()
	s.applyLinks()
	s.applyManyBody()
	s.applyCentering()
	s.applyRadial()
	if s.params.MassGravity {
		s.applyMassGravity()
	}
	s.applyCollide()
	s.integrate()
	return true
}

func (s *Simulation) snapshot() {
	n := len(s.bodies)
	s.snap = append(s.snap[:0], s.bodies...)
	s.dvx = resize(s.dvx, n)
	s.dvy = resize(s.dvy, n)
	for i := 0; i < n; i++ {
		// Fixed bodies act as sources from their pinned location.
		if s.snap[i].Pinned {
			s.snap[i].X, s.snap[i].Y = s.snap[i].FX, s.snap[i].FY
		}
	}
}

func (s *Simulation) integrate() {
	keep := 1 - s.params.VelocityDecay
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.Pinned {
			b.X, b.Y, b.VX, b.VY = b.FX, b.FY, 0, 0
			continue
		}
		b.VX = (b.VX + s.dvx[i]) * keep
		b.VY = (b.VY + s.dvy[i]) * keep
		b.X += b.VX
		b.Y += b.VY
	}
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * jiggleMagnitude
}

func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}
