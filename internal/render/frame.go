package render

import (
	"github.com/starford/linkgraph/internal/graph"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/layout"
)

// NodeView is one node as drawn.
type NodeView struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Type    graph.NodeType `json:"type"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Mass    float64        `json:"mass"`
	Pinned  bool           `json:"pinned,omitempty"`
	Hovered bool           `json:"hovered,omitempty"`
}

// EdgeView is one edge as drawn, by node index into Frame.Nodes.
type EdgeView struct {
	Source int            `json:"source"`
	Target int            `json:"target"`
	Kind   graph.EdgeKind `json:"kind"`
}

// Segment is a line in simulation space.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Frame is an immutable picture of the graph at one tick.
type Frame struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	View   Transform  `json:"view"`
	Alpha  float64    `json:"alpha"`
	Nodes  []NodeView `json:"nodes"`
	Edges  []EdgeView `json:"edges"`
	Link   *Segment   `json:"link,omitempty"`
}

// NewFrame captures the current simulation and interaction state.
func NewFrame(sim *layout.Simulation, o interaction.Overlay) *Frame {
	g := sim.Graph()
	w, h := sim.Viewport()
	f := &Frame{
		Width:  w,
		Height: h,
		View:   Transform{X: o.View.X, Y: o.View.Y, K: o.View.K},
		Alpha:  sim.Alpha(),
		Nodes:  make([]NodeView, g.Len()),
		Edges:  make([]EdgeView, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		b := sim.Body(i)
		f.Nodes[i] = NodeView{
			ID:      n.ID,
			Title:   n.Title,
			Type:    n.Type,
			X:       b.X,
			Y:       b.Y,
			Mass:    n.Mass,
			Pinned:  b.Pinned,
			Hovered: n.ID == o.Hovered,
		}
	}
	for i, e := range g.Edges {
		f.Edges[i] = EdgeView{Source: e.Source, Target: e.Target, Kind: e.Kind}
	}
	if o.Link != nil {
		f.Link = &Segment{X1: o.Link.From.X, Y1: o.Link.From.Y, X2: o.Link.To.X, Y2: o.Link.To.Y}
	}
	return f
}
