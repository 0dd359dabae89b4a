package render

import (
	"math"

	"github.com/starford/linkgraph/internal/graph"
)

// Theme holds the palette used by Renderer.
type Theme struct {
	Background    string
	ReferenceEdge string
	TagEdge       string
	Note          string
	Tag           string
	Hovered       string
	PinnedStroke  string
	Label         string
	LinkPreview   string
}

// DefaultTheme is a light palette.
var DefaultTheme = Theme{
	Background:    "#ffffff",
	ReferenceEdge: "#9aa5b1",
	TagEdge:       "#d9c8a0",
	Note:          "#5b7fa6",
	Tag:           "#d99a2b",
	Hovered:       "#e8553e",
	PinnedStroke:  "#1f2933",
	Label:         "#323f4b",
	LinkPreview:   "#e8553e",
}

// Renderer draws frames onto a Canvas.
type Renderer struct {
	Theme Theme
	// Labels are drawn only at or above this zoom, except for the hovered node.
	LabelZoom float64
	LabelSize float64
}

// NewRenderer returns a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme, LabelZoom: 0.6, LabelSize: 12}
}

// NodeRadius is the drawn radius of a node with mass m.
func NodeRadius(m float64) float64 {
	return 3 + 2*math.Sqrt(max(m, 0))
}

// Draw paints f: edges, nodes, labels and the link preview line.
func (r *Renderer) Draw(c Canvas, f *Frame) {
	t := r.Theme
	k := f.View.K
	if k == 0 {
		k = 1
	}

	c.Clear(f.Width, f.Height)
	c.SetTransform(f.View)

	for _, e := range f.Edges {
		s, d := f.Nodes[e.Source], f.Nodes[e.Target]
		style := Style{Stroke: t.ReferenceEdge, Width: 1 / k, Alpha: 0.6}
		if e.Kind == graph.EdgeTagMembership {
			style.Stroke = t.TagEdge
			style.Alpha = 0.4
		}
		c.Line(s.X, s.Y, d.X, d.Y, style)
	}

	for _, n := range f.Nodes {
		style := Style{Fill: t.Note}
		if n.Type == graph.NodeTag {
			style.Fill = t.Tag
		}
		if n.Hovered {
			style.Fill = t.Hovered
		}
		if n.Pinned {
			style.Stroke = t.PinnedStroke
			style.Width = 2 / k
		}
		c.Circle(n.X, n.Y, NodeRadius(n.Mass), style)
	}

	showAll := f.View.K >= r.LabelZoom
	for _, n := range f.Nodes {
		if !showAll && !n.Hovered {
			continue
		}
		c.Text(n.X, n.Y+NodeRadius(n.Mass)+r.LabelSize/k, n.Title, r.LabelSize/k, Style{Fill: t.Label})
	}

	if f.Link != nil {
		c.DashedLine(f.Link.X1, f.Link.Y1, f.Link.X2, f.Link.Y2, 4/k,
			Style{Stroke: t.LinkPreview, Width: 1.5 / k})
	}
}
