// Package render draws the live graph through an immediate-mode Canvas and
// exports static snapshots as Graphviz DOT or SVG.
package render

// Style is the paint for one draw call. Colors are CSS color strings.
type Style struct {
	Stroke string  `json:"stroke,omitempty"`
	Fill   string  `json:"fill,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Alpha  float64 `json:"alpha,omitempty"`
}

// Transform maps simulation space to device space: device = p*K + (X, Y).
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Canvas is an immediate-mode drawing surface. Coordinates passed after
// SetTransform are in simulation space.
type Canvas interface {
	Clear(width, height float64)
	SetTransform(t Transform)
	Line(x1, y1, x2, y2 float64, s Style)
	DashedLine(x1, y1, x2, y2, dash float64, s Style)
	Circle(x, y, r float64, s Style)
	Text(x, y float64, text string, size float64, s Style)
}
