package interaction

import "math"

// Zoom limits.
const (
	MinZoom = 0.1
	MaxZoom = 8

	wheelFactor = 0.002
)

// Point is a 2D coordinate, in screen or simulation space depending on use.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// View maps simulation space to screen space: screen = sim*K + (X, Y).
type View struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// CenteredView returns an unzoomed view with the simulation origin in the
// middle of a width x height screen.
func CenteredView(width, height float64) View {
	return View{X: width / 2, Y: height / 2, K: 1}
}

// ToSim converts a screen point to simulation space.
func (v View) ToSim(p Point) Point {
	return Point{X: (p.X - v.X) / v.K, Y: (p.Y - v.Y) / v.K}
}

// ToScreen converts a simulation point to screen space.
func (v View) ToScreen(p Point) Point {
	return Point{X: p.X*v.K + v.X, Y: p.Y*v.K + v.Y}
}

// ZoomAt scales the view by 2^(-delta*0.002) keeping the simulation point
// under screen point p fixed. The scale is clamped to [MinZoom, MaxZoom].
func (v View) ZoomAt(p Point, delta float64) View {
	anchor := v.ToSim(p)
	k := v.K * math.Pow(2, -delta*wheelFactor)
	k = max(MinZoom, min(MaxZoom, k))
	return View{X: p.X - anchor.X*k, Y: p.Y - anchor.Y*k, K: k}
}

// Pan translates the view by a screen-space delta.
func (v View) Pan(dx, dy float64) View {
	return View{X: v.X + dx, Y: v.Y + dy, K: v.K}
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
