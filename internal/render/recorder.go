package render

// Op is one recorded draw call.
type Op struct {
	Op    string    `json:"op"`
	Args  []float64 `json:"args,omitempty"`
	Text  string    `json:"text,omitempty"`
	Style *Style    `json:"style,omitempty"`
}

// Recorder is a Canvas that keeps draw calls as data so a remote client can
// replay them. Clear starts a new recording.
type Recorder struct {
	Ops []Op `json:"ops"`
}

var _ Canvas = (*Recorder)(nil)

func (r *Recorder) add(op string, s *Style, text string, args ...float64) {
	r.Ops = append(r.Ops, Op{Op: op, Args: args, Text: text, Style: s})
}

// Clear implements Canvas. Earlier ops are released, not reused, so a
// recording handed off to another goroutine stays intact.
func (r *Recorder) Clear(width, height float64) {
	r.Ops = nil
	r.add("clear", nil, "", width, height)
}

// SetTransform implements Canvas.
func (r *Recorder) SetTransform(t Transform) {
	r.add("transform", nil, "", t.X, t.Y, t.K)
}

// Line implements Canvas.
func (r *Recorder) Line(x1, y1, x2, y2 float64, s Style) {
	r.add("line", &s, "", x1, y1, x2, y2)
}

// DashedLine implements Canvas.
func (r *Recorder) DashedLine(x1, y1, x2, y2, dash float64, s Style) {
	r.add("dashed", &s, "", x1, y1, x2, y2, dash)
}

// Circle implements Canvas.
func (r *Recorder) Circle(x, y, radius float64, s Style) {
	r.add("circle", &s, "", x, y, radius)
}

// Text implements Canvas.
func (r *Recorder) Text(x, y float64, text string, size float64, s Style) {
	r.add("text", &s, text, x, y, size)
}

// Count returns how many ops named op were recorded.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, o := range r.Ops {
		if o.Op == op {
			n++
		}
	}
	return n
}
