package layout

// quad is a Barnes–Hut cell. Leaves hold point indices (several when points
// coincide); internal cells hold aggregated strength and a centroid weighted by
// absolute strength.
type quad struct {
	x0, y0, x1, y1 float64
	children       [4]*quad
	points         []int

	strength float64
	weight   float64
	cx, cy   float64
}

const maxQuadDepth = 24

func (q *quad) leaf() bool {
	return q.children == [4]*quad{}
}

// buildQuadtree indexes xs/ys with per-point strengths.
func buildQuadtree(xs, ys, strengths []float64) *quad {
	if len(xs) == 0 {
		return nil
	}
	x0, y0, x1, y1 := xs[0], ys[0], xs[0], ys[0]
	for i := range xs {
		x0, x1 = min(x0, xs[i]), max(x1, xs[i])
		y0, y1 = min(y0, ys[i]), max(y1, ys[i])
	}
	// Square the extent so cell width is meaningful on both axes.
	size := max(x1-x0, y1-y0, 1)
	root := &quad{x0: x0, y0: y0, x1: x0 + size, y1: y0 + size}
	for i := range xs {
		root.insert(i, xs, ys, 0)
	}
	root.accumulate(xs, ys, strengths)
	return root
}

func (q *quad) insert(i int, xs, ys []float64, depth int) {
	if q.leaf() {
		if len(q.points) == 0 || depth >= maxQuadDepth ||
			(xs[q.points[0]] == xs[i] && ys[q.points[0]] == ys[i]) {
			q.points = append(q.points, i)
			return
		}
		existing := q.points
		q.points = nil
		q.split()
		for _, j := range existing {
			q.child(xs[j], ys[j]).insert(j, xs, ys, depth+1)
		}
	}
	q.child(xs[i], ys[i]).insert(i, xs, ys, depth+1)
}

func (q *quad) split() {
	mx, my := (q.x0+q.x1)/2, (q.y0+q.y1)/2
	q.children = [4]*quad{
		{x0: q.x0, y0: q.y0, x1: mx, y1: my},
		{x0: mx, y0: q.y0, x1: q.x1, y1: my},
		{x0: q.x0, y0: my, x1: mx, y1: q.y1},
		{x0: mx, y0: my, x1: q.x1, y1: q.y1},
	}
}

func (q *quad) child(x, y float64) *quad {
	mx, my := (q.x0+q.x1)/2, (q.y0+q.y1)/2
	i := 0
	if x >= mx {
		i |= 1
	}
	if y >= my {
		i |= 2
	}
	return q.children[i]
}

func (q *quad) accumulate(xs, ys, strengths []float64) {
	var sx, sy float64
	if q.leaf() {
		for _, i := range q.points {
			w := abs(strengths[i])
			q.strength += strengths[i]
			q.weight += w
			sx += xs[i] * w
			sy += ys[i] * w
		}
		if len(q.points) > 0 {
			q.setCentroid(sx, sy, xs[q.points[0]], ys[q.points[0]])
		}
		return
	}
	for _, c := range q.children {
		c.accumulate(xs, ys, strengths)
		q.strength += c.strength
		q.weight += c.weight
		sx += c.cx * c.weight
		sy += c.cy * c.weight
	}
	q.setCentroid(sx, sy, (q.x0+q.x1)/2, (q.y0+q.y1)/2)
}

func (q *quad) setCentroid(sx, sy, fx, fy float64) {
	if q.weight > 0 {
		q.cx, q.cy = sx/q.weight, sy/q.weight
		return
	}
	q.cx, q.cy = fx, fy
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
