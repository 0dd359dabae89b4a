package layout

import (
	"math"
)

// applyLinks pulls linked bodies towards the link distance. Bias splits the
// correction so the lower-degree end moves more.
func (s *Simulation) applyLinks() {
	p := s.params
	for _, e := range s.g.Edges {
		src, dst := &s.snap[e.Source], &s.snap[e.Target]
		x := dst.X + dst.VX - src.X - src.VX
		y := dst.Y + dst.VY - src.Y - src.VY
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		l := math.Sqrt(x*x + y*y)

		strength := p.LinkStrength
		if strength == 0 {
			strength = 1 / float64(min(s.counts[e.Source], s.counts[e.Target]))
		}
		l = (l - p.LinkDistance) / l * s.alpha * strength
		x *= l
		y *= l

		bias := float64(s.counts[e.Source]) / float64(s.counts[e.Source]+s.counts[e.Target])
		s.dvx[e.Target] -= x * bias
		s.dvy[e.Target] -= y * bias
		s.dvx[e.Source] += x * (1 - bias)
		s.dvy[e.Source] += y * (1 - bias)
	}
}

// applyManyBody applies pairwise charge through a Barnes–Hut approximation.
func (s *Simulation) applyManyBody() {
	n := len(s.snap)
	s.xs = resize(s.xs, n)
	s.ys = resize(s.ys, n)
	s.strengths = resize(s.strengths, n)
	for i := range s.snap {
		s.xs[i], s.ys[i] = s.snap[i].X, s.snap[i].Y
		s.strengths[i] = s.params.charge(&s.g.Nodes[i])
	}
	root := buildQuadtree(s.xs, s.ys, s.strengths)
	theta2 := s.params.Theta * s.params.Theta
	for i := 0; i < n; i++ {
		s.visitCharge(root, i, theta2)
	}
}

func (s *Simulation) visitCharge(q *quad, i int, theta2 float64) {
	if q == nil || (q.leaf() && len(q.points) == 0) {
		return
	}
	xi, yi := s.xs[i], s.ys[i]

	if !q.leaf() {
		dx, dy := q.cx-xi, q.cy-yi
		w := q.x1 - q.x0
		l := dx*dx + dy*dy
		if w*w/theta2 < l {
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			s.dvx[i] += dx * q.strength * s.alpha / l
			s.dvy[i] += dy * q.strength * s.alpha / l
			return
		}
		for _, c := range q.children {
			s.visitCharge(c, i, theta2)
		}
		return
	}

	for _, j := range q.points {
		if j == i {
			continue
		}
		dx, dy := s.xs[j]-xi, s.ys[j]-yi
		if dx == 0 {
			dx = s.jiggle()
		}
		if dy == 0 {
			dy = s.jiggle()
		}
		l := dx*dx + dy*dy
		if l < distanceMin2 {
			l = math.Sqrt(distanceMin2 * l)
		}
		w := s.strengths[j] * s.alpha / l
		s.dvx[i] += dx * w
		s.dvy[i] += dy * w
	}
}

// applyCentering pulls every body towards the origin on both axes.
func (s *Simulation) applyCentering() {
	k := s.params.CenterStrength * s.alpha
	if k == 0 {
		return
	}
	for i := range s.snap {
		s.dvx[i] -= s.snap[i].X * k
		s.dvy[i] -= s.snap[i].Y * k
	}
}

// applyRadial keeps bodies near a ring sized from the viewport.
func (s *Simulation) applyRadial() {
	radius := s.params.RadialFactor * min(s.width, s.height)
	if radius <= 0 || s.params.RadialStrength == 0 {
		return
	}
	for i := range s.snap {
		dx, dy := s.snap[i].X, s.snap[i].Y
		if dx == 0 {
			dx = 1e-6
		}
		if dy == 0 {
			dy = 1e-6
		}
		r := math.Sqrt(dx*dx + dy*dy)
		k := (radius - r) * s.params.RadialStrength * s.alpha / r
		s.dvx[i] += dx * k
		s.dvy[i] += dy * k
	}
}

// applyMassGravity draws each body towards its strictly heavier neighbors.
func (s *Simulation) applyMassGravity() {
	p := s.params
	scale := p.MassGravityFactor * s.alpha * p.Gravity
	if scale == 0 {
		return
	}
	for i := range s.snap {
		mi := s.g.Nodes[i].Mass
		for _, j := range s.g.Neighbors(i) {
			mj := s.g.Nodes[j].Mass
			if mj <= mi {
				continue
			}
			dx, dy := s.snap[j].X-s.snap[i].X, s.snap[j].Y-s.snap[i].Y
			l := math.Sqrt(dx*dx + dy*dy)
			if l == 0 {
				continue
			}
			f := (mj - mi) * scale / l
			s.dvx[i] += dx * f
			s.dvy[i] += dy * f
		}
	}
}

// applyCollide separates overlapping circles. Each iteration predicts
// positions from the snapshot plus the velocity accumulated so far, and the
// iteration's corrections are merged only after all pairs are resolved.
func (s *Simulation) applyCollide() {
	p := s.params
	if p.CollideIterations <= 0 {
		return
	}
	n := len(s.snap)
	s.radii = resize(s.radii, n)
	maxR := 0.0
	for i := range s.snap {
		s.radii[i] = p.collideRadius(&s.g.Nodes[i])
		maxR = max(maxR, s.radii[i])
	}
	if maxR == 0 {
		return
	}

	cell := 2 * maxR
	ddx := make([]float64, n)
	ddy := make([]float64, n)
	px := make([]float64, n)
	py := make([]float64, n)

	for iter := 0; iter < p.CollideIterations; iter++ {
		grid := make(map[[2]int][]int, n)
		for i := range s.snap {
			px[i] = s.snap[i].X + s.snap[i].VX + s.dvx[i]
			py[i] = s.snap[i].Y + s.snap[i].VY + s.dvy[i]
			key := [2]int{int(math.Floor(px[i] / cell)), int(math.Floor(py[i] / cell))}
			grid[key] = append(grid[key], i)
		}
		clear(ddx)
		clear(ddy)

		for i := 0; i < n; i++ {
			cx, cy := int(math.Floor(px[i]/cell)), int(math.Floor(py[i]/cell))
			ri := s.radii[i]
			for gx := cx - 1; gx <= cx+1; gx++ {
				for gy := cy - 1; gy <= cy+1; gy++ {
					for _, j := range grid[[2]int{gx, gy}] {
						if j <= i {
							continue
						}
						rj := s.radii[j]
						r := ri + rj
						x, y := px[i]-px[j], py[i]-py[j]
						l := x*x + y*y
						if l >= r*r {
							continue
						}
						if x == 0 {
							x = s.jiggle()
							l += x * x
						}
						if y == 0 {
							y = s.jiggle()
							l += y * y
						}
						l = math.Sqrt(l)
						l = (r - l) / l * p.CollideStrength
						x *= l
						y *= l
						share := rj * rj / (ri*ri + rj*rj)
						ddx[i] += x * share
						ddy[i] += y * share
						ddx[j] -= x * (1 - share)
						ddy[j] -= y * (1 - share)
					}
				}
			}
		}

		for i := 0; i < n; i++ {
			s.dvx[i] += ddx[i]
			s.dvy[i] += ddy[i]
		}
	}
}
