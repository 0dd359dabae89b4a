package layout

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/starford/linkgraph/internal/graph"
	"github.com/starford/linkgraph/internal/models"
)

func doc(path string, tags []string, refs ...string) *models.Document {
	d := &models.Document{Path: path, Title: path, Tags: tags}
	for _, r := range refs {
		d.References = append(d.References, models.Reference{Target: r})
	}
	return d
}

func testGraph(docs ...*models.Document) *graph.Graph {
	m := make(map[string]*models.Document, len(docs))
	for _, d := range docs {
		m[d.Path] = d
	}
	return graph.Build(m, graph.Options{ShowTags: true})
}

func defaultSettings() Settings {
	return Settings{Profile: ProfileDefault, Gravity: 1}
}

func runUntilSettled(t *testing.T, s *Simulation, limit int) int {
	t.Helper()
	steps := 0
	for s.Step() {
		steps++
		if steps > limit {
			t.Fatalf("simulation did not settle within %d steps", limit)
		}
	}
	return steps
}

func TestParseProfile(t *testing.T) {
	cases := map[string]Profile{
		"":          ProfileDefault,
		"default":   ProfileDefault,
		"alternate": ProfileAlternate,
		"dense":     ProfileAlternate,
	}
	for in, want := range cases {
		got, err := ParseProfile(in)
		if err != nil || got != want {
			t.Errorf("ParseProfile(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseProfile("wobbly"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestParamsFor_Profiles(t *testing.T) {
	d := ParamsFor(Settings{Profile: ProfileDefault, Gravity: 2})
	if d.LinkDistance != 50 || d.VelocityDecay != 0.6 || !d.MassGravity {
		t.Errorf("default params = %+v", d)
	}
	if d.CenterStrength != 0.1 {
		t.Errorf("default centering = %v, want 0.05*gravity", d.CenterStrength)
	}
	if ParamsFor(Settings{Profile: ProfileDefault, ShowTags: true}).LinkDistance != 80 {
		t.Error("tag edges should lengthen links to 80")
	}

	a := ParamsFor(Settings{Profile: ProfileAlternate, Gravity: 2, ShowTags: true})
	if a.LinkDistance != 30 || a.LinkStrength != 1 || a.ChargeFlat != -100 {
		t.Errorf("alternate link/charge = %+v", a)
	}
	if a.CenterStrength != 0.1 || a.VelocityDecay != 0.3 || a.MassGravity {
		t.Errorf("alternate params = %+v", a)
	}
	if a.CollideIterations != 2 {
		t.Errorf("alternate collide iterations = %d", a.CollideIterations)
	}

	note := &graph.Node{Type: graph.NodeNote, Mass: 3}
	tag := &graph.Node{Type: graph.NodeTag, Mass: 4}
	if r := d.collideRadius(note); r != 20 {
		t.Errorf("note radius = %v, want 3*5+5", r)
	}
	if r := d.collideRadius(tag); r != 20 {
		t.Errorf("tag radius = %v, want 20", r)
	}
	if r := a.collideRadius(note); r != 5 {
		t.Errorf("alternate radius = %v, want 5", r)
	}
	if c := d.charge(note); c != -90 {
		t.Errorf("default charge = %v, want -30*mass", c)
	}
	if c := a.charge(note); c != -100 {
		t.Errorf("alternate charge = %v, want -100", c)
	}
}

func TestStep_SettlesAndSleeps(t *testing.T) {
	s := New(defaultSettings(), 800, 600)
	s.SetGraph(testGraph(
		doc("a", nil, "b", "c"),
		doc("b", nil, "c"),
		doc("c", nil),
		doc("d", nil, "a"),
	))
	s.SetAlpha(1)

	steps := runUntilSettled(t, s, 1000)
	if steps < 250 || steps > 400 {
		t.Errorf("settled after %d steps, expected ~300", steps)
	}
	if !s.Settled() {
		t.Fatal("expected settled")
	}

	before := s.Bodies()
	if s.Step() {
		t.Error("settled simulation should skip work")
	}
	after := s.Bodies()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("body %d moved while settled", i)
		}
	}

	s.Reheat(0.3)
	if s.Settled() || !s.Step() {
		t.Error("reheat should wake the simulation")
	}
}

func TestStep_EmptyGraphIdle(t *testing.T) {
	s := New(defaultSettings(), 800, 600)
	s.SetGraph(testGraph())
	s.SetAlpha(1)
	if s.Step() {
		t.Error("empty simulation should not step")
	}
}

func TestStep_AlphaTargetKeepsWarm(t *testing.T) {
	s := New(defaultSettings(), 800, 600)
	s.SetGraph(testGraph(doc("a", nil), doc("b", nil)))
	s.SetAlpha(1)
	s.SetAlphaTarget(0.3)
	for i := 0; i < 2000; i++ {
		if !s.Step() {
			t.Fatal("simulation settled while alpha target is raised")
		}
	}
	if math.Abs(s.Alpha()-0.3) > 0.01 {
		t.Errorf("alpha = %v, want ~0.3", s.Alpha())
	}
}

func TestStep_PinnedBodyStaysPut(t *testing.T) {
	s := New(defaultSettings(), 800, 600)
	s.SetGraph(testGraph(doc("a", nil, "b"), doc("b", nil, "a"), doc("c", nil, "a")))
	s.SetAlpha(1)
	s.Pin(0, 123, -45)
	for i := 0; i < 50; i++ {
		s.Step()
	}
	b := s.Body(0)
	if b.X != 123 || b.Y != -45 || b.VX != 0 || b.VY != 0 {
		t.Errorf("pinned body = %+v", b)
	}
	s.Unpin(0)
	for i := 0; i < 5; i++ {
		s.Step()
	}
	if b := s.Body(0); b.X == 123 && b.Y == -45 {
		t.Error("unpinned body should move again")
	}
}

func TestStep_LinkPullsTogether(t *testing.T) {
	s := New(Settings{Profile: ProfileAlternate, Gravity: 1}, 800, 600)
	s.SetGraph(testGraph(doc("a", nil, "b"), doc("b", nil)))
	s.bodies[0].X, s.bodies[0].Y = -400, 0
	s.bodies[1].X, s.bodies[1].Y = 400, 0
	s.SetAlpha(1)
	runUntilSettled(t, s, 1000)

	a, b := s.Body(0), s.Body(1)
	d := math.Hypot(a.X-b.X, a.Y-b.Y)
	if d > 200 {
		t.Errorf("linked bodies still %.1f apart", d)
	}
}

func TestStep_ManyBodyRepels(t *testing.T) {
	s := New(Settings{Profile: ProfileDefault, Gravity: 0}, 800, 600)
	s.SetGraph(testGraph(doc("a", nil), doc("b", nil)))
	s.bodies[0].X, s.bodies[0].Y = -1, 0
	s.bodies[1].X, s.bodies[1].Y = 1, 0
	s.SetAlpha(1)
	s.Step()
	if s.Body(0).X >= -1 || s.Body(1).X <= 1 {
		t.Errorf("bodies did not separate: %+v %+v", s.Body(0), s.Body(1))
	}
}

func TestMassGravity_PullsTowardsHeavierNeighbor(t *testing.T) {
	g := testGraph(
		doc("hub", nil),
		doc("leaf", nil, "hub"),
		doc("x", nil, "hub"),
		doc("y", nil, "hub"),
	)
	s := New(defaultSettings(), 800, 600)
	s.SetGraph(g)
	leaf, _ := g.Index("leaf")
	hub, _ := g.Index("hub")
	s.bodies[hub].X, s.bodies[hub].Y = 100, 0
	s.bodies[leaf].X, s.bodies[leaf].Y = 0, 0
	s.SetAlpha(0.5)

	s.snapshot()
	s.applyMassGravity()
	want := (g.Nodes[hub].Mass - g.Nodes[leaf].Mass) * 0.05 * 0.5 * 1
	if math.Abs(s.dvx[leaf]-want) > 1e-9 || s.dvy[leaf] != 0 {
		t.Errorf("leaf impulse = (%v, %v), want (%v, 0)", s.dvx[leaf], s.dvy[leaf], want)
	}
	if s.dvx[hub] != 0 {
		t.Errorf("hub should not be pulled towards lighter neighbors, got %v", s.dvx[hub])
	}

	s.Configure(Settings{Profile: ProfileAlternate, Gravity: 1})
	if s.Params().MassGravity {
		t.Error("alternate profile must disable mass gravity")
	}
}

func TestSetGraph_PreservesPositionsByID(t *testing.T) {
	s := New(defaultSettings(), 800, 600)
	s.SetGraph(testGraph(doc("a", nil, "b"), doc("b", nil), doc("c", nil)))
	s.SetAlpha(1)
	for i := 0; i < 20; i++ {
		s.Step()
	}
	before := map[string]Body{}
	for i, n := range s.Graph().Nodes {
		before[n.ID] = s.Body(i)
	}

	// "c" goes away, "aa" appears and sorts before "b", shifting indices.
	s.SetGraph(testGraph(doc("a", nil, "b", "aa"), doc("aa", nil), doc("b", nil)))
	for i, n := range s.Graph().Nodes {
		b := s.Body(i)
		prev, ok := before[n.ID]
		if !ok {
			if b.VX != 0 || b.VY != 0 {
				t.Errorf("new node %s should start at rest", n.ID)
			}
			continue
		}
		if b != prev {
			t.Errorf("%s state changed across rebuild: %+v -> %+v", n.ID, prev, b)
		}
	}
	if s.Len() != 3 {
		t.Errorf("bodies = %d, want 3", s.Len())
	}
}

func TestFind(t *testing.T) {
	s := New(defaultSettings(), 800, 600)
	s.SetGraph(testGraph(doc("a", nil), doc("b", nil)))
	s.bodies[0].X, s.bodies[0].Y = 0, 0
	s.bodies[1].X, s.bodies[1].Y = 10, 0
	if i, ok := s.Find(8, 0, 20); !ok || i != 1 {
		t.Errorf("Find = %d, %v; want 1", i, ok)
	}
	if _, ok := s.Find(100, 100, 20); ok {
		t.Error("Find should miss far away points")
	}
}

func TestQuadtree_MatchesDirectSum(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	n := 60
	var docs []*models.Document
	for i := 0; i < n; i++ {
		docs = append(docs, doc(string(rune('A'+i%26))+string(rune('a'+i/26)), nil))
	}
	s := New(Settings{Profile: ProfileDefault, Gravity: 1}, 800, 600)
	s.SetGraph(testGraph(docs...))
	for i := range s.bodies {
		s.bodies[i].X = r.Float64()*400 - 200
		s.bodies[i].Y = r.Float64()*400 - 200
	}
	s.alpha = 1
	s.snapshot()

	// Theta 0 forces the tree walk to visit every leaf.
	s.params.Theta = 0
	s.applyManyBody()
	got := append([]float64(nil), s.dvx...)

	for i := 0; i < n; i++ {
		want := 0.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dx, dy := s.xs[j]-s.xs[i], s.ys[j]-s.ys[i]
			l := dx*dx + dy*dy
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			want += dx * s.strengths[j] / l
		}
		if math.Abs(got[i]-want) > 1e-9*math.Max(1, math.Abs(want)) {
			t.Fatalf("node %d: tree %v, direct %v", i, got[i], want)
		}
	}
}
