package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/starford/linkgraph/internal/graph"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/layout"
	"github.com/starford/linkgraph/internal/models"
)

func testSim(t *testing.T) *layout.Simulation {
	t.Helper()
	docs := map[string]*models.Document{
		"a.md": {Path: "a.md", Title: "Alpha", Tags: []string{"go"}, References: []models.Reference{{Target: "Beta"}}},
		"b.md": {Path: "b.md", Title: "Beta"},
	}
	sim := layout.New(layout.Settings{Profile: layout.ProfileDefault, Gravity: 1}, 800, 600)
	sim.SetGraph(graph.Build(docs, graph.Options{ShowTags: true}))
	sim.Place(0, 0, 0)
	sim.Place(1, 100, 0)
	sim.Place(2, 0, 100)
	return sim
}

func TestNewFrame(t *testing.T) {
	sim := testSim(t)
	sim.Pin(1, 100, 0)
	o := interaction.Overlay{
		View:    interaction.View{X: 400, Y: 300, K: 1},
		Hovered: "a.md",
		Link:    &interaction.LinkLine{From: interaction.Point{X: 0, Y: 0}, To: interaction.Point{X: 50, Y: 50}},
	}
	f := NewFrame(sim, o)

	if len(f.Nodes) != 3 || len(f.Edges) != 2 {
		t.Fatalf("nodes = %d edges = %d", len(f.Nodes), len(f.Edges))
	}
	if !f.Nodes[0].Hovered || f.Nodes[1].Hovered {
		t.Error("hover flag not carried")
	}
	if !f.Nodes[1].Pinned {
		t.Error("pin flag not carried")
	}
	if f.Link == nil || f.Link.X2 != 50 {
		t.Errorf("link = %+v", f.Link)
	}
	if f.Width != 800 || f.Height != 600 {
		t.Errorf("viewport = %vx%v", f.Width, f.Height)
	}
}

func TestDraw_AllShapes(t *testing.T) {
	f := NewFrame(testSim(t), interaction.Overlay{
		View: interaction.View{X: 400, Y: 300, K: 1},
		Link: &interaction.LinkLine{To: interaction.Point{X: 10, Y: 10}},
	})
	var rec Recorder
	NewRenderer().Draw(&rec, f)

	if rec.Ops[0].Op != "clear" || rec.Ops[1].Op != "transform" {
		t.Errorf("first ops = %s, %s", rec.Ops[0].Op, rec.Ops[1].Op)
	}
	if got := rec.Count("line"); got != 2 {
		t.Errorf("lines = %d, want 2", got)
	}
	if got := rec.Count("circle"); got != 3 {
		t.Errorf("circles = %d, want 3", got)
	}
	if got := rec.Count("text"); got != 3 {
		t.Errorf("labels = %d, want 3", got)
	}
	if got := rec.Count("dashed"); got != 1 {
		t.Errorf("dashed = %d, want 1", got)
	}
}

func TestDraw_LabelsHiddenWhenZoomedOut(t *testing.T) {
	f := NewFrame(testSim(t), interaction.Overlay{
		View:    interaction.View{X: 400, Y: 300, K: 0.5},
		Hovered: "b.md",
	})
	var rec Recorder
	NewRenderer().Draw(&rec, f)

	if got := rec.Count("text"); got != 1 {
		t.Fatalf("labels = %d, want only the hovered one", got)
	}
	for _, op := range rec.Ops {
		if op.Op == "text" && op.Text != "Beta" {
			t.Errorf("label %q drawn below label zoom", op.Text)
		}
	}
}

func TestDraw_Styles(t *testing.T) {
	sim := testSim(t)
	sim.Pin(0, 0, 0)
	f := NewFrame(sim, interaction.Overlay{View: interaction.View{K: 1}, Hovered: "b.md"})
	var rec Recorder
	NewRenderer().Draw(&rec, f)

	var circles []Op
	for _, op := range rec.Ops {
		if op.Op == "circle" {
			circles = append(circles, op)
		}
	}
	if circles[0].Style.Stroke != DefaultTheme.PinnedStroke {
		t.Errorf("pinned node stroke = %q", circles[0].Style.Stroke)
	}
	if circles[1].Style.Fill != DefaultTheme.Hovered {
		t.Errorf("hovered node fill = %q", circles[1].Style.Fill)
	}
	if circles[2].Style.Fill != DefaultTheme.Tag {
		t.Errorf("tag node fill = %q", circles[2].Style.Fill)
	}
}

func TestRecorder_ClearStartsNewRecording(t *testing.T) {
	var rec Recorder
	rec.Clear(10, 10)
	rec.Circle(1, 1, 1, Style{Fill: "red"})
	first := rec.Ops

	rec.Clear(10, 10)
	if len(rec.Ops) != 1 || len(first) != 2 || first[1].Op != "circle" {
		t.Errorf("recordings overlap: first = %+v, current = %+v", first, rec.Ops)
	}

	b, err := json.Marshal(&rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"op":"clear"`) {
		t.Errorf("json = %s", b)
	}
}

func TestToDOT(t *testing.T) {
	f := NewFrame(testSim(t), interaction.Overlay{View: interaction.View{K: 1}})
	dot := ToDOT(f)

	for _, want := range []string{
		"graph G {",
		"layout=neato",
		`"a.md" [pos="0.00,0.00!"`,
		`"b.md" [pos="100.00,0.00!"`,
		`"tag:go" [pos="0.00,-100.00!"`,
		`"a.md" -- "b.md";`,
		`"a.md" -- "tag:go" [color=`,
		`xlabel="Alpha"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	f := NewFrame(testSim(t), interaction.Overlay{View: interaction.View{K: 1}})
	svg, err := RenderSVG(context.Background(), ToDOT(f))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("not an svg document: %.200s", svg)
	}
}
