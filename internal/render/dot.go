package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/starford/linkgraph/internal/graph"
)

// ToDOT converts a frame to Graphviz DOT source for the neato engine. Node
// positions are pinned to the simulated layout, so Graphviz only draws.
func ToDOT(f *Frame) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  notranslate=false;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, label=\"\", penwidth=0];\n")
	buf.WriteString("  edge [color=\"" + DefaultTheme.ReferenceEdge + "\"];\n")
	buf.WriteString("\n")

	for _, n := range f.Nodes {
		fill := DefaultTheme.Note
		if n.Type == graph.NodeTag {
			fill = DefaultTheme.Tag
		}
		// Graphviz y grows upwards.
		y := -n.Y
		if y == 0 {
			y = 0 // no "-0.00"
		}
		attrs := []string{
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.X, y),
			fmt.Sprintf("width=%.3f", 2*NodeRadius(n.Mass)/72),
			fmt.Sprintf("fillcolor=%q", fill),
			fmt.Sprintf("xlabel=%q", n.Title),
			fmt.Sprintf("tooltip=%q", n.ID),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range f.Edges {
		attrs := ""
		if e.Kind == graph.EdgeTagMembership {
			attrs = fmt.Sprintf(" [color=%q, style=dashed]", DefaultTheme.TagEdge)
		}
		fmt.Fprintf(&buf, "  %q -- %q%s;\n", f.Nodes[e.Source].ID, f.Nodes[e.Target].ID, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders DOT source produced by ToDOT to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("render: init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("render: parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: svg: %w", err)
	}
	return buf.Bytes(), nil
}
