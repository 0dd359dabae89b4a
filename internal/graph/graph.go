// Package graph builds the typed note/tag graph from parsed documents and
// derives per-node structural metrics (degree, clustering coefficient, mass).
//
// Nodes live in an arena slice; edges refer to nodes by index. IDs are resolved
// through Graph.Index, so the structure has no pointer cycles and can be copied
// or serialized as-is.
package graph

import (
	"slices"
	"strings"

	"github.com/starford/linkgraph/internal/models"
	"github.com/starford/linkgraph/internal/parser"
)

// NodeType distinguishes note nodes from tag nodes.
type NodeType string

// Node types.
const (
	NodeNote NodeType = "note"
	NodeTag  NodeType = "tag"
)

// EdgeKind is the origin of an edge.
type EdgeKind string

// Edge kinds.
const (
	EdgeReference     EdgeKind = "reference"
	EdgeTagMembership EdgeKind = "tag-membership"
)

const tagPrefix = "tag:"

// Node is one vertex of the graph with its derived metrics.
type Node struct {
	ID         string   `json:"id"`
	Path       string   `json:"path,omitempty"`
	Title      string   `json:"title"`
	Type       NodeType `json:"type"`
	Tags       []string `json:"tags,omitempty"`
	Degree     int      `json:"degree"`
	Clustering float64  `json:"clustering"`
	Mass       float64  `json:"mass"`
}

// IsTag reports whether n represents a tag.
func (n *Node) IsTag() bool { return n.Type == NodeTag }

// Edge joins two nodes by arena index. It is directional on creation but
// treated as undirected by metrics and layout.
type Edge struct {
	Source int      `json:"source"`
	Target int      `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Options are the display settings that change graph shape.
type Options struct {
	ShowTags bool
}

// Graph is an immutable build result.
type Graph struct {
	Nodes []Node
	Edges []Edge

	index     map[string]int
	neighbors [][]int
}

// TagID returns the node id used for tag name.
func TagID(name string) string { return tagPrefix + name }

// Build creates the graph for docs. Note nodes are ordered by ascending path and
// tag nodes by ascending name, so the result is deterministic and duplicate
// titles resolve to the lexicographically first path.
func Build(docs map[string]*models.Document, opts Options) *Graph {
	paths := make([]string, 0, len(docs))
	for p := range docs {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	g := &Graph{
		Nodes: make([]Node, 0, len(paths)),
		index: make(map[string]int, len(paths)),
	}

	byTitle := make(map[string]int)
	byStem := make(map[string]int)
	for _, p := range paths {
		d := docs[p]
		i := g.addNode(Node{
			ID:    p,
			Path:  p,
			Title: d.Title,
			Type:  NodeNote,
			Tags:  slices.Clone(d.Tags),
		})
		if _, ok := byTitle[d.Title]; !ok {
			byTitle[d.Title] = i
		}
		stem := parser.FileStem(p)
		if _, ok := byStem[stem]; !ok {
			byStem[stem] = i
		}
	}

	type edgeKey struct {
		s, t int
		k    EdgeKind
	}
	seen := make(map[edgeKey]struct{})
	addEdge := func(s, t int, k EdgeKind) {
		key := edgeKey{s, t, k}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		g.Edges = append(g.Edges, Edge{Source: s, Target: t, Kind: k})
	}

	if opts.ShowTags {
		distinct := make(map[string]struct{})
		for _, p := range paths {
			for _, tag := range docs[p].Tags {
				distinct[tag] = struct{}{}
			}
		}
		names := make([]string, 0, len(distinct))
		for name := range distinct {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			g.addNode(Node{ID: TagID(name), Title: name, Type: NodeTag})
		}
		for si, p := range paths {
			for _, tag := range docs[p].Tags {
				addEdge(si, g.index[TagID(tag)], EdgeTagMembership)
			}
		}
	}

	for si, p := range paths {
		for _, ref := range docs[p].References {
			ti, ok := resolve(ref.Target, byTitle, byStem)
			if !ok || ti == si {
				continue
			}
			addEdge(si, ti, EdgeReference)
		}
	}

	g.computeMetrics()
	return g
}

// resolve picks the earliest node whose title or filename stem equals name.
func resolve(name string, byTitle, byStem map[string]int) (int, bool) {
	ti, okT := byTitle[name]
	si, okS := byStem[name]
	switch {
	case okT && okS:
		return min(ti, si), true
	case okT:
		return ti, true
	case okS:
		return si, true
	}
	return 0, false
}

func (g *Graph) addNode(n Node) int {
	i := len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	g.index[n.ID] = i
	return i
}

func (g *Graph) computeMetrics() {
	n := len(g.Nodes)
	adj := make([]map[int]struct{}, n)
	for i := range adj {
		adj[i] = make(map[int]struct{})
	}
	incoming := make([]int, n)

	for _, e := range g.Edges {
		g.Nodes[e.Source].Degree++
		g.Nodes[e.Target].Degree++
		adj[e.Source][e.Target] = struct{}{}
		adj[e.Target][e.Source] = struct{}{}

		target := &g.Nodes[e.Target]
		switch {
		case target.IsTag() && e.Kind == EdgeTagMembership:
			incoming[e.Target]++
		case !target.IsTag() && e.Kind == EdgeReference:
			incoming[e.Target]++
		}
	}

	g.neighbors = make([][]int, n)
	for i := range g.Nodes {
		nb := make([]int, 0, len(adj[i]))
		for j := range adj[i] {
			nb = append(nb, j)
		}
		slices.Sort(nb)
		g.neighbors[i] = nb

		node := &g.Nodes[i]
		node.Clustering = clustering(nb, adj)
		if node.IsTag() {
			node.Mass = 2 + 0.5*float64(incoming[i])
		} else {
			node.Mass = 1 + 0.8*float64(incoming[i]) + 3*node.Clustering
		}
	}
}

// clustering is the local clustering coefficient over the undirected,
// de-duplicated neighbor set nb.
func clustering(nb []int, adj []map[int]struct{}) float64 {
	k := len(nb)
	if k < 2 {
		return 0
	}
	links := 0
	for a := 0; a < k; a++ {
		for b := a + 1; b < k; b++ {
			if _, ok := adj[nb[a]][nb[b]]; ok {
				links++
			}
		}
	}
	return float64(links) / (float64(k*(k-1)) / 2)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.Nodes) }

// Index returns the arena index of the node with id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Node returns the node with id.
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// Neighbors returns the sorted, de-duplicated undirected neighbors of node i.
func (g *Graph) Neighbors(i int) []int { return g.neighbors[i] }

// IncidentEdges counts edges touching node i, counting parallel edges separately.
func (g *Graph) IncidentEdges(i int) int {
	c := 0
	for _, e := range g.Edges {
		if e.Source == i || e.Target == i {
			c++
		}
	}
	return c
}

// Incoming counts edges of kind that target node i.
func (g *Graph) Incoming(i int, kind EdgeKind) int {
	c := 0
	for _, e := range g.Edges {
		if e.Target == i && e.Kind == kind {
			c++
		}
	}
	return c
}

// Stats summarises a graph.
type Stats struct {
	Notes          int `json:"notes"`
	Tags           int `json:"tags"`
	ReferenceEdges int `json:"reference_edges"`
	TagEdges       int `json:"tag_edges"`
	Isolated       int `json:"isolated"`
}

// Stats counts nodes and edges by kind.
func (g *Graph) Stats() Stats {
	var s Stats
	for _, n := range g.Nodes {
		if n.IsTag() {
			s.Tags++
		} else {
			s.Notes++
		}
		if n.Degree == 0 {
			s.Isolated++
		}
	}
	for _, e := range g.Edges {
		if e.Kind == EdgeReference {
			s.ReferenceEdges++
		} else {
			s.TagEdges++
		}
	}
	return s
}

// Backlinks lists the documents that reference node n by title or filename,
// one entry per source, sorted by descending source path. Tag nodes have none.
func Backlinks(docs map[string]*models.Document, n Node) []models.Backlink {
	out := []models.Backlink{}
	if n.IsTag() {
		return out
	}
	stem := parser.FileStem(n.Path)
	for p, d := range docs {
		if p == n.Path {
			continue
		}
		ref, ok := d.ReferenceTo(n.Title, stem)
		if !ok {
			continue
		}
		out = append(out, models.Backlink{
			SourcePath:  p,
			SourceTitle: d.Title,
			Context:     ref.Context,
		})
	}
	slices.SortFunc(out, func(a, b models.Backlink) int {
		return strings.Compare(b.SourcePath, a.SourcePath)
	})
	return out
}
