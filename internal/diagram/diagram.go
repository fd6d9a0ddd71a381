// Package diagram assembles Graphviz graphs for BPMN and DMN files. It
// takes care of the parts every diagram shares: the title, the footer,
// the output resolution and de-duplication of nodes and edges.
package diagram

import (
	"strconv"

	"github.com/emicklei/dot"
)

// BaseDPI is the resolution Graphviz assumes for a scale factor of 1.
const BaseDPI = 96

type Options struct {
	Title  string
	Footer string
	Scale  float64
	// TopDown lays ranks out vertically instead of left to right.
	TopDown bool
}

// Builder wraps a dot.Graph and remembers every node, edge and cluster it
// created so that diagram elements can be referenced by their own ids.
// Creation order and nesting are kept for the Mermaid writer.
type Builder struct {
	opts     Options
	root     *dot.Graph
	content  *dot.Graph
	clusters map[string]*dot.Graph
	nodes    map[string]dot.Node
	edges    map[string]dot.Edge

	order    []string
	parents  map[string]*dot.Graph
	sections []section
	links    []link
}

type section struct {
	key    string
	label  string
	graph  *dot.Graph
	parent *dot.Graph
}

type link struct {
	from, to string
	edge     dot.Edge
}

func NewBuilder(opts Options) *Builder {
	g := dot.NewGraph(dot.Directed)
	g.Attr("bgcolor", "white")
	g.Attr("fontname", "Helvetica")
	g.Attr("pad", "0.3")
	g.Attr("nodesep", "0.5")
	g.Attr("ranksep", "0.6")
	if opts.TopDown {
		g.Attr("rankdir", "TB")
	} else {
		g.Attr("rankdir", "LR")
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	g.Attr("dpi", strconv.FormatFloat(BaseDPI*scale, 'f', -1, 64))

	if opts.Title != "" {
		g.Attr("label", opts.Title)
		g.Attr("labelloc", "t")
		g.Attr("labeljust", "l")
		g.Attr("fontsize", "18")
	}

	content := g
	if opts.Footer != "" {
		content = g.Subgraph("footer", dot.ClusterOption{})
		content.Attr("label", opts.Footer)
		content.Attr("labelloc", "b")
		content.Attr("labeljust", "r")
		content.Attr("fontsize", "9")
		content.Attr("fontcolor", "gray40")
		content.Attr("pencolor", "transparent")
	}

	return &Builder{
		opts:     opts,
		root:     g,
		content:  content,
		clusters: make(map[string]*dot.Graph),
		nodes:    make(map[string]dot.Node),
		edges:    make(map[string]dot.Edge),
		parents:  make(map[string]*dot.Graph),
	}
}

// Content is the graph diagram elements belong in. It differs from the
// root graph when a footer is drawn.
func (b *Builder) Content() *dot.Graph {
	return b.content
}

// Cluster returns the cluster registered under key, creating it inside
// parent on first use.
func (b *Builder) Cluster(parent *dot.Graph, key, label string) *dot.Graph {
	if g, ok := b.clusters[key]; ok {
		return g
	}
	g := parent.Subgraph(key, dot.ClusterOption{})
	g.Attr("label", label)
	g.Attr("labeljust", "l")
	g.Attr("style", "rounded")
	g.Attr("color", "gray60")
	b.clusters[key] = g
	b.sections = append(b.sections, section{key: key, label: label, graph: g, parent: b.member(parent)})
	return g
}

// Node returns the node registered under id, creating it in g on first
// use. The boolean reports whether the node was created.
func (b *Builder) Node(g *dot.Graph, id, label string) (dot.Node, bool) {
	if n, ok := b.nodes[id]; ok {
		return n, false
	}
	n := g.Node(id).Label(label).
		Attr("fontname", "Helvetica").
		Attr("fontsize", "11")
	b.nodes[id] = n
	b.order = append(b.order, id)
	b.parents[id] = b.member(g)
	return n, true
}

// member maps the root graph onto the content graph, where everything
// visible lives once a footer is drawn.
func (b *Builder) member(g *dot.Graph) *dot.Graph {
	if g == b.root {
		return b.content
	}
	return g
}

// Edge connects two registered nodes. It reports false if either node is
// unknown or the edge already exists.
func (b *Builder) Edge(from, to string) (dot.Edge, bool) {
	n1, ok1 := b.nodes[from]
	n2, ok2 := b.nodes[to]
	if !ok1 || !ok2 {
		return dot.Edge{}, false
	}
	key := n1.ID() + "-" + n2.ID()
	if e, ok := b.edges[key]; ok {
		return e, false
	}
	e := b.root.Edge(n1, n2).
		Attr("fontname", "Helvetica").
		Attr("fontsize", "9")
	b.edges[key] = e
	b.links = append(b.links, link{from: from, to: to, edge: e})
	return e, true
}

func (b *Builder) Graph() *dot.Graph {
	return b.root
}

// Diagram is a finished drawing. It renders as Graphviz through the
// embedded graph and as a Mermaid flowchart through Mermaid.
type Diagram struct {
	*dot.Graph
	b *Builder
}

func (b *Builder) Diagram() *Diagram {
	return &Diagram{Graph: b.root, b: b}
}
