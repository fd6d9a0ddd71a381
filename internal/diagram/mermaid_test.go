package diagram_test

import (
	"strings"
	"testing"

	"github.com/emicklei/dot"
	"github.com/stretchr/testify/require"

	"github.com/sjansen/bpmn-to-image/internal/diagram"
)

func TestMermaid(t *testing.T) {
	require := require.New(t)

	// GIVEN a diagram with a footer, a cluster and styled nodes and edges
	b := diagram.NewBuilder(diagram.Options{Title: "Order", Footer: "order.bpmn"})
	pool := b.Cluster(b.Content(), "cluster_shop", "Shop")
	start, _ := b.Node(pool, "start", "M")
	start.Attr("shape", "circle").Attr("xlabel", "Order received")
	task, _ := b.Node(pool, "check", "<user>\nCheck \"order\"")
	task.Attr("shape", "box").Attr("style", "rounded")
	gate, _ := b.Node(b.Content(), "ok", "X")
	gate.Attr("shape", "diamond")
	b.Edge("start", "check")
	if e, ok := b.Edge("check", "ok"); ok {
		e.Dashed().Label("done")
	}
	if e, ok := b.Edge("ok", "start"); ok {
		e.Dotted().Attr("arrowhead", "none")
	}

	// WHEN it is written as Mermaid
	out := b.Diagram().Mermaid()

	// THEN every node is declared with its shape and text
	require.True(strings.HasPrefix(out, "---\ntitle: \"Order\"\n---\nflowchart LR\n"), out)
	require.Contains(out, `n0(("M<br/>Order received"))`)
	require.Contains(out, `n1("#lt;user#gt;<br/>Check #quot;order#quot;")`)
	require.Contains(out, `n2{"X"}`)
	// and the cluster becomes a subgraph while the footer does not
	require.Contains(out, `subgraph c0["Shop"]`)
	require.NotContains(out, "order.bpmn")
	// and edges keep their style
	require.Contains(out, "n0 --> n1")
	require.Contains(out, "n1 -.->|done| n2")
	require.Contains(out, "n2 -.- n0")
}

func TestMermaidTable(t *testing.T) {
	require := require.New(t)

	b := diagram.NewBuilder(diagram.Options{TopDown: true})
	n, _ := b.Node(b.Content(), "dish", "")
	n.Attr("shape", "plaintext").Attr("label", dot.HTML(
		`<TABLE><TR><TD><B>Dish</B></TD></TR>`+
			`<TR><TD>F</TD><TD>Season</TD></TR>`+
			`<TR><TD>1</TD><TD>&#34;Fall&#34;</TD><TD>&lt;= 8</TD></TR></TABLE>`,
	))

	out := b.Diagram().Mermaid()
	require.True(strings.HasPrefix(out, "flowchart TB\n"), out)
	require.Contains(out, `n0["Dish<br/>F | Season<br/>1 | #quot;Fall#quot; | #lt;= 8"]`)
}
