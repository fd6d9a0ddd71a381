package diagram_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjansen/bpmn-to-image/internal/diagram"
)

func TestBuilderAttributes(t *testing.T) {
	require := require.New(t)

	b := diagram.NewBuilder(diagram.Options{
		Title:  "Order Process",
		Footer: "order.bpmn",
		Scale:  2,
	})
	out := b.Graph().String()

	require.Contains(out, `label="Order Process"`)
	require.Contains(out, `label="order.bpmn"`)
	require.Contains(out, `dpi="192"`)
	require.Contains(out, `rankdir="LR"`)
}

func TestBuilderWithoutTitleOrFooter(t *testing.T) {
	require := require.New(t)

	b := diagram.NewBuilder(diagram.Options{TopDown: true})
	out := b.Graph().String()

	require.Same(b.Graph(), b.Content())
	require.NotContains(out, "labelloc")
	require.Contains(out, `dpi="96"`)
	require.Contains(out, `rankdir="TB"`)
}

func TestBuilderMemoizesNodesAndEdges(t *testing.T) {
	require := require.New(t)

	b := diagram.NewBuilder(diagram.Options{})
	lane := b.Cluster(b.Content(), "cluster_p1", "Process")
	require.Same(lane, b.Cluster(b.Content(), "cluster_p1", "ignored"))

	_, created := b.Node(lane, "start", "Start")
	require.True(created)
	_, created = b.Node(lane, "start", "Again")
	require.False(created)
	b.Node(lane, "end", "End")

	_, ok := b.Edge("start", "end")
	require.True(ok)
	_, ok = b.Edge("start", "end")
	require.False(ok)
	_, ok = b.Edge("start", "missing")
	require.False(ok)

	out := b.Graph().String()
	require.Equal(1, strings.Count(out, "->"))
	require.Equal(2, strings.Count(out, "fontsize=\"11\""))
	require.Contains(out, `label="Start"`)
	require.NotContains(out, `label="Again"`)
}
