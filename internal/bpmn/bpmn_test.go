package bpmn_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjansen/bpmn-to-image/internal/bpmn"
	"github.com/sjansen/bpmn-to-image/internal/diagram"
)

func TestParseFile(t *testing.T) {
	require := require.New(t)

	defs, err := bpmn.ParseFile("testdata/order.bpmn")
	require.NoError(err)
	require.Len(defs.Processes, 1)
	require.Len(defs.Collaborations, 1)

	c := defs.Collaborations[0]
	require.Len(c.Participants, 2)
	require.Equal("Process_Order", c.Participants[0].ProcessRef)
	require.Empty(c.Participants[1].ProcessRef)
	require.Len(c.MessageFlows, 1)
	require.Equal(bpmn.MessageFlow, c.MessageFlows[0].Kind())

	byID := make(map[string]bpmn.Element)
	for _, e := range defs.Processes[0].Elements {
		byID[e.ID] = e
	}
	require.Equal(bpmn.StartEvent, byID["Start"].Kind())
	require.Equal("message", byID["Start"].EventDefinition())
	require.Equal(bpmn.Task, byID["Task_Check"].Kind())
	require.Equal("userTask", byID["Task_Check"].Type())
	require.Equal(bpmn.Gateway, byID["Gateway_OK"].Kind())
	require.Equal(bpmn.BoundaryEvent, byID["Timer_Late"].Kind())
	require.Equal("Task_Check", byID["Timer_Late"].AttachedToRef)
	require.Equal(bpmn.SubProcess, byID["Sub_Ship"].Kind())
	require.Len(byID["Sub_Ship"].Elements, 5)
	require.Equal(bpmn.DataStore, byID["Store_Orders"].Kind())
	require.Equal("", byID["End_Done"].EventDefinition())
}

func TestParseRejectsFilesWithoutProcess(t *testing.T) {
	require := require.New(t)

	_, err := bpmn.Parse(strings.NewReader(`<definitions id="empty"/>`))
	require.ErrorIs(err, bpmn.ErrNoProcess)

	_, err = bpmn.Parse(strings.NewReader(`<definitions`))
	require.Error(err)
}

func TestParseFileMissing(t *testing.T) {
	_, err := bpmn.ParseFile("testdata/missing.bpmn")
	require.Error(t, err)
}

func TestTitle(t *testing.T) {
	require := require.New(t)

	defs, err := bpmn.ParseFile("testdata/order.bpmn")
	require.NoError(err)
	// two pools carry names, so nothing stands out
	require.Equal("order", defs.Title("order"))

	defs.Collaborations[0].Participants[1].Name = ""
	require.Equal("Shop", defs.Title("order"))

	defs.Name = "Ordering"
	require.Equal("Ordering", defs.Title("order"))

	simple, err := bpmn.ParseFile("testdata/simple.bpmn")
	require.NoError(err)
	require.Equal("simple", simple.Title("simple"))
}

func TestGraph(t *testing.T) {
	require := require.New(t)

	defs, err := bpmn.ParseFile("testdata/order.bpmn")
	require.NoError(err)

	out := bpmn.Graph(defs, diagram.Options{Title: "Order"}).String()

	// pools become clusters
	require.Contains(out, `label="Shop"`)
	require.Contains(out, `label="Customer"`)
	// tasks, gateways and events are styled by kind
	require.Contains(out, "<user>")
	require.Contains(out, `shape="diamond"`)
	require.Contains(out, `xlabel="Order valid?"`)
	require.Contains(out, `shape="cylinder"`)
	require.Contains(out, `label="Orders arrive by mail"`)
	// sequence flow labels survive
	require.Contains(out, `label="yes"`)
	require.Contains(out, `label="confirmation"`)
	// 8 sequence flows, 1 message flow, 1 association,
	// 1 boundary attachment and 1 sub-process link
	require.Equal(12, strings.Count(out, "->"))
}

func TestGraphSimpleProcessHasNoCluster(t *testing.T) {
	require := require.New(t)

	defs, err := bpmn.ParseFile("testdata/simple.bpmn")
	require.NoError(err)

	out := bpmn.Graph(defs, diagram.Options{}).String()
	require.NotContains(out, "cluster")
	require.Equal(2, strings.Count(out, "->"))
}
