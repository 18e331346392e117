package graphmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
)

func TestNode_SetInput_RejectsDoubleFill(t *testing.T) {
	task := newAtomic(t, "sink", map[string]string{"a": "int"}, "int", constFunc(0))
	n := graphmodel.NewNode("sink.1", "sink", task)

	assert.True(t, n.SetInput("a", graphmodel.InputLink{SourceNodeID: "src.1", SourceOutput: ""}))
	assert.False(t, n.SetInput("a", graphmodel.InputLink{SourceNodeID: "src.2", SourceOutput: ""}))
	assert.False(t, n.SetInput("missing", graphmodel.InputLink{}))
}

func TestNode_OutputLinks_AddRemovePrunesEmptyFanout(t *testing.T) {
	task := newAtomic(t, "five", nil, "int", constFunc(5))
	n := graphmodel.NewNode("five.1", "five", task)

	require.True(t, n.AddOutputLink(graphmodel.SentinelOutput, "sink.1", "a"))
	assert.Equal(t, 1, n.NLinksOut())

	require.True(t, n.RemoveOutputLink(graphmodel.SentinelOutput, "sink.1", "a"))
	assert.Equal(t, 0, n.NLinksOut())
	_, present := n.Outputs()[graphmodel.SentinelOutput]["sink.1"]
	assert.False(t, present)
}

func TestNode_HasLinks(t *testing.T) {
	task := newAtomic(t, "five", nil, "int", constFunc(5))
	n := graphmodel.NewNode("five.1", "five", task)
	assert.False(t, n.HasLinks())

	n.AddOutputLink(graphmodel.SentinelOutput, "sink.1", "a")
	assert.True(t, n.HasLinks())
	assert.Equal(t, 1, n.NLinks())
}

func TestNextNodeID_MonotonicAndUnique(t *testing.T) {
	a := graphmodel.NextNodeID("task")
	b := graphmodel.NextNodeID("task")
	assert.NotEqual(t, a, b)
}
