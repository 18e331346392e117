package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/internal/plan"
	"github.com/mattsondev/taskgraph/internal/validate"
)

func taskWithInput(name string) *graphmodel.AtomicTask {
	return graphmodel.NewAtomicTask(name, "mem://"+name, map[string]string{"a": "int"}, "int", func(values map[string]interface{}) (interface{}, error) {
		return values["a"], nil
	}, nil)
}

func TestGenerate_RequiresValidation(t *testing.T) {
	c := graphmodel.NewCompositeTask("unvalidated", 1)
	_, err := plan.Generate(c)
	assert.Error(t, err)
}

func TestGenerate_DepsAndOrder(t *testing.T) {
	c := graphmodel.NewCompositeTask("chain", 1)
	require.NoError(t, c.AddDeclaredInput("x", "int"))
	require.NoError(t, c.AddDeclaredOutput("y", "int"))
	require.NoError(t, c.AddTask("a", taskWithInput("a")))
	require.NoError(t, c.AddTask("b", taskWithInput("b")))

	n1, err := c.AddNode("a")
	require.NoError(t, err)
	n2, err := c.AddNode("b")
	require.NoError(t, err)
	require.NoError(t, c.AddInputMap("x", n1, "a"))
	require.NoError(t, c.AddEdge(n1, graphmodel.SentinelOutput, n2, "a"))
	require.NoError(t, c.AddOutputMap("y", n2, graphmodel.SentinelOutput))

	require.NoError(t, validate.Subgraph(c))
	p, err := plan.Generate(c)
	require.NoError(t, err)
	require.Len(t, p.Entries, 2)

	assert.Equal(t, n1, p.Entries[0].NodeID)
	assert.Empty(t, p.Entries[0].Deps)
	assert.Equal(t, n2, p.Entries[1].NodeID)
	assert.Equal(t, []string{n1}, p.Entries[1].Deps)
}

func TestGenerate_CachesPlan(t *testing.T) {
	c := graphmodel.NewCompositeTask("cached", 1)
	require.NoError(t, c.AddTask("a", taskWithInput("a")))
	_, err := c.AddNode("a")
	require.NoError(t, err)
	require.NoError(t, validate.Subgraph(c))

	p1, err := plan.Generate(c)
	require.NoError(t, err)
	p2, err := plan.Generate(c)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}
