package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/internal/validate"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

func constTask(name string, output string) *graphmodel.AtomicTask {
	return graphmodel.NewAtomicTask(name, "mem://"+name, nil, output, func(values map[string]interface{}) (interface{}, error) {
		return 0, nil
	}, nil)
}

func unaryTask(name string) *graphmodel.AtomicTask {
	return graphmodel.NewAtomicTask(name, "mem://"+name, map[string]string{"a": "int"}, "int", func(values map[string]interface{}) (interface{}, error) {
		return values["a"], nil
	}, nil)
}

func TestSubgraph_DetectsCycle(t *testing.T) {
	c := graphmodel.NewCompositeTask("cyclic", 1)
	require.NoError(t, c.AddTask("a", unaryTask("a")))
	require.NoError(t, c.AddTask("b", unaryTask("b")))

	n1, err := c.AddNode("a")
	require.NoError(t, err)
	n2, err := c.AddNode("b")
	require.NoError(t, err)

	require.NoError(t, c.AddEdge(n1, graphmodel.SentinelOutput, n2, "a"))
	require.NoError(t, c.AddEdge(n2, graphmodel.SentinelOutput, n1, "a"))

	err = validate.Subgraph(c)
	var circular *taskerrors.Circular
	assert.ErrorAs(t, err, &circular)
	assert.False(t, c.Validated())
}

func TestSubgraph_DetectsMissingInput(t *testing.T) {
	c := graphmodel.NewCompositeTask("incomplete", 1)
	require.NoError(t, c.AddDeclaredOutput("y", "int"))
	require.NoError(t, c.AddTask("a", unaryTask("a")))

	n1, err := c.AddNode("a")
	require.NoError(t, err)
	require.NoError(t, c.AddOutputMap("y", n1, graphmodel.SentinelOutput))

	err = validate.Subgraph(c)
	var missing *taskerrors.MissingInput
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"a"}, missing.Inputs)
}

func TestSubgraph_ValidPassesAndCaches(t *testing.T) {
	c := graphmodel.NewCompositeTask("valid", 1)
	require.NoError(t, c.AddDeclaredInput("x", "int"))
	require.NoError(t, c.AddDeclaredOutput("y", "int"))
	require.NoError(t, c.AddTask("a", unaryTask("a")))

	n1, err := c.AddNode("a")
	require.NoError(t, err)
	require.NoError(t, c.AddInputMap("x", n1, "a"))
	require.NoError(t, c.AddOutputMap("y", n1, graphmodel.SentinelOutput))

	require.NoError(t, validate.Subgraph(c))
	assert.True(t, c.Validated())
}

func TestSubgraph_UnreachableNodeDoesNotBlockValidation(t *testing.T) {
	c := graphmodel.NewCompositeTask("partial", 1)
	require.NoError(t, c.AddDeclaredOutput("y", "int"))
	require.NoError(t, c.AddTask("used", constTask("used", "int")))
	require.NoError(t, c.AddTask("unused", unaryTask("unused")))

	used, err := c.AddNode("used")
	require.NoError(t, err)
	_, err = c.AddNode("unused")
	require.NoError(t, err)
	require.NoError(t, c.AddOutputMap("y", used, graphmodel.SentinelOutput))

	// "unused" node has an unfilled required input "a" but is never
	// reachable from a declared output, so it must not fail validation.
	require.NoError(t, validate.Subgraph(c))
}
