package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsondev/taskgraph/internal/engine"
	"github.com/mattsondev/taskgraph/internal/graphmodel"
)

func buildChain(t *testing.T) *graphmodel.CompositeTask {
	t.Helper()
	c := graphmodel.NewCompositeTask("chain", 1)
	require.NoError(t, c.AddDeclaredInput("x", "int"))
	require.NoError(t, c.AddDeclaredOutput("y", "int"))

	addOne := graphmodel.NewAtomicTask("addOne", "mem://addOne", map[string]string{"a": "int"}, "int", func(values map[string]interface{}) (interface{}, error) {
		return values["a"].(int) + 1, nil
	}, nil)
	require.NoError(t, c.AddTask("addOne", addOne))

	n, err := c.AddNode("addOne")
	require.NoError(t, err)
	require.NoError(t, c.AddInputMap("x", n, "a"))
	require.NoError(t, c.AddOutputMap("y", n, graphmodel.SentinelOutput))
	return c
}

func TestEngine_Bind_SequentialRun(t *testing.T) {
	c := buildChain(t)
	e := engine.New(false, 0, nil)
	defer e.Close()
	e.Bind(c)

	out, err := c.Run(map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 2, out["y"])
}

func TestEngine_Bind_ParallelRun(t *testing.T) {
	c := graphmodel.NewCompositeTask("chain", 1)
	require.NoError(t, c.AddDeclaredInput("x", "int"))
	require.NoError(t, c.AddDeclaredOutput("y", "int"))

	addOneFn := func(values map[string]interface{}) (interface{}, error) {
		return values["a"].(int) + 1, nil
	}
	addOneReload := func(sourceLocation, name string) (graphmodel.AtomicFunc, map[string]string, string, error) {
		return addOneFn, map[string]string{"a": "int"}, "int", nil
	}
	addOne := graphmodel.NewAtomicTask("addOne", "mem://addOne", map[string]string{"a": "int"}, "int", addOneFn, addOneReload)
	require.NoError(t, c.AddTask("addOne", addOne))
	n, err := c.AddNode("addOne")
	require.NoError(t, err)
	require.NoError(t, c.AddInputMap("x", n, "a"))
	require.NoError(t, c.AddOutputMap("y", n, graphmodel.SentinelOutput))

	e := engine.New(true, 2, nil)
	defer e.Close()
	e.Bind(c)

	out, err := c.Run(map[string]interface{}{"x": 9})
	require.NoError(t, err)
	assert.Equal(t, 10, out["y"])
}

func TestEngine_Bind_RecursesIntoNestedComposites(t *testing.T) {
	inner := buildChain(t)

	outer := graphmodel.NewCompositeTask("outer", 1)
	require.NoError(t, outer.AddDeclaredInput("x", "int"))
	require.NoError(t, outer.AddDeclaredOutput("y", "int"))
	require.NoError(t, outer.AddTask("inner", inner))

	n, err := outer.AddNode("inner")
	require.NoError(t, err)
	require.NoError(t, outer.AddInputMap("x", n, "x"))
	require.NoError(t, outer.AddOutputMap("y", n, "y"))

	e := engine.New(false, 0, nil)
	defer e.Close()
	e.Bind(outer)

	out, err := outer.Run(map[string]interface{}{"x": 4})
	require.NoError(t, err)
	assert.Equal(t, 5, out["y"])
}
