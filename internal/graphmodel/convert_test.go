package graphmodel_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
)

// buildSimpleSubgraph wires one atomic node: declared input "x" feeds
// node input "a", node's sentinel output feeds declared output "y".
func buildSimpleSubgraph(t *testing.T) *graphmodel.CompositeTask {
	t.Helper()
	c := graphmodel.NewCompositeTask("simple", 1)
	require.NoError(t, c.AddDeclaredInput("x", "int"))
	require.NoError(t, c.AddDeclaredOutput("y", "int"))

	task := newAtomic(t, "addOne", map[string]string{"a": "int"}, "int", func(values map[string]interface{}) (interface{}, error) {
		return values["a"].(int) + 1, nil
	})
	require.NoError(t, c.AddTask("addOne", task))

	nodeID, err := c.AddNode("addOne")
	require.NoError(t, err)
	require.NoError(t, c.AddInputMap("x", nodeID, "a"))
	require.NoError(t, c.AddOutputMap("y", nodeID, graphmodel.SentinelOutput))
	return c
}

func TestToDocument_FromDocument_RoundTrip(t *testing.T) {
	c := buildSimpleSubgraph(t)

	doc, err := c.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, "simple", doc.Name)
	assert.Equal(t, graphmodel.CurrentVersion, doc.Version)
	assert.Len(t, doc.Nodes, 1)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var reDoc graphmodel.Document
	require.NoError(t, json.Unmarshal(data, &reDoc))

	resolver := func(payload graphmodel.AtomicPayload) (graphmodel.Task, error) {
		return newAtomic(t, payload.Name, map[string]string{"a": "int"}, "int", func(values map[string]interface{}) (interface{}, error) {
			return values["a"].(int) + 1, nil
		}), nil
	}

	rebuilt, err := graphmodel.FromDocument(&reDoc, resolver, nil)
	require.NoError(t, err)
	assert.Equal(t, "simple", rebuilt.Name())
	assert.Len(t, rebuilt.Nodes(), 1)
	assert.Len(t, rebuilt.NodeOrder(), 1)

	for declared, ref := range rebuilt.OutputMap() {
		assert.Equal(t, "y", declared)
		require.NotNil(t, ref)
		_, ok := rebuilt.Nodes()[ref.NodeID]
		assert.True(t, ok)
	}
}

func TestFromDocument_RejectsNewerVersion(t *testing.T) {
	doc := &graphmodel.Document{
		Name:    "future",
		Version: graphmodel.CurrentVersion + 1,
		Input:   graphmodel.InputSpec{Objects: map[string]string{}, Mapping: map[string]map[string][]string{}},
		Output:  graphmodel.OutputSpec{Objects: map[string]string{}, Mapping: map[string]*[2]string{}},
		Tasks:   map[string]graphmodel.TaskEntry{},
		Nodes:   map[string]graphmodel.NodeEntry{},
	}
	_, err := graphmodel.FromDocument(doc, nil, nil)
	assert.Error(t, err)
}

func TestFromDocument_ResolvesCompositeFilepathStub(t *testing.T) {
	inner := buildSimpleSubgraph(t)
	innerDoc, err := inner.ToDocument()
	require.NoError(t, err)

	loader := func(path string) (*graphmodel.Document, error) {
		assert.Equal(t, "nested.json", path)
		return innerDoc, nil
	}

	stubPayload, err := json.Marshal(map[string]string{"filepath": "nested.json"})
	require.NoError(t, err)

	outer := &graphmodel.Document{
		Name:    "outer",
		Version: graphmodel.CurrentVersion,
		Input:   graphmodel.InputSpec{Objects: map[string]string{}, Mapping: map[string]map[string][]string{}},
		Output:  graphmodel.OutputSpec{Objects: map[string]string{}, Mapping: map[string]*[2]string{}},
		Tasks: map[string]graphmodel.TaskEntry{
			"nested": {Kind: graphmodel.TaskKindComposite, Payload: stubPayload},
		},
		Nodes: map[string]graphmodel.NodeEntry{},
	}

	resolver := func(payload graphmodel.AtomicPayload) (graphmodel.Task, error) {
		return newAtomic(t, payload.Name, map[string]string{"a": "int"}, "int", func(values map[string]interface{}) (interface{}, error) {
			return values["a"].(int) + 1, nil
		}), nil
	}

	rebuilt, err := graphmodel.FromDocument(outer, resolver, loader)
	require.NoError(t, err)
	assert.Equal(t, "outer", rebuilt.Name())

	nestedTask, ok := rebuilt.Tasks()["nested"]
	require.True(t, ok)
	nestedComposite, ok := nestedTask.(*graphmodel.CompositeTask)
	require.True(t, ok)
	assert.Equal(t, "simple", nestedComposite.Name())
}

func TestFromDocument_CompositeStubWithoutLoaderErrors(t *testing.T) {
	stubPayload, err := json.Marshal(map[string]string{"filepath": "nested.json"})
	require.NoError(t, err)

	outer := &graphmodel.Document{
		Name:    "outer",
		Version: graphmodel.CurrentVersion,
		Input:   graphmodel.InputSpec{Objects: map[string]string{}, Mapping: map[string]map[string][]string{}},
		Output:  graphmodel.OutputSpec{Objects: map[string]string{}, Mapping: map[string]*[2]string{}},
		Tasks: map[string]graphmodel.TaskEntry{
			"nested": {Kind: graphmodel.TaskKindComposite, Payload: stubPayload},
		},
		Nodes: map[string]graphmodel.NodeEntry{},
	}

	_, err = graphmodel.FromDocument(outer, nil, nil)
	assert.Error(t, err)
}
