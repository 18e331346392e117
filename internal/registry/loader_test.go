package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsondev/taskgraph/internal/registry"
)

func TestFileSourceLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: task\nfunctionRef: demo.five\ninputs:\n  a: int\noutput: int\n"), 0o644))

	m, err := registry.FileSourceLoader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "task", m.Name)
	assert.Equal(t, "demo.five", m.FunctionRef)
	assert.Equal(t, "int", m.Inputs["a"])
	assert.Equal(t, "int", m.Output)
}

func TestFileSourceLoader_MissingFile(t *testing.T) {
	_, err := registry.FileSourceLoader{}.Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestFileSourceLoader_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o644))

	_, err := registry.FileSourceLoader{}.Load(path)
	assert.Error(t, err)
}
