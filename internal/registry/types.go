package registry

import "github.com/mattsondev/taskgraph/internal/graphmodel"

// AtomicManifest is the YAML sidecar format an atomic task's
// sourceLocation resolves to: the declared schema plus the name the
// task's compiled function is registered under in a FunctionTable. Go
// cannot import an arbitrary function from a file path at runtime, so
// the manifest's FunctionRef indirects through a FunctionTable of
// compiled functions (internal/tasklib.Functions builds one).
type AtomicManifest struct {
	Name        string            `yaml:"name"`
	FunctionRef string            `yaml:"functionRef"`
	Inputs      map[string]string `yaml:"inputs" validate:"dive,typetoken"`
	Output      string            `yaml:"output" validate:"typetoken"`
}

// FunctionTable maps a FunctionRef to its hydrated AtomicFunc. A table
// is handed to New, and every Registry resolves manifests' functionRefs
// through its own table; SourceLoaders never see it.
type FunctionTable map[string]graphmodel.AtomicFunc

// SourceLoader resolves a task's sourceLocation into a fresh
// AtomicManifest, independent of where that location points (local
// file, git ref, ...).
type SourceLoader interface {
	Load(sourceLocation string) (AtomicManifest, error)
}
