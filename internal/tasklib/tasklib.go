// Package tasklib provides a small set of example atomic tasks used by
// tests and the CLI's demo mode: get5/add15/minus, plus a sum2 for
// fan-in scenarios.
package tasklib

import (
	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/internal/registry"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

const (
	RefGet5  = "tasklib.get5"
	RefAdd15 = "tasklib.add15"
	RefMinus = "tasklib.minus"
	RefSum2  = "tasklib.sum2"
)

// Functions is the FunctionTable every built-in manifest's functionRef
// resolves against.
func Functions() registry.FunctionTable {
	return registry.FunctionTable{
		RefGet5:  get5,
		RefAdd15: add15,
		RefMinus: minus,
		RefSum2:  sum2,
	}
}

func get5(values map[string]interface{}) (interface{}, error) {
	return 5, nil
}

func add15(values map[string]interface{}) (interface{}, error) {
	a, err := intArg(values, "a")
	if err != nil {
		return nil, err
	}
	return a + 15, nil
}

func minus(values map[string]interface{}) (interface{}, error) {
	a, err := intArg(values, "a")
	if err != nil {
		return nil, err
	}
	b, err := intArg(values, "b")
	if err != nil {
		return nil, err
	}
	return a - b, nil
}

func sum2(values map[string]interface{}) (interface{}, error) {
	a, err := intArg(values, "a")
	if err != nil {
		return nil, err
	}
	b, err := intArg(values, "b")
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

func intArg(values map[string]interface{}, name string) (int, error) {
	raw, ok := values[name]
	if !ok {
		return 0, &taskerrors.MissingInput{NodeID: "", Inputs: []string{name}}
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, &taskerrors.TypeMismatch{Expected: "int", Actual: "other", Context: name}
	}
}

// NewAtomic constructs a ready-to-register *graphmodel.AtomicTask for
// one of this package's built-in functions, already hydrated (fn set)
// so callers in tests don't need a registry round-trip to use one.
func NewAtomic(name, sourceLocation, ref string, inputs map[string]string, output string) (*graphmodel.AtomicTask, error) {
	fn, ok := Functions()[ref]
	if !ok {
		return nil, &taskerrors.Unknown{Name: ref}
	}
	reload := func(sourceLocation, name string) (graphmodel.AtomicFunc, map[string]string, string, error) {
		return fn, inputs, output, nil
	}
	return graphmodel.NewAtomicTask(name, sourceLocation, inputs, output, fn, reload), nil
}
