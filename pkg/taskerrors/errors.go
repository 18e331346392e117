// Package taskerrors defines the tagged error taxonomy used across the
// dataflow engine. Each variant is a distinct struct type implementing
// error (TaskFailure also implements Unwrap): callers switch on type via
// errors.As rather than on sentinel values or string matching.
package taskerrors

import "fmt"

// DuplicateName is returned when a name is already registered or already
// in use within a scope that requires uniqueness (Registry, Task map).
type DuplicateName struct {
	Name string
}

func (e *DuplicateName) Error() string {
	return fmt.Sprintf("duplicate name %q", e.Name)
}

// Unknown is returned when a name cannot be resolved.
type Unknown struct {
	Name string
}

func (e *Unknown) Error() string {
	return fmt.Sprintf("unknown name %q", e.Name)
}

// MissingInput is returned by the validator when an interior node input
// slot has no edge and no inputMap entry feeding it.
type MissingInput struct {
	NodeID string
	Inputs []string
}

func (e *MissingInput) Error() string {
	return fmt.Sprintf("node %q missing input(s) %v", e.NodeID, e.Inputs)
}

// Circular is returned by the validator when a cycle is detected.
type Circular struct {
	NodeID string
}

func (e *Circular) Error() string {
	return fmt.Sprintf("circular dependency detected at node %q", e.NodeID)
}

// TypeMismatch is returned when two type tokens that must agree do not.
type TypeMismatch struct {
	Expected string
	Actual   string
	Context  string
}

func (e *TypeMismatch) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("type mismatch in %s: expected %q, got %q", e.Context, e.Expected, e.Actual)
	}
	return fmt.Sprintf("type mismatch: expected %q, got %q", e.Expected, e.Actual)
}

// NodeInUse is returned when RemoveNode/RemoveTask is attempted on a
// node/task that is still referenced.
type NodeInUse struct {
	NodeID string
}

func (e *NodeInUse) Error() string {
	return fmt.Sprintf("node %q is still in use", e.NodeID)
}

// MappingInUse is returned when removing a declared input/output that is
// currently mapped to an interior slot.
type MappingInUse struct {
	Name string
}

func (e *MappingInUse) Error() string {
	return fmt.Sprintf("mapping %q is still in use", e.Name)
}

// BadType is returned when a value is not a recognizable type token.
type BadType struct {
	Value string
}

func (e *BadType) Error() string {
	return fmt.Sprintf("%q is not a recognized type token", e.Value)
}

// BadInputs is returned when declared inputs disagree with the
// underlying computation's parameter schema.
type BadInputs struct {
	TaskName string
	Reason   string
}

func (e *BadInputs) Error() string {
	return fmt.Sprintf("task %q has invalid input schema: %s", e.TaskName, e.Reason)
}

// UnsupportedVersion is returned when a serialized document's version
// exceeds the engine's supported schema version.
type UnsupportedVersion struct {
	Got, Max int
}

func (e *UnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported document version %d (max supported %d)", e.Got, e.Max)
}

// MalformedDocument is returned when a serialized document cannot be
// parsed or is structurally inconsistent.
type MalformedDocument struct {
	Reason string
}

func (e *MalformedDocument) Error() string {
	return fmt.Sprintf("malformed document: %s", e.Reason)
}

// UnsafeTypeToken is returned when a type token string contains
// characters outside the alphanumeric+'.' alphabet.
type UnsafeTypeToken struct {
	Value string
}

func (e *UnsafeTypeToken) Error() string {
	return fmt.Sprintf("unsafe type token %q", e.Value)
}

// TaskFailure wraps an error raised by an atomic task's underlying
// computation during Run.
type TaskFailure struct {
	NodeID string
	Inner  error
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("task failure at node %q: %v", e.NodeID, e.Inner)
}

func (e *TaskFailure) Unwrap() error { return e.Inner }

// Internal signals an invariant breach inside the planner or scheduler.
type Internal struct {
	Reason string
}

func (e *Internal) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Reason)
}

// AlreadyDisposed is returned to a Run that was still in flight when the
// executor was killed. A Run started after Kill gets NotStarted.
type AlreadyDisposed struct{}

func (e *AlreadyDisposed) Error() string { return "executor already disposed" }

// NotStarted is returned when an operation requires a started executor.
type NotStarted struct{}

func (e *NotStarted) Error() string { return "executor not started" }
