package graphmodel

import (
	"sync"

	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// AtomicFunc is the hydrated form of an atomic task's computation: a
// pure function from named inputs to a single return value.
type AtomicFunc func(values map[string]interface{}) (interface{}, error)

// Reloader re-resolves an atomic task's function handle and declared
// schema from its source of truth. Supplied by the registry package
// (FileSourceLoader/GitSourceLoader + FunctionTable) at registration
// time so graphmodel itself never needs to know how source loading
// works.
type Reloader func(sourceLocation, name string) (fn AtomicFunc, inputs map[string]string, output string, err error)

// AtomicTask is a named, typed, pure computation: declared input
// schema, declared output type, invocation contract.
type AtomicTask struct {
	userSet

	mu             sync.RWMutex
	name           string
	sourceLocation string
	inputs         map[string]string
	output         string
	fn             AtomicFunc
	reload         Reloader
}

// NewAtomicTask constructs an AtomicTask. fn may be nil to construct a
// "dry" task whose function handle will be hydrated lazily by Run via
// Reload.
func NewAtomicTask(name, sourceLocation string, inputs map[string]string, output string, fn AtomicFunc, reload Reloader) *AtomicTask {
	cp := make(map[string]string, len(inputs))
	for k, v := range inputs {
		cp[k] = v
	}
	return &AtomicTask{
		userSet:        newUserSet(),
		name:           name,
		sourceLocation: sourceLocation,
		inputs:         cp,
		output:         output,
		fn:             fn,
		reload:         reload,
	}
}

func (a *AtomicTask) Name() string { return a.name }

// SourceLocation returns the path (or URI) to the source defining this
// task's computation, exactly as supplied to NewAtomicTask; it is not
// made absolute or normalized.
func (a *AtomicTask) SourceLocation() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sourceLocation
}

func (a *AtomicTask) Inputs() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cp := make(map[string]string, len(a.inputs))
	for k, v := range a.inputs {
		cp[k] = v
	}
	return cp
}

func (a *AtomicTask) Outputs() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return map[string]string{SentinelOutput: a.output}
}

// Hydrated reports whether the function handle is currently resident
// in memory (as opposed to shed prior to a worker dispatch).
func (a *AtomicTask) Hydrated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fn != nil
}

// Shed drops the in-memory function handle. Called by the parallel
// executor's submitter before putting a node on the work queue, so the
// worker that actually runs the task must reload it.
func (a *AtomicTask) Shed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fn = nil
}

// Run calls the underlying function with declared inputs mapped to
// named parameters and wraps the single returned value as
// {SentinelOutput: value}. If the function handle has been shed, Run
// first invokes Reload.
func (a *AtomicTask) Run(values map[string]interface{}) (map[string]interface{}, error) {
	a.mu.RLock()
	fn := a.fn
	a.mu.RUnlock()

	if fn == nil {
		if err := a.Reload(); err != nil {
			return nil, err
		}
		a.mu.RLock()
		fn = a.fn
		a.mu.RUnlock()
		if fn == nil {
			return nil, &taskerrors.Internal{Reason: "atomic task \"" + a.name + "\" has no hydrated function after reload"}
		}
	}

	out, err := fn(values)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{SentinelOutput: out}, nil
}

// Reload re-reads sourceLocation via the configured Reloader and
// replaces this task's fields, leaving any Registry's own bookkeeping
// untouched.
func (a *AtomicTask) Reload() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.reload == nil {
		return &taskerrors.Internal{Reason: "no reloader configured for task \"" + a.name + "\""}
	}
	fn, inputs, output, err := a.reload(a.sourceLocation, a.name)
	if err != nil {
		return err
	}
	a.fn = fn
	a.inputs = inputs
	a.output = output
	return nil
}

func (a *AtomicTask) AddUser(nodeID string)    { a.userSet.add(nodeID) }
func (a *AtomicTask) RemoveUser(nodeID string) { a.userSet.remove(nodeID) }
func (a *AtomicTask) InUse() bool              { return a.userSet.inUse() }

var _ Task = (*AtomicTask)(nil)
