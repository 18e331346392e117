// Package registry implements the process-wide task registry: a
// singleton name -> Task table with mute/redirect escape hatches for
// test isolation, built on a mutex-guarded map.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/internal/logging"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// Registry is the process-wide task table. The zero value is not
// usable; construct with New.
type Registry struct {
	mu          sync.RWMutex
	tasks       map[string]graphmodel.Task
	redirect    map[string]graphmodel.Task
	muted       bool
	warnedNames bool

	loaders   map[string]SourceLoader // scheme -> loader, "" is the default
	functions FunctionTable
	log       *logging.Logger
}

// New constructs an empty Registry. loaders maps a sourceLocation
// scheme prefix ("git+", or "" for plain filesystem paths) to the
// SourceLoader responsible for it; functions is the process-wide
// FunctionRef -> AtomicFunc table a manifest's functionRef is resolved
// through.
func New(loaders map[string]SourceLoader, functions FunctionTable, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewLogger(nil, "registry")
	}
	return &Registry{
		tasks:     make(map[string]graphmodel.Task),
		loaders:   loaders,
		functions: functions,
		log:       log,
	}
}

var (
	defaultOnce sync.Once
	defaultInst *Registry
)

// Default returns the process-wide singleton Registry, constructing it
// with no loaders configured on first use. Callers that need source
// loading should construct their own Registry via New instead.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultInst = New(nil, nil, nil)
	})
	return defaultInst
}

// Register adds task under name to the registry (or the current
// redirect target, if one is set). Muted registries silently discard
// registrations, mirroring CrumbRepository.add_crumb's early return
// when collection is paused for an isolated test run.
func (r *Registry) Register(name string, task graphmodel.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.muted {
		return nil
	}

	target := r.tasks
	if r.redirect != nil {
		target = r.redirect
	}

	if _, exists := target[name]; exists {
		return &taskerrors.DuplicateName{Name: name}
	}
	target[name] = task
	return nil
}

// RegisterAnonymous registers task under a name derived from
// sourceLocation when the caller has none to give, warning once per
// Registry the first time this happens (Reset re-arms the warning).
func (r *Registry) RegisterAnonymous(sourceLocation string, task graphmodel.Task) (string, error) {
	r.mu.Lock()
	if !r.warnedNames {
		r.warnedNames = true
		r.log.Warn("task registered without an explicit name; deriving one from its source location", map[string]interface{}{
			"sourceLocation": sourceLocation,
		})
	}
	r.mu.Unlock()

	name := fmt.Sprintf("%s:%s", sourceLocation, task.Name())
	if err := r.Register(name, task); err != nil {
		return "", err
	}
	return name, nil
}

// Resolve looks a task up by name. When a redirect is active, only the
// redirect target is searched; the registry's own table is not.
func (r *Registry) Resolve(name string) (graphmodel.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.redirect != nil {
		if t, ok := r.redirect[name]; ok {
			return t, nil
		}
		return nil, &taskerrors.Unknown{Name: name}
	}
	if t, ok := r.tasks[name]; ok {
		return t, nil
	}
	return nil, &taskerrors.Unknown{Name: name}
}

// ResolveAtomic implements graphmodel.AtomicResolver: resolve by name
// if already registered with a matching source, otherwise load the
// manifest from sourceFile, hydrate a fresh AtomicTask, and register
// it.
func (r *Registry) ResolveAtomic(payload graphmodel.AtomicPayload) (graphmodel.Task, error) {
	if task, err := r.Resolve(payload.Name); err == nil {
		if at, ok := task.(*graphmodel.AtomicTask); ok && at.SourceLocation() == payload.SourceFile {
			return task, nil
		}
	}

	reload := r.reloaderFor(payload.SourceFile)
	fn, inputs, output, err := reload(payload.SourceFile, payload.Name)
	if err != nil {
		return nil, err
	}
	task := graphmodel.NewAtomicTask(payload.Name, payload.SourceFile, inputs, output, fn, reload)
	if err := r.Register(payload.Name, task); err != nil {
		// already present under this name from a concurrent load; prefer
		// the winner already sitting in the table.
		if existing, rerr := r.Resolve(payload.Name); rerr == nil {
			return existing, nil
		}
		return nil, err
	}
	return task, nil
}

// reloaderFor returns a graphmodel.Reloader closing over the
// FunctionTable-backed loader selected for sourceLocation's scheme.
func (r *Registry) reloaderFor(sourceLocation string) graphmodel.Reloader {
	return func(sourceLocation, name string) (graphmodel.AtomicFunc, map[string]string, string, error) {
		loader, err := r.loaderFor(sourceLocation)
		if err != nil {
			return nil, nil, "", err
		}
		manifest, err := loader.Load(sourceLocation)
		if err != nil {
			return nil, nil, "", err
		}
		fn, ok := r.functions[manifest.FunctionRef]
		if !ok {
			return nil, nil, "", &taskerrors.Internal{Reason: "function ref \"" + manifest.FunctionRef + "\" not registered in function table"}
		}
		return fn, manifest.Inputs, manifest.Output, nil
	}
}

func (r *Registry) loaderFor(sourceLocation string) (SourceLoader, error) {
	scheme := schemeOf(sourceLocation)
	if loader, ok := r.loaders[scheme]; ok {
		return loader, nil
	}
	if loader, ok := r.loaders[""]; ok {
		return loader, nil
	}
	return nil, &taskerrors.Internal{Reason: "no source loader configured for \"" + sourceLocation + "\""}
}

func schemeOf(sourceLocation string) string {
	const gitPrefix = "git+"
	if len(sourceLocation) >= len(gitPrefix) && sourceLocation[:len(gitPrefix)] == gitPrefix {
		return gitPrefix
	}
	return ""
}

// List returns every registered task name in sorted order, ignoring
// any active redirect.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears all registered tasks, the redirect target, the mute
// flag and the warned-names flag, restoring a freshly-constructed
// state.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = make(map[string]graphmodel.Task)
	r.redirect = nil
	r.muted = false
	r.warnedNames = false
}

// Mute stops Register from adding any further entries, without
// affecting already-registered tasks or Resolve.
func (r *Registry) Mute() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = true
}

// Unmute restores normal Register behavior.
func (r *Registry) Unmute() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = false
}

// Muted reports the current mute state.
func (r *Registry) Muted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.muted
}

// Redirect diverts all subsequent Register/Resolve calls to target
// instead of the registry's own table, letting a test run a block of
// task registrations into an isolated map. Passing nil restores normal
// behavior.
func (r *Registry) Redirect(target map[string]graphmodel.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirect = target
}

// CurrentRedirect returns the active redirect target, or nil if none.
func (r *Registry) CurrentRedirect() map[string]graphmodel.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.redirect
}
