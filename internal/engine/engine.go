// Package engine wires the validator, planner and a selected executor
// into the SubgraphRunner every graphmodel.CompositeTask needs to
// satisfy Task.Run. It is the one place that imports internal/validate,
// internal/plan and internal/exec together, keeping graphmodel itself
// free of any of their dependencies. The Engine itself carries the
// executor selection every bound runner closes over.
package engine

import (
	"github.com/mattsondev/taskgraph/internal/exec"
	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/internal/logging"
	"github.com/mattsondev/taskgraph/internal/plan"
	"github.com/mattsondev/taskgraph/internal/validate"
)

// Engine binds CompositeTasks to a concrete validate+plan+execute
// pipeline.
type Engine struct {
	useParallel bool
	parallel    *exec.ParallelExecutor
	log         *logging.Logger
}

// New constructs an Engine. When useParallel is true, workerCount
// goroutines are started immediately to back every Run call made
// through this Engine.
func New(useParallel bool, workerCount int, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewLogger(nil, "engine")
	}
	e := &Engine{useParallel: useParallel, log: log}
	if useParallel {
		e.parallel = exec.NewParallelExecutor(workerCount)
		e.parallel.Start()
	}
	return e
}

// Bind installs this Engine's runner on c and, recursively, on every
// nested CompositeTask reachable from c's children — running a
// composite node inside a larger graph transparently uses the same
// executor selection.
func (e *Engine) Bind(c *graphmodel.CompositeTask) {
	c.SetRunner(e.run)
	for _, t := range c.Tasks() {
		if nested, ok := t.(*graphmodel.CompositeTask); ok {
			e.Bind(nested)
		}
	}
}

// Close stops the parallel pool, if one is running. Safe to call on an
// Engine that never started one.
func (e *Engine) Close() {
	if e.parallel != nil {
		e.parallel.Kill()
	}
}

func (e *Engine) run(c *graphmodel.CompositeTask, values map[string]interface{}) (map[string]interface{}, error) {
	if !c.Validated() {
		if err := validate.Subgraph(c); err != nil {
			return nil, err
		}
	}
	p, err := plan.Generate(c)
	if err != nil {
		return nil, err
	}

	if e.useParallel {
		out, err := e.parallel.Run(c, p, values)
		if err != nil {
			e.log.Error("parallel run failed", map[string]interface{}{"subgraph": c.Name(), "error": err.Error()})
		}
		return out, err
	}

	out, err := exec.RunSequential(c, p, values)
	if err != nil {
		e.log.Error("sequential run failed", map[string]interface{}{"subgraph": c.Name(), "error": err.Error()})
	}
	return out, err
}
