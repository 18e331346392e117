package exec

import (
	"sync"
	"sync/atomic"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/internal/plan"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// job is one node run submitted to a worker.
type job struct {
	RunID  uint64
	NodeID string
	Task   graphmodel.Task
	Values map[string]interface{}
}

// result is a completed job reported back to the scheduler.
type result struct {
	RunID  uint64
	NodeID string
	Output map[string]interface{}
	Err    error
}

// runState is the per-Run bookkeeping the scheduler goroutine owns
// while a Run call is in flight: the same ready-queue/pendingInputs
// /waitingDeps/dependents shape RunSequential uses, but mutated from
// the scheduler goroutine instead of the caller's.
type runState struct {
	nodes         map[string]*graphmodel.Node
	pendingInputs map[string]map[string]interface{}
	waitingDeps   map[string]map[string]bool
	dependents    map[string][]string
	results       map[string]map[string]interface{}
	remaining     int
	finished      chan struct{}
	closeOnce     sync.Once
	err           error
}

func (rs *runState) finish() {
	rs.closeOnce.Do(func() { close(rs.finished) })
}

// ParallelExecutor is a fixed-size worker pool shared across
// concurrent Run calls, fed by a single scheduler goroutine: a
// scheduler, a fixed pool of workers, and a per-Run waiter, built on
// Go channels and a mutex-guarded map of in-flight runs.
type ParallelExecutor struct {
	mu          sync.Mutex
	workerCount int
	started     bool
	nextRunID   uint64

	toDo chan job
	done chan result
	quit chan struct{}

	runs map[uint64]*runState

	workersWG sync.WaitGroup
	schedWG   sync.WaitGroup
}

// NewParallelExecutor constructs a pool with the given worker count.
// Call Start before Run.
func NewParallelExecutor(workerCount int) *ParallelExecutor {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &ParallelExecutor{workerCount: workerCount}
}

// Start spawns the worker and scheduler goroutines. Idempotent.
func (e *ParallelExecutor) Start() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.toDo = make(chan job, 256)
	e.done = make(chan result, 256)
	e.quit = make(chan struct{})
	e.runs = make(map[uint64]*runState)
	e.mu.Unlock()

	for i := 0; i < e.workerCount; i++ {
		e.workersWG.Add(1)
		go e.work()
	}
	e.schedWG.Add(1)
	go e.schedule()
}

// Kill stops all workers and the scheduler, discarding any in-flight
// runs. Idempotent.
func (e *ParallelExecutor) Kill() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	close(e.quit)
	e.mu.Unlock()

	e.workersWG.Wait()
	e.schedWG.Wait()
}

// Reset kills and restarts the pool: drain the queues, join the
// workers and scheduler, then spin up fresh ones.
func (e *ParallelExecutor) Reset() {
	e.Kill()
	e.Start()
}

func (e *ParallelExecutor) work() {
	defer e.workersWG.Done()
	for {
		select {
		case <-e.quit:
			return
		case j, ok := <-e.toDo:
			if !ok {
				return
			}
			out, err := j.Task.Run(j.Values)
			select {
			case e.done <- result{RunID: j.RunID, NodeID: j.NodeID, Output: out, Err: err}:
			case <-e.quit:
				return
			}
		}
	}
}

func (e *ParallelExecutor) schedule() {
	defer e.schedWG.Done()
	for {
		select {
		case <-e.quit:
			e.mu.Lock()
			for _, rs := range e.runs {
				select {
				case <-rs.finished:
					// already completed; leave its result alone.
				default:
					rs.err = &taskerrors.AlreadyDisposed{}
					rs.finish()
				}
			}
			e.mu.Unlock()
			return
		case r, ok := <-e.done:
			if !ok {
				return
			}
			e.mu.Lock()
			rs := e.runs[r.RunID]
			if rs == nil {
				e.mu.Unlock()
				continue
			}
			if r.Err != nil {
				rs.err = &taskerrors.TaskFailure{NodeID: r.NodeID, Inner: r.Err}
				rs.finish()
				e.mu.Unlock()
				continue
			}

			rs.results[r.NodeID] = r.Output
			if node := rs.nodes[r.NodeID]; node != nil && node.CacheLastResult {
				node.LastResult = r.Output
			}
			delete(rs.pendingInputs, r.NodeID)
			rs.remaining--

			node := rs.nodes[r.NodeID]
			for _, dependentID := range rs.dependents[r.NodeID] {
				for outputName, fanout := range node.Outputs() {
					for sinkID, sinkInputs := range fanout {
						if sinkID != dependentID {
							continue
						}
						for _, sinkInput := range sinkInputs {
							rs.pendingInputs[sinkID][sinkInput] = r.Output[outputName]
						}
					}
				}
				remaining := rs.waitingDeps[dependentID]
				delete(remaining, r.NodeID)
				if len(remaining) == 0 {
					delete(rs.waitingDeps, dependentID)
					e.dispatchLocked(r.RunID, dependentID, rs)
				}
			}

			if rs.remaining == 0 {
				rs.finish()
			}
			e.mu.Unlock()
		}
	}
}

// dispatchLocked submits nodeID for execution. Callers must hold e.mu.
// An atomic task's in-memory function handle is shed immediately
// before dispatch, so the worker that actually executes it must
// reload it from sourceLocation — simulating the function handle not
// surviving a cross-process hop.
func (e *ParallelExecutor) dispatchLocked(runID uint64, nodeID string, rs *runState) {
	node := rs.nodes[nodeID]
	if at, ok := node.Task.(*graphmodel.AtomicTask); ok {
		at.Shed()
	}
	j := job{RunID: runID, NodeID: nodeID, Task: node.Task, Values: rs.pendingInputs[nodeID]}
	go func() {
		select {
		case e.toDo <- j:
		case <-e.quit:
		}
	}()
}

// Run executes p against c using the pool and returns the subgraph's
// declared outputs.
func (e *ParallelExecutor) Run(c *graphmodel.CompositeTask, p *plan.Plan, declaredInputs map[string]interface{}) (map[string]interface{}, error) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil, &taskerrors.NotStarted{}
	}

	nodes := c.Nodes()
	rs := &runState{
		nodes:         make(map[string]*graphmodel.Node, len(p.Entries)),
		pendingInputs: make(map[string]map[string]interface{}, len(p.Entries)),
		waitingDeps:   make(map[string]map[string]bool, len(p.Entries)),
		dependents:    make(map[string][]string),
		results:       make(map[string]map[string]interface{}, len(p.Entries)),
		remaining:     len(p.Entries),
		finished:      make(chan struct{}),
	}
	for _, en := range p.Entries {
		rs.nodes[en.NodeID] = nodes[en.NodeID]
		rs.pendingInputs[en.NodeID] = make(map[string]interface{})
		if len(en.Deps) > 0 {
			set := make(map[string]bool, len(en.Deps))
			for _, d := range en.Deps {
				set[d] = true
				rs.dependents[d] = append(rs.dependents[d], en.NodeID)
			}
			rs.waitingDeps[en.NodeID] = set
		}
	}
	for declared, fanout := range c.InputMap() {
		value, ok := declaredInputs[declared]
		if !ok {
			e.mu.Unlock()
			return nil, &taskerrors.BadInputs{TaskName: c.Name(), Reason: "missing declared input \"" + declared + "\""}
		}
		for nodeID, names := range fanout {
			for _, name := range names {
				rs.pendingInputs[nodeID][name] = value
			}
		}
	}

	runID := atomic.AddUint64(&e.nextRunID, 1)
	e.runs[runID] = rs

	if rs.remaining == 0 {
		rs.finish()
	} else {
		for _, en := range p.Entries {
			if len(en.Deps) == 0 {
				e.dispatchLocked(runID, en.NodeID, rs)
			}
		}
	}
	e.mu.Unlock()

	<-rs.finished

	e.mu.Lock()
	delete(e.runs, runID)
	e.mu.Unlock()

	if rs.err != nil {
		return nil, rs.err
	}
	return projectOutputs(c, rs.results)
}
