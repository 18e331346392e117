// Package exec runs a planned subgraph: RunSequential drives it on the
// calling goroutine, ParallelExecutor dispatches node runs across a worker
// pool. Both share the same shape: a ready queue, per-node
// pending-input accumulation, and a dependency countdown
// (waitingDeps/dependents).
package exec

import (
	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/internal/plan"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// RunSequential executes p against c on the calling goroutine and
// returns the subgraph's declared outputs. c must already be validated
// and p must have been generated from c.
func RunSequential(c *graphmodel.CompositeTask, p *plan.Plan, declaredInputs map[string]interface{}) (map[string]interface{}, error) {
	nodes := c.Nodes()

	pendingInputs := make(map[string]map[string]interface{}, len(p.Entries))
	waitingDeps := make(map[string]map[string]bool, len(p.Entries))
	dependents := make(map[string][]string)

	for _, e := range p.Entries {
		pendingInputs[e.NodeID] = make(map[string]interface{})
		if len(e.Deps) > 0 {
			set := make(map[string]bool, len(e.Deps))
			for _, d := range e.Deps {
				set[d] = true
				dependents[d] = append(dependents[d], e.NodeID)
			}
			waitingDeps[e.NodeID] = set
		}
	}

	for declared, fanout := range c.InputMap() {
		value, ok := declaredInputs[declared]
		if !ok {
			return nil, &taskerrors.BadInputs{TaskName: c.Name(), Reason: "missing declared input \"" + declared + "\""}
		}
		for nodeID, names := range fanout {
			for _, name := range names {
				pendingInputs[nodeID][name] = value
			}
		}
	}

	var ready []string
	for _, e := range p.Entries {
		if len(e.Deps) == 0 {
			ready = append(ready, e.NodeID)
		}
	}

	results := make(map[string]map[string]interface{}, len(p.Entries))

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		node, ok := nodes[id]
		if !ok {
			return nil, &taskerrors.Internal{Reason: "planned node \"" + id + "\" missing from subgraph"}
		}

		out, err := node.Task.Run(pendingInputs[id])
		if err != nil {
			return nil, &taskerrors.TaskFailure{NodeID: id, Inner: err}
		}
		results[id] = out
		if node.CacheLastResult {
			node.LastResult = out
		}
		delete(pendingInputs, id)

		for _, dependentID := range dependents[id] {
			for outputName, fanout := range node.Outputs() {
				for sinkID, sinkInputs := range fanout {
					if sinkID != dependentID {
						continue
					}
					for _, sinkInput := range sinkInputs {
						pendingInputs[sinkID][sinkInput] = out[outputName]
					}
				}
			}
			remaining := waitingDeps[dependentID]
			delete(remaining, id)
			if len(remaining) == 0 {
				delete(waitingDeps, dependentID)
				ready = append(ready, dependentID)
			}
		}
	}

	return projectOutputs(c, results)
}

// projectOutputs reads the subgraph's declared outputs off the
// interior results map produced by either executor.
func projectOutputs(c *graphmodel.CompositeTask, results map[string]map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(c.Outputs()))
	for declared, ref := range c.OutputMap() {
		if ref == nil {
			continue
		}
		nodeResult, ok := results[ref.NodeID]
		if !ok {
			return nil, &taskerrors.Internal{Reason: "output \"" + declared + "\" references node \"" + ref.NodeID + "\" which never ran"}
		}
		out[declared] = nodeResult[ref.Output]
	}
	return out, nil
}
