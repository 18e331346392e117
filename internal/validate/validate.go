// Package validate checks a subgraph's structural invariants before it
// is planned and executed: acyclicity of the edge graph, and
// completeness of every input slot feeding a declared output. The
// cycle check uses a standard DFS visiting/visited/stack shape over
// graphmodel node ids.
package validate

import (
	"sort"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// Subgraph checks c for cycles and input completeness, and marks c
// validated on success. Any structural mutation made after a
// successful call clears the flag again (CompositeTask.clearValidation).
func Subgraph(c *graphmodel.CompositeTask) error {
	if err := checkAcyclic(c); err != nil {
		return err
	}
	if err := checkInputsComplete(c); err != nil {
		return err
	}
	c.SetValidated(true)
	return nil
}

// checkAcyclic walks the node graph via its input links (a node's
// dependencies are the source nodes of its filled input slots) and
// fails on the first cycle found.
func checkAcyclic(c *graphmodel.CompositeTask) error {
	nodes := c.Nodes()

	deps := make(map[string][]string, len(nodes))
	for id, node := range nodes {
		var d []string
		for _, link := range node.Inputs() {
			if link != nil {
				d = append(d, link.SourceNodeID)
			}
		}
		deps[id] = d
	}

	visiting := make(map[string]bool, len(nodes))
	visited := make(map[string]bool, len(nodes))
	var stack []string
	var cycleNode string

	var dfs func(string) bool
	dfs = func(id string) bool {
		visiting[id] = true
		stack = append(stack, id)

		for _, dep := range deps[id] {
			if visited[dep] {
				continue
			}
			if visiting[dep] {
				cycleNode = dep
				return true
			}
			if dfs(dep) {
				return true
			}
		}

		visiting[id] = false
		visited[id] = true
		stack = stack[:len(stack)-1]
		return false
	}

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if visited[id] {
			continue
		}
		if dfs(id) {
			return &taskerrors.Circular{NodeID: cycleNode}
		}
	}
	return nil
}

// checkInputsComplete walks backward from every node that (transitively)
// feeds a declared output, and fails if any input slot on that
// reachable set is both unfilled by an edge and not covered by the
// subgraph's inputMap.
func checkInputsComplete(c *graphmodel.CompositeTask) error {
	nodes := c.Nodes()
	inputMap := c.InputMap()

	mappedSlots := make(map[string]map[string]bool) // nodeId -> inputName -> true
	for _, fanout := range inputMap {
		for nodeID, names := range fanout {
			set := mappedSlots[nodeID]
			if set == nil {
				set = make(map[string]bool)
				mappedSlots[nodeID] = set
			}
			for _, name := range names {
				set[name] = true
			}
		}
	}

	reachable := make(map[string]bool, len(nodes))
	var walk func(id string)
	walk = func(id string) {
		if reachable[id] {
			return
		}
		node, ok := nodes[id]
		if !ok {
			return
		}
		reachable[id] = true
		for _, link := range node.Inputs() {
			if link != nil {
				walk(link.SourceNodeID)
			}
		}
	}
	for _, ref := range c.OutputMap() {
		if ref != nil {
			walk(ref.NodeID)
		}
	}

	ids := make([]string, 0, len(reachable))
	for id := range reachable {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := nodes[id]
		var missing []string
		for name, link := range node.Inputs() {
			if link != nil {
				continue
			}
			if mappedSlots[id] != nil && mappedSlots[id][name] {
				continue
			}
			missing = append(missing, name)
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return &taskerrors.MissingInput{NodeID: id, Inputs: missing}
		}
	}
	return nil
}
