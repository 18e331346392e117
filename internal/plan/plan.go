// Package plan turns a validated subgraph into the deterministic
// execution plan both executors consume: a flat node-insertion-order
// list rather than precomputed topological levels, since this
// engine's executors derive readiness dynamically from dependency
// counts.
package plan

import (
	"fmt"
	"strings"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// Entry is one planned node and the node ids it depends on.
type Entry struct {
	NodeID string
	Deps   []string
}

// Plan is the ordered list of Entry a subgraph plans down to. Order
// matches the subgraph's node-insertion order.
type Plan struct {
	Entries []Entry
}

// Generate builds a Plan from c, which must already be validated
// (c.Validated()) — callers run internal/validate.Subgraph first.
// Deps for a node are the source node ids of its filled input slots,
// deduplicated.
func Generate(c *graphmodel.CompositeTask) (*Plan, error) {
	if !c.Validated() {
		return nil, &taskerrors.Internal{Reason: "subgraph \"" + c.Name() + "\" must be validated before planning"}
	}
	if cached := c.CachedPlan(); cached != nil {
		if p, ok := cached.(*Plan); ok {
			return p, nil
		}
	}

	nodes := c.Nodes()
	order := c.NodeOrder()

	entries := make([]Entry, 0, len(order))
	for _, id := range order {
		node, ok := nodes[id]
		if !ok {
			continue
		}
		seen := make(map[string]bool)
		var deps []string
		for _, link := range node.Inputs() {
			if link == nil {
				continue
			}
			if seen[link.SourceNodeID] {
				continue
			}
			seen[link.SourceNodeID] = true
			deps = append(deps, link.SourceNodeID)
		}
		entries = append(entries, Entry{NodeID: id, Deps: deps})
	}

	p := &Plan{Entries: entries}
	c.SetCachedPlan(p)
	return p, nil
}

// String renders a human-readable summary, one line per entry.
func (p *Plan) String() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, e := range p.Entries {
		fmt.Fprintf(&b, "%s <- [%s]\n", e.NodeID, strings.Join(e.Deps, ", "))
	}
	return b.String()
}
