package graphmodel

// InputLink identifies the source of a filled input slot.
type InputLink struct {
	SourceNodeID string
	SourceOutput string
}

// Node is a use-site of a task inside a subgraph, with per-input and
// per-output edge slots.
type Node struct {
	ID            string
	TaskLocalName string
	Task          Task

	// inputs maps each declared input name to its filling edge, or nil
	// if the slot is empty.
	inputs map[string]*InputLink

	// outputs maps each declared output name (SentinelOutput for
	// atomic tasks) to its fan-out set: sinkNodeID -> sink input names.
	outputs map[string]map[string][]string

	CacheLastResult bool
	LastResult      map[string]interface{}
}

// NewNode constructs a Node with empty input slots for every declared
// input of task, and one empty fan-out output slot per declared
// output (or the sentinel slot for atomic tasks).
func NewNode(id, taskLocalName string, task Task) *Node {
	n := &Node{
		ID:            id,
		TaskLocalName: taskLocalName,
		Task:          task,
		inputs:        make(map[string]*InputLink),
		outputs:       make(map[string]map[string][]string),
	}
	for name := range task.Inputs() {
		n.inputs[name] = nil
	}
	for name := range task.Outputs() {
		n.outputs[name] = make(map[string][]string)
	}
	return n
}

// Inputs returns the node's input slot map. The returned map and its
// values must not be mutated by callers; use SetInput/ClearInput.
func (n *Node) Inputs() map[string]*InputLink { return n.inputs }

// Outputs returns the node's output fan-out map. Callers must not
// mutate it directly; use AddOutputLink/RemoveOutputLink.
func (n *Node) Outputs() map[string]map[string][]string { return n.outputs }

// HasInput reports whether name is a declared input slot on this node.
func (n *Node) HasInput(name string) bool {
	_, ok := n.inputs[name]
	return ok
}

// HasOutput reports whether name is a declared output slot on this
// node.
func (n *Node) HasOutput(name string) bool {
	_, ok := n.outputs[name]
	return ok
}

// SetInput fills an input slot. Returns false if the slot is already
// filled (an input slot may only ever carry one link) or does not exist.
func (n *Node) SetInput(name string, link InputLink) bool {
	existing, ok := n.inputs[name]
	if !ok || existing != nil {
		return false
	}
	l := link
	n.inputs[name] = &l
	return true
}

// ClearInput empties an input slot. Returns false if the slot was
// already empty or does not exist.
func (n *Node) ClearInput(name string) bool {
	existing, ok := n.inputs[name]
	if !ok || existing == nil {
		return false
	}
	n.inputs[name] = nil
	return true
}

// AddOutputLink records a fan-out entry: this node's output slot feeds
// sinkInput on sinkNodeID. Nodes may fan out to any number of sinks.
func (n *Node) AddOutputLink(output, sinkNodeID, sinkInput string) bool {
	fanout, ok := n.outputs[output]
	if !ok {
		return false
	}
	fanout[sinkNodeID] = append(fanout[sinkNodeID], sinkInput)
	return true
}

// RemoveOutputLink removes one fan-out entry. When a sink's entry
// becomes empty, the map key is dropped entirely rather than left as
// an empty slice.
func (n *Node) RemoveOutputLink(output, sinkNodeID, sinkInput string) bool {
	fanout, ok := n.outputs[output]
	if !ok {
		return false
	}
	names, ok := fanout[sinkNodeID]
	if !ok {
		return false
	}
	idx := -1
	for i, v := range names {
		if v == sinkInput {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	names = append(names[:idx], names[idx+1:]...)
	if len(names) == 0 {
		delete(fanout, sinkNodeID)
	} else {
		fanout[sinkNodeID] = names
	}
	return true
}

// NLinksIn returns the number of filled input slots.
func (n *Node) NLinksIn() int {
	count := 0
	for _, link := range n.inputs {
		if link != nil {
			count++
		}
	}
	return count
}

// NLinksOut returns the number of distinct (output, sink) fan-out
// entries across all output slots.
func (n *Node) NLinksOut() int {
	count := 0
	for _, fanout := range n.outputs {
		count += len(fanout)
	}
	return count
}

// NLinks returns NLinksIn() + NLinksOut().
func (n *Node) NLinks() int { return n.NLinksIn() + n.NLinksOut() }

// HasLinks reports whether this node has any incident edges.
func (n *Node) HasLinks() bool { return n.NLinks() > 0 }
