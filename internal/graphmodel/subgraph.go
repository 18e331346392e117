package graphmodel

import (
	"github.com/mattsondev/taskgraph/internal/typetoken"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// CurrentVersion is the serializer schema version this engine writes
// and the maximum version it will load.
const CurrentVersion = 1

// SubgraphRunner performs the orchestrated Run of a CompositeTask:
// validate-if-stale, plan, execute, project outputs back onto the
// declared output schema. It is supplied by the
// internal/engine package at bind time so graphmodel itself never
// imports the validator/planner/executors — only the other direction
// holds.
type SubgraphRunner func(c *CompositeTask, values map[string]interface{}) (map[string]interface{}, error)

// OutputRef identifies the single interior producer of a declared
// output.
type OutputRef struct {
	NodeID string
	Output string
}

// CompositeTask is a named, typed container of AtomicTasks/other
// CompositeTasks; owns boundary maps and a node graph.
type CompositeTask struct {
	userSet

	name    string
	version int

	declaredInputs  map[string]string
	declaredOutputs map[string]string

	// inputMap: declaredInput -> nodeId -> []inputName (fan-out).
	inputMap map[string]map[string][]string
	// outputMap: declaredOutput -> *OutputRef (single producer, or nil).
	outputMap map[string]*OutputRef

	tasks     map[string]Task
	nodes     map[string]*Node
	nodeOrder []string // insertion order, for deterministic planning

	validated  bool
	cachedPlan interface{} // opaque cache owned by internal/plan

	runner SubgraphRunner
}

// NewCompositeTask constructs an empty subgraph.
func NewCompositeTask(name string, version int) *CompositeTask {
	return &CompositeTask{
		userSet:         newUserSet(),
		name:            name,
		version:         version,
		declaredInputs:  make(map[string]string),
		declaredOutputs: make(map[string]string),
		inputMap:        make(map[string]map[string][]string),
		outputMap:       make(map[string]*OutputRef),
		tasks:           make(map[string]Task),
		nodes:           make(map[string]*Node),
	}
}

func (c *CompositeTask) Name() string  { return c.name }
func (c *CompositeTask) Version() int  { return c.version }

func (c *CompositeTask) Inputs() map[string]string {
	cp := make(map[string]string, len(c.declaredInputs))
	for k, v := range c.declaredInputs {
		cp[k] = v
	}
	return cp
}

func (c *CompositeTask) Outputs() map[string]string {
	cp := make(map[string]string, len(c.declaredOutputs))
	for k, v := range c.declaredOutputs {
		cp[k] = v
	}
	return cp
}

// SetRunner installs the orchestration callback used by Run. Bound by
// internal/engine.Engine.Bind, recursively, over every composite task
// reachable from the root being run.
func (c *CompositeTask) SetRunner(r SubgraphRunner) { c.runner = r }

func (c *CompositeTask) Run(values map[string]interface{}) (map[string]interface{}, error) {
	if c.runner == nil {
		return nil, &taskerrors.Internal{Reason: "composite task \"" + c.name + "\" has no bound runner; call Engine.Bind first"}
	}
	return c.runner(c, values)
}

// Reload recursively reloads every child task.
func (c *CompositeTask) Reload() error {
	for _, t := range c.tasks {
		if err := t.Reload(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CompositeTask) AddUser(nodeID string)    { c.userSet.add(nodeID) }
func (c *CompositeTask) RemoveUser(nodeID string) { c.userSet.remove(nodeID) }
func (c *CompositeTask) InUse() bool              { return c.userSet.inUse() }

// Validated reports the cached-validation flag.
func (c *CompositeTask) Validated() bool { return c.validated }

// SetValidated is called by the validator on success, and by every
// structural mutator on failure/mutation to invalidate the cache.
func (c *CompositeTask) SetValidated(v bool) {
	c.validated = v
	if !v {
		c.cachedPlan = nil
	}
}

// CachedPlan/SetCachedPlan let internal/plan memoize the last plan
// without graphmodel needing to import the plan package.
func (c *CompositeTask) CachedPlan() interface{}      { return c.cachedPlan }
func (c *CompositeTask) SetCachedPlan(p interface{})  { c.cachedPlan = p }

func (c *CompositeTask) clearValidation() { c.SetValidated(false) }

// Tasks returns the localName -> Task map of children. Callers must
// not mutate it; use AddTask/RemoveTask.
func (c *CompositeTask) Tasks() map[string]Task { return c.tasks }

// Nodes returns the nodeId -> *Node map. Callers must not mutate the
// map itself; use AddNode/RemoveNode and the edge/mapping helpers.
func (c *CompositeTask) Nodes() map[string]*Node { return c.nodes }

// NodeOrder returns node ids in insertion order, the order the
// planner emits plan entries in.
func (c *CompositeTask) NodeOrder() []string {
	cp := make([]string, len(c.nodeOrder))
	copy(cp, c.nodeOrder)
	return cp
}

// InputMap returns the declaredInput -> nodeId -> []inputName map.
func (c *CompositeTask) InputMap() map[string]map[string][]string { return c.inputMap }

// OutputMap returns the declaredOutput -> *OutputRef map.
func (c *CompositeTask) OutputMap() map[string]*OutputRef { return c.outputMap }

// ---- Editing API. Every mutator below clears the
// validated flag. ----

func (c *CompositeTask) AddDeclaredInput(name, typeTok string) error {
	if _, exists := c.declaredInputs[name]; exists {
		return &taskerrors.DuplicateName{Name: name}
	}
	if err := typetoken.ValidateDeclared(&struct {
		Token string `validate:"typetoken"`
	}{typeTok}); err != nil {
		return err
	}
	c.declaredInputs[name] = typeTok
	c.clearValidation()
	return nil
}

func (c *CompositeTask) RemoveDeclaredInput(name string) error {
	if _, exists := c.declaredInputs[name]; !exists {
		return &taskerrors.Unknown{Name: name}
	}
	if fanout, ok := c.inputMap[name]; ok && len(fanout) > 0 {
		return &taskerrors.MappingInUse{Name: name}
	}
	delete(c.declaredInputs, name)
	delete(c.inputMap, name)
	c.clearValidation()
	return nil
}

func (c *CompositeTask) AddDeclaredOutput(name, typeTok string) error {
	if _, exists := c.declaredOutputs[name]; exists {
		return &taskerrors.DuplicateName{Name: name}
	}
	if err := typetoken.ValidateDeclared(&struct {
		Token string `validate:"typetoken"`
	}{typeTok}); err != nil {
		return err
	}
	c.declaredOutputs[name] = typeTok
	c.clearValidation()
	return nil
}

func (c *CompositeTask) RemoveDeclaredOutput(name string) error {
	if _, exists := c.declaredOutputs[name]; !exists {
		return &taskerrors.Unknown{Name: name}
	}
	if ref, ok := c.outputMap[name]; ok && ref != nil {
		return &taskerrors.MappingInUse{Name: name}
	}
	delete(c.declaredOutputs, name)
	delete(c.outputMap, name)
	c.clearValidation()
	return nil
}

func (c *CompositeTask) AddTask(localName string, task Task) error {
	if _, exists := c.tasks[localName]; exists {
		return &taskerrors.DuplicateName{Name: localName}
	}
	c.tasks[localName] = task
	c.clearValidation()
	return nil
}

func (c *CompositeTask) RemoveTask(localName string) error {
	task, exists := c.tasks[localName]
	if !exists {
		return &taskerrors.Unknown{Name: localName}
	}
	if task.InUse() {
		return &taskerrors.NodeInUse{NodeID: localName}
	}
	delete(c.tasks, localName)
	c.clearValidation()
	return nil
}

// AddNode allocates a globally unique id, creates a fresh Node with
// empty input slots and one output slot per declared output (or the
// sentinel for atomic children), and registers the node with the
// task's user list.
func (c *CompositeTask) AddNode(localTaskName string) (string, error) {
	task, exists := c.tasks[localTaskName]
	if !exists {
		return "", &taskerrors.Unknown{Name: localTaskName}
	}
	id := NextNodeID(localTaskName)
	node := NewNode(id, localTaskName, task)
	c.nodes[id] = node
	c.nodeOrder = append(c.nodeOrder, id)
	task.AddUser(id)
	c.clearValidation()
	return id, nil
}

// RemoveNode is forbidden if the node is referenced by any inputMap or
// outputMap entry, or has any non-empty input/output slot.
func (c *CompositeTask) RemoveNode(id string) error {
	node, exists := c.nodes[id]
	if !exists {
		return &taskerrors.Unknown{Name: id}
	}
	if node.HasLinks() {
		return &taskerrors.NodeInUse{NodeID: id}
	}
	for declared, fanout := range c.inputMap {
		if _, ok := fanout[id]; ok {
			return &taskerrors.MappingInUse{Name: declared}
		}
	}
	for declared, ref := range c.outputMap {
		if ref != nil && ref.NodeID == id {
			return &taskerrors.MappingInUse{Name: declared}
		}
	}
	node.Task.RemoveUser(id)
	delete(c.nodes, id)
	for i, nid := range c.nodeOrder {
		if nid == id {
			c.nodeOrder = append(c.nodeOrder[:i], c.nodeOrder[i+1:]...)
			break
		}
	}
	c.clearValidation()
	return nil
}

// AddInputMap fans a declared input out to an interior node input
// slot. Only the addressed key is ever (re-)initialized, never the
// whole inputMap.
func (c *CompositeTask) AddInputMap(declared, nodeID, inputName string) error {
	declaredType, ok := c.declaredInputs[declared]
	if !ok {
		return &taskerrors.Unknown{Name: declared}
	}
	node, ok := c.nodes[nodeID]
	if !ok {
		return &taskerrors.Unknown{Name: nodeID}
	}
	if !node.HasInput(inputName) {
		return &taskerrors.Unknown{Name: inputName}
	}
	slotType := node.Task.Inputs()[inputName]
	if slotType != declaredType {
		return &taskerrors.TypeMismatch{Expected: declaredType, Actual: slotType, Context: "inputMap[" + declared + "]"}
	}
	if c.inputMap[declared] == nil {
		c.inputMap[declared] = make(map[string][]string)
	}
	for _, existing := range c.inputMap[declared][nodeID] {
		if existing == inputName {
			return nil // already present; fan-out entries are a set
		}
	}
	c.inputMap[declared][nodeID] = append(c.inputMap[declared][nodeID], inputName)
	c.clearValidation()
	return nil
}

// RemoveInputMap removes one fan-out entry, pruning empty maps.
func (c *CompositeTask) RemoveInputMap(declared, nodeID, inputName string) error {
	fanout, ok := c.inputMap[declared]
	if !ok {
		return &taskerrors.Unknown{Name: declared}
	}
	names, ok := fanout[nodeID]
	if !ok {
		return &taskerrors.Unknown{Name: nodeID}
	}
	idx := -1
	for i, v := range names {
		if v == inputName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &taskerrors.Unknown{Name: inputName}
	}
	names = append(names[:idx], names[idx+1:]...)
	if len(names) == 0 {
		delete(fanout, nodeID)
	} else {
		fanout[nodeID] = names
	}
	if len(fanout) == 0 {
		delete(c.inputMap, declared)
	}
	c.clearValidation()
	return nil
}

// AddOutputMap wires a declared output to its single interior producer.
// Must be empty before assignment.
func (c *CompositeTask) AddOutputMap(declared, nodeID, outputName string) error {
	declaredType, ok := c.declaredOutputs[declared]
	if !ok {
		return &taskerrors.Unknown{Name: declared}
	}
	if existing, ok := c.outputMap[declared]; ok && existing != nil {
		return &taskerrors.MappingInUse{Name: declared}
	}
	node, ok := c.nodes[nodeID]
	if !ok {
		return &taskerrors.Unknown{Name: nodeID}
	}
	if !node.HasOutput(outputName) {
		return &taskerrors.Unknown{Name: outputName}
	}
	slotType := node.Task.Outputs()[outputName]
	if slotType != declaredType {
		return &taskerrors.TypeMismatch{Expected: declaredType, Actual: slotType, Context: "outputMap[" + declared + "]"}
	}
	c.outputMap[declared] = &OutputRef{NodeID: nodeID, Output: outputName}
	c.clearValidation()
	return nil
}

// RemoveOutputMap resets the declared output's mapping to empty.
func (c *CompositeTask) RemoveOutputMap(declared, nodeID, outputName string) error {
	ref, ok := c.outputMap[declared]
	if !ok || ref == nil {
		return &taskerrors.Unknown{Name: declared}
	}
	if ref.NodeID != nodeID || ref.Output != outputName {
		return &taskerrors.Unknown{Name: declared}
	}
	c.outputMap[declared] = nil
	c.clearValidation()
	return nil
}

// AddEdge fails if either endpoint is missing, the sink input slot is
// already filled, or type tokens disagree; otherwise it appends the
// sink to the source's fan-out set and fills the sink's input slot.
func (c *CompositeTask) AddEdge(srcID, srcOut, dstID, dstIn string) error {
	src, ok := c.nodes[srcID]
	if !ok {
		return &taskerrors.Unknown{Name: srcID}
	}
	dst, ok := c.nodes[dstID]
	if !ok {
		return &taskerrors.Unknown{Name: dstID}
	}
	if !src.HasOutput(srcOut) {
		return &taskerrors.Unknown{Name: srcOut}
	}
	if !dst.HasInput(dstIn) {
		return &taskerrors.Unknown{Name: dstIn}
	}
	srcType := src.Task.Outputs()[srcOut]
	dstType := dst.Task.Inputs()[dstIn]
	if srcType != dstType {
		return &taskerrors.TypeMismatch{Expected: dstType, Actual: srcType, Context: "edge " + srcID + "." + srcOut + " -> " + dstID + "." + dstIn}
	}
	if existing := dst.Inputs()[dstIn]; existing != nil {
		return &taskerrors.MappingInUse{Name: dstID + "." + dstIn}
	}
	if !dst.SetInput(dstIn, InputLink{SourceNodeID: srcID, SourceOutput: srcOut}) {
		return &taskerrors.Internal{Reason: "failed to set input slot " + dstID + "." + dstIn}
	}
	if !src.AddOutputLink(srcOut, dstID, dstIn) {
		dst.ClearInput(dstIn)
		return &taskerrors.Internal{Reason: "failed to add output link " + srcID + "." + srcOut}
	}
	c.clearValidation()
	return nil
}

// RemoveEdge mirrors AddEdge.
func (c *CompositeTask) RemoveEdge(srcID, srcOut, dstID, dstIn string) error {
	src, ok := c.nodes[srcID]
	if !ok {
		return &taskerrors.Unknown{Name: srcID}
	}
	dst, ok := c.nodes[dstID]
	if !ok {
		return &taskerrors.Unknown{Name: dstID}
	}
	if !src.RemoveOutputLink(srcOut, dstID, dstIn) {
		return &taskerrors.Unknown{Name: srcID + "." + srcOut + " -> " + dstID + "." + dstIn}
	}
	dst.ClearInput(dstIn)
	c.clearValidation()
	return nil
}

var _ Task = (*CompositeTask)(nil)
