package graphmodel

import (
	"encoding/json"
	"sort"

	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// AtomicResolver turns a serialized atomic task reference into a live
// Task, typically by asking a registry to resolve-or-load it.
// graphmodel never imports internal/registry
// directly to keep the data model free of the registry's process-wide
// side effects; the caller (internal/serialize) supplies this callback.
type AtomicResolver func(payload AtomicPayload) (Task, error)

// DocumentSource reads and decodes the Document an external composite
// task reference points at. A composite TaskEntry's payload can either
// inline the nested Document directly or be a stub of the form
// {"filepath": "..."}; resolving the latter means reading that file,
// which graphmodel does not do itself, so the caller (internal/serialize)
// supplies this callback the same way it supplies AtomicResolver.
type DocumentSource func(path string) (*Document, error)

// ToDocument renders the subgraph to the wire format.
// Node ids in the emitted document are whatever ids the subgraph
// currently holds; FromDocument mints fresh ones on load rather than
// trusting ids to remain unique across documents.
func (c *CompositeTask) ToDocument() (*Document, error) {
	doc := &Document{
		Name:    c.name,
		Version: c.version,
		Input: InputSpec{
			Objects: make(map[string]string, len(c.declaredInputs)),
			Mapping: make(map[string]map[string][]string, len(c.inputMap)),
		},
		Output: OutputSpec{
			Objects: make(map[string]string, len(c.declaredOutputs)),
			Mapping: make(map[string]*[2]string, len(c.outputMap)),
		},
		Tasks: make(map[string]TaskEntry, len(c.tasks)),
		Nodes: make(map[string]NodeEntry, len(c.nodes)),
	}

	for k, v := range c.declaredInputs {
		doc.Input.Objects[k] = v
	}
	for k, v := range c.declaredOutputs {
		doc.Output.Objects[k] = v
	}
	for declared, fanout := range c.inputMap {
		cp := make(map[string][]string, len(fanout))
		for nodeID, names := range fanout {
			ncp := make([]string, len(names))
			copy(ncp, names)
			cp[nodeID] = ncp
		}
		doc.Input.Mapping[declared] = cp
	}
	for declared, ref := range c.outputMap {
		if ref == nil {
			continue
		}
		doc.Output.Mapping[declared] = &[2]string{ref.NodeID, ref.Output}
	}

	for localName, task := range c.tasks {
		entry, err := taskToEntry(task)
		if err != nil {
			return nil, err
		}
		doc.Tasks[localName] = entry
	}

	for id, node := range c.nodes {
		links := NodeLinks{
			In:  make(map[string]*[2]string),
			Out: make(map[string]map[string][]string),
		}
		for name, link := range node.Inputs() {
			if link == nil {
				continue
			}
			links.In[name] = &[2]string{link.SourceNodeID, link.SourceOutput}
		}
		for name, fanout := range node.Outputs() {
			if len(fanout) == 0 {
				continue
			}
			cp := make(map[string][]string, len(fanout))
			for sinkID, names := range fanout {
				ncp := make([]string, len(names))
				copy(ncp, names)
				cp[sinkID] = ncp
			}
			links.Out[name] = cp
		}
		doc.Nodes[id] = NodeEntry{
			InstanceOf:      node.TaskLocalName,
			Links:           links,
			CacheLastResult: node.CacheLastResult,
			LastResult:      node.LastResult,
		}
	}

	return doc, nil
}

func taskToEntry(task Task) (TaskEntry, error) {
	switch t := task.(type) {
	case *AtomicTask:
		payload, err := json.Marshal(AtomicPayload{Name: t.Name(), SourceFile: t.SourceLocation()})
		if err != nil {
			return TaskEntry{}, &taskerrors.Internal{Reason: "marshaling atomic payload: " + err.Error()}
		}
		return TaskEntry{Kind: TaskKindAtomic, Payload: payload}, nil
	case *CompositeTask:
		nested, err := t.ToDocument()
		if err != nil {
			return TaskEntry{}, err
		}
		payload, err := json.Marshal(nested)
		if err != nil {
			return TaskEntry{}, &taskerrors.Internal{Reason: "marshaling composite payload: " + err.Error()}
		}
		return TaskEntry{Kind: TaskKindComposite, Payload: payload}, nil
	default:
		return TaskEntry{}, &taskerrors.MalformedDocument{Reason: "task \"" + task.Name() + "\" is neither *AtomicTask nor *CompositeTask"}
	}
}

// FromDocument rebuilds a subgraph from its wire format in three
// phases: rebuild tasks, mint fresh node ids while recording
// oldID->newID, then translate every id reference (edges, inputMap,
// outputMap) through that map. The three-phase approach avoids id
// collisions across documents loaded into the same process.
func FromDocument(doc *Document, resolveAtomic AtomicResolver, loadDocument DocumentSource) (*CompositeTask, error) {
	if doc.Version > CurrentVersion {
		return nil, &taskerrors.UnsupportedVersion{Got: doc.Version, Max: CurrentVersion}
	}

	c := NewCompositeTask(doc.Name, doc.Version)

	for name, typeToken := range doc.Input.Objects {
		if err := c.AddDeclaredInput(name, typeToken); err != nil {
			return nil, err
		}
	}
	for name, typeToken := range doc.Output.Objects {
		if err := c.AddDeclaredOutput(name, typeToken); err != nil {
			return nil, err
		}
	}

	// Phase 1: rebuild tasks.
	for localName, entry := range doc.Tasks {
		task, err := entryToTask(entry, resolveAtomic, loadDocument)
		if err != nil {
			return nil, err
		}
		if err := c.AddTask(localName, task); err != nil {
			return nil, err
		}
	}

	// Phase 2: create nodes under new ids, deterministically ordered by
	// the old id so repeated loads of the same document are reproducible.
	oldIDs := make([]string, 0, len(doc.Nodes))
	for oldID := range doc.Nodes {
		oldIDs = append(oldIDs, oldID)
	}
	sort.Strings(oldIDs)

	oldToNew := make(map[string]string, len(oldIDs))
	for _, oldID := range oldIDs {
		entry := doc.Nodes[oldID]
		newID, err := c.AddNode(entry.InstanceOf)
		if err != nil {
			return nil, err
		}
		oldToNew[oldID] = newID
		node := c.nodes[newID]
		node.CacheLastResult = entry.CacheLastResult
		node.LastResult = entry.LastResult
	}

	// Phase 3: translate edges (the In side alone fully determines both
	// endpoints; applying Out too would double-apply the same edge).
	for _, oldID := range oldIDs {
		entry := doc.Nodes[oldID]
		newDst := oldToNew[oldID]
		for inputName, ref := range entry.Links.In {
			if ref == nil {
				continue
			}
			newSrc, ok := oldToNew[ref[0]]
			if !ok {
				return nil, &taskerrors.MalformedDocument{Reason: "edge references unknown node id " + ref[0]}
			}
			if err := c.AddEdge(newSrc, ref[1], newDst, inputName); err != nil {
				return nil, err
			}
		}
	}

	// Translate declared-input fan-out.
	for declared, fanout := range doc.Input.Mapping {
		for oldID, names := range fanout {
			newID, ok := oldToNew[oldID]
			if !ok {
				return nil, &taskerrors.MalformedDocument{Reason: "input mapping references unknown node id " + oldID}
			}
			for _, name := range names {
				if err := c.AddInputMap(declared, newID, name); err != nil {
					return nil, err
				}
			}
		}
	}

	// Translate declared-output mapping.
	for declared, ref := range doc.Output.Mapping {
		if ref == nil {
			continue
		}
		newID, ok := oldToNew[ref[0]]
		if !ok {
			return nil, &taskerrors.MalformedDocument{Reason: "output mapping references unknown node id " + ref[0]}
		}
		if err := c.AddOutputMap(declared, newID, ref[1]); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func entryToTask(entry TaskEntry, resolveAtomic AtomicResolver, loadDocument DocumentSource) (Task, error) {
	switch entry.Kind {
	case TaskKindAtomic:
		var payload AtomicPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return nil, &taskerrors.MalformedDocument{Reason: "decoding atomic payload: " + err.Error()}
		}
		return resolveAtomic(payload)
	case TaskKindComposite:
		if path, ok := stubFilepath(entry.Payload); ok {
			if loadDocument == nil {
				return nil, &taskerrors.Internal{Reason: "composite task payload references external file \"" + path + "\" but no document loader was supplied"}
			}
			nested, err := loadDocument(path)
			if err != nil {
				return nil, err
			}
			return FromDocument(nested, resolveAtomic, loadDocument)
		}
		var nested Document
		if err := json.Unmarshal(entry.Payload, &nested); err != nil {
			return nil, &taskerrors.MalformedDocument{Reason: "decoding composite payload: " + err.Error()}
		}
		return FromDocument(&nested, resolveAtomic, loadDocument)
	default:
		return nil, &taskerrors.MalformedDocument{Reason: "unknown task kind \"" + entry.Kind + "\""}
	}
}

// stubFilepath reports whether payload is the {"filepath": "..."} stub
// form of a composite TaskEntry rather than an inline Document,
// returning the referenced path. A real Document has several top-level
// keys (name, version, tasks, ...); the stub has exactly one.
func stubFilepath(payload json.RawMessage) (string, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil || len(probe) != 1 {
		return "", false
	}
	raw, ok := probe["filepath"]
	if !ok {
		return "", false
	}
	var path string
	if err := json.Unmarshal(raw, &path); err != nil || path == "" {
		return "", false
	}
	return path, true
}
