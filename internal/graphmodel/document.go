package graphmodel

import "encoding/json"

// Document is the JSON-shaped wire/file representation of a
// CompositeTask. Fixed-size [2]string arrays marshal to and from JSON
// 2-element arrays natively, matching the `[srcId, srcOut]` /
// `[sinkId, outputName]` tuples the wire format uses.
// Filepath records where a Document was read from (set by
// internal/serialize's loaders) and doubles as the sole field of a
// composite TaskEntry's stub payload: {"filepath": "..."} standing in
// for a fully inlined nested Document, resolved by a DocumentSource
// instead of being decoded inline.
type Document struct {
	Name     string               `json:"name"`
	Version  int                  `json:"version"`
	Input    InputSpec            `json:"input"`
	Output   OutputSpec           `json:"output"`
	Tasks    map[string]TaskEntry `json:"tasks"`
	Nodes    map[string]NodeEntry `json:"nodes"`
	Filepath string               `json:"filepath,omitempty"`
}

// InputSpec is the declared-input half of a Document.
type InputSpec struct {
	Objects map[string]string                 `json:"objects"`
	Mapping map[string]map[string][]string    `json:"mapping"`
}

// OutputSpec is the declared-output half of a Document.
type OutputSpec struct {
	Objects map[string]string        `json:"objects"`
	Mapping map[string]*[2]string    `json:"mapping"`
}

// TaskEntry is one entry of Document.Tasks.
type TaskEntry struct {
	Payload json.RawMessage `json:"payload"`
	Kind    string          `json:"kind"` // "atomic" | "composite"
}

// AtomicPayload is the Payload shape for a TaskEntry with Kind
// "atomic".
type AtomicPayload struct {
	Name       string `json:"name"`
	SourceFile string `json:"sourceFile"`
}

// NodeEntry is one entry of Document.Nodes.
type NodeEntry struct {
	InstanceOf      string                 `json:"instanceOf"`
	Links           NodeLinks              `json:"links"`
	CacheLastResult bool                   `json:"cacheLastResult"`
	LastResult      map[string]interface{} `json:"lastResult,omitempty"`
}

// NodeLinks is the in/out edge description for one node.
type NodeLinks struct {
	In  map[string]*[2]string            `json:"in"`
	Out map[string]map[string][]string   `json:"out"`
}

const (
	TaskKindAtomic    = "atomic"
	TaskKindComposite = "composite"
)
