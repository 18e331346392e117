// Package serialize is the thin JSON marshal/unmarshal layer over
// graphmodel.Document. It owns file I/O and wires loaded atomic task
// references through a registry.Registry; the recursive three-phase
// rebuild itself lives on graphmodel.FromDocument/ToDocument. Save uses
// the standard write-tmp-then-rename pattern for crash safety.
package serialize

import (
	"encoding/json"
	"os"

	"github.com/mattsondev/taskgraph/internal/graphmodel"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// Marshal renders c as indented JSON.
func Marshal(c *graphmodel.CompositeTask) ([]byte, error) {
	doc, err := c.ToDocument()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &taskerrors.Internal{Reason: "marshaling document: " + err.Error()}
	}
	return data, nil
}

// Unmarshal rebuilds a CompositeTask from JSON, resolving atomic leaf
// tasks through resolveAtomic (typically registry.Registry.ResolveAtomic)
// and resolving any nested {"filepath": "..."} composite stub against
// the filesystem.
func Unmarshal(data []byte, resolveAtomic graphmodel.AtomicResolver) (*graphmodel.CompositeTask, error) {
	var doc graphmodel.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &taskerrors.MalformedDocument{Reason: "decoding document: " + err.Error()}
	}
	return graphmodel.FromDocument(&doc, resolveAtomic, loadDocumentFile)
}

// Save writes c to path atomically: marshal, write to path+".tmp", then
// rename over path.
func Save(path string, c *graphmodel.CompositeTask) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &taskerrors.Internal{Reason: "writing " + tmp + ": " + err.Error()}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &taskerrors.Internal{Reason: "renaming " + tmp + " to " + path + ": " + err.Error()}
	}
	return nil
}

// Load reads path and rebuilds the subgraph it describes.
func Load(path string, resolveAtomic graphmodel.AtomicResolver) (*graphmodel.CompositeTask, error) {
	doc, err := loadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	return graphmodel.FromDocument(doc, resolveAtomic, loadDocumentFile)
}

func unmarshalDocument(data []byte) (*graphmodel.Document, error) {
	var doc graphmodel.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &taskerrors.MalformedDocument{Reason: "decoding document: " + err.Error()}
	}
	return &doc, nil
}

// loadDocumentFile is the graphmodel.DocumentSource every entry point
// in this package supplies: read path off the local filesystem, decode
// it as a Document, and record the path it came from so a further
// nested stub can be resolved relative to the same loading mechanism.
func loadDocumentFile(path string) (*graphmodel.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &taskerrors.Internal{Reason: "reading " + path + ": " + err.Error()}
	}
	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	doc.Filepath = path
	return doc, nil
}
