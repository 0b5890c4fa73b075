package doctree

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownTransform = errors.New("unknown transform kind")

// Transform kinds. The edit engine only ever emits whole-document replaces so
// a committed step is atomic, but the payload keeps a kind tag so the log
// format can grow incremental transforms later.
const (
	TransformReplace = "replace"
)

// Transform is one serializable edit applied to a document tree.
type Transform struct {
	Kind string `json:"kind"`
	Doc  *Node  `json:"doc,omitempty"`
}

// Replace builds a whole-document replace transform.
func Replace(doc *Node) *Transform {
	return &Transform{Kind: TransformReplace, Doc: doc}
}

// Apply produces the tree resulting from applying the transform to tree.
// The input tree is never mutated.
func (t *Transform) Apply(tree *Node) (*Node, error) {
	switch t.Kind {
	case TransformReplace:
		return t.Doc.Clone(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, t.Kind)
	}
}

// Encode serializes the transform for the step log.
func (t *Transform) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTransform parses a step payload.
func DecodeTransform(data []byte) (*Transform, error) {
	var t Transform
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
