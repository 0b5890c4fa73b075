package doctree

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Node kinds understood by the edit engine. The set is closed on purpose;
// rendering concerns live outside this module, so only the structural shape
// (type, attrs.id, text, children) matters here.
const (
	KindDoc       = "doc"
	KindParagraph = "paragraph"
	KindHeading   = "heading"
)

// Node is one node of a document tree. Top-level children of the doc root are
// the addressable blocks; each carries a stable string id in Attrs["id"].
type Node struct {
	Type     string                 `json:"type"`
	Attrs    map[string]interface{} `json:"attrs,omitempty"`
	Text     string                 `json:"text,omitempty"`
	Children []*Node                `json:"children,omitempty"`
}

// NewDoc creates an empty document root.
func NewDoc(children ...*Node) *Node {
	return &Node{Type: KindDoc, Children: children}
}

// NewParagraph creates a paragraph block with the given id and text.
func NewParagraph(id, text string) *Node {
	return &Node{
		Type:  KindParagraph,
		Attrs: map[string]interface{}{"id": id},
		Text:  text,
	}
}

// NewHeading creates a heading block with the given id, text and level.
func NewHeading(id, text string, level int) *Node {
	return &Node{
		Type:  KindHeading,
		Attrs: map[string]interface{}{"id": id, "level": level},
		Text:  text,
	}
}

// BlockID returns the stable id attribute, or "" when the node has none.
func (n *Node) BlockID() string {
	if n.Attrs == nil {
		return ""
	}
	id, _ := n.Attrs["id"].(string)
	return id
}

// HeadingLevel returns the heading level attribute. JSON decoding turns
// numbers into float64, so both forms are accepted.
func (n *Node) HeadingLevel() int {
	if n.Attrs == nil {
		return 0
	}
	switch v := n.Attrs["level"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// SetAttr sets an attribute on the node, allocating the map if needed.
func (n *Node) SetAttr(key string, value interface{}) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]interface{})
	}
	n.Attrs[key] = value
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := &Node{Type: n.Type, Text: n.Text}
	if n.Attrs != nil {
		clone.Attrs = make(map[string]interface{}, len(n.Attrs))
		for k, v := range n.Attrs {
			clone.Attrs[k] = v
		}
	}
	if n.Children != nil {
		clone.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// HasBlock reports whether a top-level block with the given id exists.
func (n *Node) HasBlock(id string) bool {
	return n.BlockIndex(id) >= 0
}

// BlockIndex returns the index of the top-level block with the given id, or -1.
func (n *Node) BlockIndex(id string) int {
	for i, child := range n.Children {
		if child.BlockID() == id {
			return i
		}
	}
	return -1
}

// BlockIDs returns the ids of all top-level blocks in document order.
func (n *Node) BlockIDs() []string {
	ids := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		if id := child.BlockID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Encode serializes the tree to JSON.
func (n *Node) Encode() ([]byte, error) {
	return json.Marshal(n)
}

// Decode parses a serialized tree.
func Decode(data []byte) (*Node, error) {
	var node Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// SearchText walks the tree collecting all text content, joined by spaces.
// Used for the derived search index, never authoritative.
func (n *Node) SearchText() string {
	var parts []string
	n.walk(func(node *Node) {
		if text := strings.TrimSpace(node.Text); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// ContentHash returns a hex sha256 of the canonical JSON encoding.
// encoding/json sorts map keys, so equal trees hash equal.
func (n *Node) ContentHash() string {
	data, err := json.Marshal(n)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.walk(fn)
	}
}
