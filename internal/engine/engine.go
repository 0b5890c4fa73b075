// Package engine validates and applies batches of block-addressed edit
// operations to a document tree. A batch either fails validation before any
// mutation, or is applied left-to-right with per-op data problems collected
// as soft failures. The engine only ever produces whole-tree results; the
// caller commits them as a single replace step so the batch lands atomically.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/pagemint/pagemint/internal/doctree"
)

// Op kinds accepted by the engine.
const (
	OpReplaceText          = "replace_text"
	OpDeleteBlock          = "delete_block"
	OpInsertParagraphAfter = "insert_paragraph_after"
	OpInsertHeadingAfter   = "insert_heading_after"
	OpAppendParagraph      = "append_paragraph"
	OpAppendHeading        = "append_heading"
	OpSetHeading           = "set_heading"
	OpSetParagraph         = "set_paragraph"
)

// Op is one block-addressed edit operation. Text is a pointer so a missing
// text field is distinguishable from an empty string.
type Op struct {
	Kind         string  `json:"kind"`
	BlockID      string  `json:"block_id,omitempty"`
	AfterBlockID string  `json:"after_block_id,omitempty"`
	Text         *string `json:"text,omitempty"`
	Level        int     `json:"level,omitempty"`
	ID           string  `json:"id,omitempty"`
}

// Soft failure codes.
const (
	FailureBlockNotFound       = "block_not_found"
	FailureInvalidHeadingLevel = "invalid_heading_level"
)

// SoftFailure is a per-op data problem. The batch continues past it, but the
// caller must discard the produced tree when any are present.
type SoftFailure struct {
	OpIndex int    `json:"op_index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of applying a batch.
type Result struct {
	Tree            *doctree.Node
	UpdatedBlockIDs []string
	SoftFailures    []SoftFailure
}

// Config is the authoring schema the engine checks ops against. It is passed
// in explicitly rather than held in a package-level singleton so the allowed
// heading levels stay a testable parameter.
type Config struct {
	HeadingLevels mapset.Set[int]
}

// DefaultConfig allows heading levels 1 through 3.
func DefaultConfig() Config {
	return Config{HeadingLevels: mapset.NewSet(1, 2, 3)}
}

type Engine struct {
	config Config
}

func New(config Config) *Engine {
	return &Engine{config: config}
}

// Apply runs the batch against tree. The input tree is never mutated. When
// idempotencySeed is non-empty, inserts without an explicit id get a
// deterministic id derived from the seed and op index, so a retried batch
// produces the same blocks instead of duplicates.
func (e *Engine) Apply(tree *doctree.Node, ops []Op, idempotencySeed string) (*Result, error) {
	if err := validate(ops); err != nil {
		return nil, err
	}

	if len(ops) == 0 {
		return &Result{Tree: tree, UpdatedBlockIDs: []string{}}, nil
	}

	result := &Result{Tree: tree.Clone(), UpdatedBlockIDs: []string{}}
	for i, op := range ops {
		e.applyOp(result, i, op, idempotencySeed)
	}

	return result, nil
}

func (e *Engine) applyOp(result *Result, index int, op Op, seed string) {
	tree := result.Tree

	switch op.Kind {
	case OpReplaceText:
		idx := tree.BlockIndex(op.BlockID)
		if idx < 0 {
			result.fail(index, FailureBlockNotFound, fmt.Sprintf("block %q not found", op.BlockID))
			return
		}
		tree.Children[idx].Text = *op.Text
		result.updated(op.BlockID)

	case OpDeleteBlock:
		idx := tree.BlockIndex(op.BlockID)
		if idx < 0 {
			result.fail(index, FailureBlockNotFound, fmt.Sprintf("block %q not found", op.BlockID))
			return
		}
		tree.Children = append(tree.Children[:idx], tree.Children[idx+1:]...)
		result.updated(op.BlockID)

	case OpInsertParagraphAfter:
		id, applied := e.blockID(tree, op, index, seed)
		if applied {
			result.updated(id)
			return
		}
		idx := tree.BlockIndex(op.AfterBlockID)
		if idx < 0 {
			result.fail(index, FailureBlockNotFound, fmt.Sprintf("block %q not found", op.AfterBlockID))
			return
		}
		insertAt(tree, idx+1, doctree.NewParagraph(id, *op.Text))
		result.updated(id)

	case OpInsertHeadingAfter:
		if !e.config.HeadingLevels.Contains(op.Level) {
			result.fail(index, FailureInvalidHeadingLevel, fmt.Sprintf("invalid heading level %d", op.Level))
			return
		}
		id, applied := e.blockID(tree, op, index, seed)
		if applied {
			result.updated(id)
			return
		}
		idx := tree.BlockIndex(op.AfterBlockID)
		if idx < 0 {
			result.fail(index, FailureBlockNotFound, fmt.Sprintf("block %q not found", op.AfterBlockID))
			return
		}
		insertAt(tree, idx+1, doctree.NewHeading(id, *op.Text, op.Level))
		result.updated(id)

	case OpAppendParagraph:
		id, applied := e.blockID(tree, op, index, seed)
		if applied {
			result.updated(id)
			return
		}
		tree.Children = append(tree.Children, doctree.NewParagraph(id, *op.Text))
		result.updated(id)

	case OpAppendHeading:
		if !e.config.HeadingLevels.Contains(op.Level) {
			result.fail(index, FailureInvalidHeadingLevel, fmt.Sprintf("invalid heading level %d", op.Level))
			return
		}
		id, applied := e.blockID(tree, op, index, seed)
		if applied {
			result.updated(id)
			return
		}
		tree.Children = append(tree.Children, doctree.NewHeading(id, *op.Text, op.Level))
		result.updated(id)

	case OpSetHeading:
		if !e.config.HeadingLevels.Contains(op.Level) {
			result.fail(index, FailureInvalidHeadingLevel, fmt.Sprintf("invalid heading level %d", op.Level))
			return
		}
		idx := tree.BlockIndex(op.BlockID)
		if idx < 0 {
			result.fail(index, FailureBlockNotFound, fmt.Sprintf("block %q not found", op.BlockID))
			return
		}
		block := tree.Children[idx]
		block.Type = doctree.KindHeading
		block.SetAttr("level", op.Level)
		result.updated(op.BlockID)

	case OpSetParagraph:
		idx := tree.BlockIndex(op.BlockID)
		if idx < 0 {
			result.fail(index, FailureBlockNotFound, fmt.Sprintf("block %q not found", op.BlockID))
			return
		}
		block := tree.Children[idx]
		block.Type = doctree.KindParagraph
		delete(block.Attrs, "level")
		result.updated(op.BlockID)
	}
}

// blockID resolves the id for an inserted block. applied is true when a block
// with that id already exists; block ids are never reused, so the insert is
// treated as already done and skipped.
func (e *Engine) blockID(tree *doctree.Node, op Op, index int, seed string) (id string, applied bool) {
	switch {
	case op.ID != "":
		id = op.ID
	case seed != "":
		id = deterministicID(seed, index)
	default:
		id = uuid.New().String()
	}
	return id, tree.HasBlock(id)
}

// deterministicID derives a stable block id from the idempotency seed and the
// op's position in the batch.
func deterministicID(seed string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", seed, index)))
	return hex.EncodeToString(sum[:])[:16]
}

func insertAt(tree *doctree.Node, index int, node *doctree.Node) {
	children := make([]*doctree.Node, 0, len(tree.Children)+1)
	children = append(children, tree.Children[:index]...)
	children = append(children, node)
	children = append(children, tree.Children[index:]...)
	tree.Children = children
}

func (r *Result) fail(index int, code, message string) {
	r.SoftFailures = append(r.SoftFailures, SoftFailure{OpIndex: index, Code: code, Message: message})
}

func (r *Result) updated(id string) {
	for _, existing := range r.UpdatedBlockIDs {
		if existing == id {
			return
		}
	}
	r.UpdatedBlockIDs = append(r.UpdatedBlockIDs, id)
}
