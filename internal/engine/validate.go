package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks a structurally malformed batch. Nothing is applied.
var ErrValidation = errors.New("invalid op batch")

// validate is the all-or-nothing structural pre-pass: every op must carry the
// fields its kind requires. Data-level problems (missing target block, bad
// heading level) are deliberately not checked here; those are per-op soft
// failures during application.
func validate(ops []Op) error {
	for i, op := range ops {
		switch op.Kind {
		case OpReplaceText:
			if op.BlockID == "" {
				return missingField(i, op.Kind, "block_id")
			}
			if op.Text == nil {
				return missingField(i, op.Kind, "text")
			}
		case OpDeleteBlock, OpSetParagraph:
			if op.BlockID == "" {
				return missingField(i, op.Kind, "block_id")
			}
		case OpSetHeading:
			if op.BlockID == "" {
				return missingField(i, op.Kind, "block_id")
			}
		case OpInsertParagraphAfter, OpInsertHeadingAfter:
			if op.AfterBlockID == "" {
				return missingField(i, op.Kind, "after_block_id")
			}
			if op.Text == nil {
				return missingField(i, op.Kind, "text")
			}
		case OpAppendParagraph, OpAppendHeading:
			if op.Text == nil {
				return missingField(i, op.Kind, "text")
			}
		default:
			return fmt.Errorf("%w: op %d has unknown kind %q", ErrValidation, i, op.Kind)
		}
	}
	return nil
}

func missingField(index int, kind, field string) error {
	return fmt.Errorf("%w: op %d (%s) is missing %s", ErrValidation, index, kind, field)
}

// FailureSummary renders a short human-readable summary of the first few soft
// failures; automated callers react to the message, so it stays compact.
func FailureSummary(failures []SoftFailure) string {
	if len(failures) == 0 {
		return ""
	}

	const maxShown = 3
	parts := make([]string, 0, maxShown)
	for i, failure := range failures {
		if i == maxShown {
			break
		}
		parts = append(parts, fmt.Sprintf("op %d: %s", failure.OpIndex, failure.Message))
	}

	summary := strings.Join(parts, "; ")
	if len(failures) > maxShown {
		summary = fmt.Sprintf("%s (and %d more)", summary, len(failures)-maxShown)
	}
	return fmt.Sprintf("%d op(s) failed: %s", len(failures), summary)
}
