// Package order maintains the sibling-order invariant of the document tree:
// within one parent the order values of all children stay pairwise distinct
// and consistent with the intended positions, across reordering and
// reparenting.
package order

import (
	"context"
	"errors"

	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/store"
)

// ErrConflictOnReparent is returned when a reparent would make a document its
// own ancestor. No mutation is applied.
var ErrConflictOnReparent = errors.New("reparent would create a cycle")

// maxTreeDepth caps ancestor walks so corrupted parent chains cannot loop forever.
const maxTreeDepth = 1024

// NextOrder returns the order for a document created under parentID:
// one past the highest existing sibling order.
func NextOrder(ctx context.Context, s store.Store, parentID *string) (int, error) {
	max, err := s.MaxSiblingOrder(ctx, parentID)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Reorder moves doc to newOrder under newParentID, shifting siblings so the
// group stays dense. The caller runs it inside a transaction and has already
// passed the write gate.
func Reorder(ctx context.Context, s store.Store, doc *model.Document, newParentID *string, newOrder int) error {
	if newOrder < 0 {
		newOrder = 0
	}

	if sameParent(doc.ParentID, newParentID) {
		return reorderWithinParent(ctx, s, doc, newOrder)
	}

	if err := guardCycle(ctx, s, doc.ID, newParentID); err != nil {
		return err
	}

	// Close the gap left behind in the old group, open a slot in the new one.
	if err := s.ShiftSiblingsFrom(ctx, doc.ParentID, doc.Order+1, -1); err != nil {
		return err
	}
	if err := s.ShiftSiblingsFrom(ctx, newParentID, newOrder, +1); err != nil {
		return err
	}

	doc.ParentID = newParentID
	doc.Order = newOrder
	return s.UpdateDocument(ctx, doc)
}

func reorderWithinParent(ctx context.Context, s store.Store, doc *model.Document, newOrder int) error {
	oldOrder := doc.Order
	switch {
	case oldOrder < newOrder:
		// Moving down: everything in (old, new] steps up one slot.
		if err := s.ShiftSiblingRange(ctx, doc.ParentID, oldOrder+1, newOrder, -1); err != nil {
			return err
		}
	case oldOrder > newOrder:
		// Moving up: everything in [new, old) steps down one slot.
		if err := s.ShiftSiblingRange(ctx, doc.ParentID, newOrder, oldOrder-1, +1); err != nil {
			return err
		}
	default:
		return nil
	}

	doc.Order = newOrder
	return s.UpdateDocument(ctx, doc)
}

// guardCycle rejects a reparent onto the moved document itself or any of its
// descendants, by walking the candidate parent's ancestor chain to the root.
func guardCycle(ctx context.Context, s store.Store, movedID string, newParentID *string) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == movedID {
		return ErrConflictOnReparent
	}

	current := newParentID
	for depth := 0; current != nil && depth < maxTreeDepth; depth++ {
		if *current == movedID {
			return ErrConflictOnReparent
		}
		parent, err := s.GetDocument(ctx, *current)
		if err != nil {
			if errors.Is(err, store.ErrDocumentNotFound) {
				return nil
			}
			return err
		}
		current = parent.ParentID
	}
	if current != nil {
		return ErrConflictOnReparent
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
