package order

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/store"
	"github.com/sirupsen/logrus"
)

// Owned decides whether a descendant belongs to the deletion. Children
// outside the boundary are lifted to the erased subtree's parent instead of
// being removed.
type Owned func(doc *model.Document) bool

// EraseSubtree hard-deletes doc and its owned descendants bottom-up, removing
// each document's permission, snapshot, step and published state, then closes
// the order gap left in doc's sibling group. The caller runs it inside a
// transaction and has already passed the write gate.
func EraseSubtree(ctx context.Context, s store.Store, doc *model.Document, owned Owned) error {
	visited := mapset.NewSet[string]()
	if err := eraseRecursive(ctx, s, doc, owned, visited); err != nil {
		return err
	}
	return s.ShiftSiblingsFrom(ctx, doc.ParentID, doc.Order+1, -1)
}

func eraseRecursive(ctx context.Context, s store.Store, doc *model.Document, owned Owned, visited mapset.Set[string]) error {
	if !visited.Add(doc.ID) {
		// Corrupted parent chains must not loop the cascade.
		logrus.Warnf("erase revisited document %s, skipping", doc.ID)
		return nil
	}

	children, err := s.ListChildren(ctx, &doc.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if owned != nil && !owned(child) {
			if err := liftChild(ctx, s, doc, child); err != nil {
				return err
			}
			continue
		}
		if err := eraseRecursive(ctx, s, child, owned, visited); err != nil {
			return err
		}
	}

	if err := s.DeleteStepState(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.DeleteDocumentPermissions(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.DeletePublishedDocuments(ctx, doc.ID); err != nil {
		return err
	}
	return s.EraseDocument(ctx, doc.ID)
}

// liftChild reparents a surviving child to the erased document's parent,
// appending it at the end of that sibling group.
func liftChild(ctx context.Context, s store.Store, erased, child *model.Document) error {
	next, err := NextOrder(ctx, s, erased.ParentID)
	if err != nil {
		return err
	}
	child.ParentID = erased.ParentID
	child.Order = next
	return s.UpdateDocument(ctx, child)
}
