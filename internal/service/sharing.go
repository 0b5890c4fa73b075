package service

import (
	"context"
	"errors"
	"time"

	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/order"
	"github.com/pagemint/pagemint/internal/queue"
	"github.com/pagemint/pagemint/internal/store"
)

// writeGated fetches the document and runs the write gate; a missing id is a
// hard ErrNotFound since the caller explicitly targets it.
func (d *DocumentService) writeGated(ctx context.Context, documentID, actorID string) (*model.Document, error) {
	doc, err := d.store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	ok, err := d.resolver.CanWrite(ctx, doc, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	return doc, nil
}

// SetGeneralAccess switches a document between private and workspace-wide.
func (d *DocumentService) SetGeneralAccess(ctx context.Context, documentID, actorID, generalAccess string) error {
	if generalAccess != model.GeneralAccessPrivate && generalAccess != model.GeneralAccessWorkspace {
		return ErrInvalidGeneralAccess
	}

	doc, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return err
	}
	doc.GeneralAccess = generalAccess
	return d.store.UpdateDocument(ctx, doc)
}

// SetWorkspaceAccessLevel sets the level workspace members get when the
// document is workspace-wide.
func (d *DocumentService) SetWorkspaceAccessLevel(ctx context.Context, documentID, actorID string, level model.AccessLevel) error {
	if level.Rank() == 0 {
		return ErrInvalidAccessLevel
	}

	doc, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return err
	}
	doc.WorkspaceAccessLevel = level
	return d.store.UpdateDocument(ctx, doc)
}

// EnableWebLink turns on the public link at the given level, optionally with
// an expiry in epoch millis.
func (d *DocumentService) EnableWebLink(ctx context.Context, documentID, actorID string, level model.AccessLevel, expiresAt *int64) error {
	if level.Rank() == 0 || level == model.AccessLevelFull {
		return ErrInvalidAccessLevel
	}

	doc, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return err
	}
	doc.WebLinkEnabled = true
	doc.PublicAccessLevel = level
	doc.PublicLinkExpiresAt = expiresAt
	return d.store.UpdateDocument(ctx, doc)
}

// DisableWebLink turns the public link off.
func (d *DocumentService) DisableWebLink(ctx context.Context, documentID, actorID string) error {
	doc, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return err
	}
	doc.WebLinkEnabled = false
	doc.PublicLinkExpiresAt = nil
	return d.store.UpdateDocument(ctx, doc)
}

// GrantPermission creates or updates an explicit grant on the document.
func (d *DocumentService) GrantPermission(ctx context.Context, documentID, actorID, granteeID string, level model.AccessLevel) error {
	if level.Rank() == 0 {
		return ErrInvalidAccessLevel
	}

	if _, err := d.writeGated(ctx, documentID, actorID); err != nil {
		return err
	}
	return d.store.UpsertDocumentPermission(ctx, &model.DocumentPermission{
		DocumentID:  documentID,
		GranteeID:   granteeID,
		AccessLevel: level,
	})
}

// RevokePermission removes an explicit grant.
func (d *DocumentService) RevokePermission(ctx context.Context, documentID, actorID, granteeID string) error {
	if _, err := d.writeGated(ctx, documentID, actorID); err != nil {
		return err
	}
	return d.store.DeleteDocumentPermission(ctx, documentID, granteeID)
}

// ArchiveDocument soft-deletes the document. It stays in the tree.
func (d *DocumentService) ArchiveDocument(ctx context.Context, documentID, actorID string) error {
	doc, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return err
	}

	now := time.Now()
	doc.IsArchived = true
	doc.ArchivedAt = &now
	if err := d.store.UpdateDocument(ctx, doc); err != nil {
		return err
	}

	d.publishChange(ctx, &queue.DocumentChange{DocumentID: documentID, Kind: queue.ChangeArchived})
	return nil
}

// UnarchiveDocument clears the archived flag.
func (d *DocumentService) UnarchiveDocument(ctx context.Context, documentID, actorID string) error {
	doc, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return err
	}
	doc.IsArchived = false
	doc.ArchivedAt = nil
	return d.store.UpdateDocument(ctx, doc)
}

// EraseDocument hard-deletes the document and its owned subtree, including
// permission, snapshot, step and published state. Descendants outside the
// document's ownership boundary are lifted to its parent instead.
func (d *DocumentService) EraseDocument(ctx context.Context, documentID, actorID string) error {
	_, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return err
	}

	err = d.store.Transaction(ctx, func(tx store.Store) error {
		doc, err := tx.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		return order.EraseSubtree(ctx, tx, doc, ownershipBoundary(doc))
	})
	if err != nil {
		return err
	}

	if d.cache != nil {
		_ = d.cache.Delete(ctx, documentID)
	}
	d.publishChange(ctx, &queue.DocumentChange{DocumentID: documentID, Kind: queue.ChangeErased})
	return nil
}

// ownershipBoundary returns the predicate deciding which descendants the
// erase cascade owns: workspace documents own their workspace's descendants,
// personal documents own the same owner's personal descendants.
func ownershipBoundary(root *model.Document) order.Owned {
	return func(child *model.Document) bool {
		if root.WorkspaceID != nil {
			return child.WorkspaceID != nil && *child.WorkspaceID == *root.WorkspaceID
		}
		return child.WorkspaceID == nil && child.OwnerID == root.OwnerID
	}
}
