package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver"
	"github.com/sirupsen/logrus"

	"github.com/pagemint/pagemint/internal/doctree"
	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/queue"
	"github.com/pagemint/pagemint/internal/steplog"
	"github.com/pagemint/pagemint/internal/store"
	"github.com/pagemint/pagemint/internal/sync"
)

// PublishDocument publishes the document's current tree as an immutable
// version. Without an explicit version the first publish is 0.0.1 and every
// further publish bumps the patch; an explicit version must be greater than
// the current one.
func (d *DocumentService) PublishDocument(ctx context.Context, documentID, actorID, requestedVersion string) (*model.PublishedDocument, error) {
	doc, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return nil, err
	}

	var published *model.PublishedDocument

	err = d.store.Transaction(ctx, func(tx store.Store) error {
		txLog := steplog.NewGormLog(tx, d.compress)

		state, err := sync.NewReconstructor(txLog).Reconstruct(ctx, documentID)
		if err != nil {
			return err
		}
		if state == nil {
			state = &sync.State{Tree: doctree.NewDoc(), Version: 0}
		}

		content, err := state.Tree.Encode()
		if err != nil {
			return err
		}

		version, err := nextPublishedVersion(ctx, tx, documentID, requestedVersion)
		if err != nil {
			return err
		}

		published = &model.PublishedDocument{
			DocumentID:  documentID,
			Version:     version.String(),
			WorkspaceID: doc.WorkspaceID,
			Title:       doc.Title,
			Content:     string(content),
		}
		if err := tx.CreatePublishedDocument(ctx, published); err != nil {
			return err
		}

		doc, err := tx.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		doc.IsPublished = true
		return tx.UpdateDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("published document %s as version %s", documentID, published.Version)
	d.publishChange(ctx, &queue.DocumentChange{DocumentID: documentID, Kind: queue.ChangePublished})

	return published, nil
}

func nextPublishedVersion(ctx context.Context, tx store.Store, documentID, requested string) (*semver.Version, error) {
	latest, err := tx.GetLatestPublishedDocument(ctx, documentID)
	if err != nil && !errors.Is(err, store.ErrLatestPublishedDocumentNotFound) {
		return nil, err
	}

	if latest == nil {
		version, err := semver.NewVersion("0.0.1") // initial version
		if err != nil {
			return nil, err
		}
		if requested != "" {
			version, err = semver.NewVersion(requested)
			if err != nil {
				return nil, err
			}
		}
		return version, nil
	}

	version, err := semver.NewVersion(latest.Version)
	if err != nil {
		return nil, err
	}
	*version = version.IncPatch()

	if requested != "" {
		newVersion, err := semver.NewVersion(requested)
		if err != nil {
			return nil, err
		}
		if newVersion.LessThan(version) {
			return nil, fmt.Errorf("new version must be greater than current version")
		}
		version = newVersion
	}
	return version, nil
}

// UnpublishDocument removes all published versions and clears the flag.
func (d *DocumentService) UnpublishDocument(ctx context.Context, documentID, actorID string) error {
	doc, err := d.writeGated(ctx, documentID, actorID)
	if err != nil {
		return err
	}

	return d.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.DeletePublishedDocuments(ctx, documentID); err != nil {
			return err
		}
		doc.IsPublished = false
		return tx.UpdateDocument(ctx, doc)
	})
}

// ListPublishedVersions lists a document's published versions, newest first.
func (d *DocumentService) ListPublishedVersions(ctx context.Context, documentID, actorID string) ([]*model.PublishedDocument, error) {
	if _, err := d.GetDocument(ctx, documentID, actorID); err != nil {
		return nil, err
	}
	return d.store.ListPublishedVersions(ctx, documentID)
}
