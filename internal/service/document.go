package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"

	"github.com/pagemint/pagemint/internal/cache"
	"github.com/pagemint/pagemint/internal/compress"
	"github.com/pagemint/pagemint/internal/doctree"
	"github.com/pagemint/pagemint/internal/engine"
	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/order"
	"github.com/pagemint/pagemint/internal/permission"
	"github.com/pagemint/pagemint/internal/queue"
	"github.com/pagemint/pagemint/internal/steplog"
	"github.com/pagemint/pagemint/internal/store"
	"github.com/pagemint/pagemint/internal/sync"
)

// NewDocumentService creates a new DocumentService. The cache and queue are
// optional; nil disables them.
func NewDocumentService(compress compress.Compress, store store.Store, redis *cache.Redis, queue queue.DocumentQueue) *DocumentService {
	return &DocumentService{
		compress: compress,
		store:    store,
		cache:    redis,
		queue:    queue,
		log:      steplog.NewGormLog(store, compress),
		resolver: permission.NewResolver(store),
		engine:   engine.New(engine.DefaultConfig()),
	}
}

// DocumentService exposes the workspace entrypoints: permission-gated reads,
// structured edits, reordering, sharing and publishing. Each entrypoint runs
// as one transaction against the store.
type DocumentService struct {
	compress compress.Compress
	store    store.Store
	cache    *cache.Redis
	queue    queue.DocumentQueue
	log      steplog.Log
	resolver *permission.Resolver
	engine   *engine.Engine
}

// CheckRead raises ErrUnauthorized unless the actor may read the document.
// A missing document is a no-op so deletion races with in-flight sessions
// stay quiet.
func (d *DocumentService) CheckRead(ctx context.Context, documentID, actorID string) error {
	doc, err := d.store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	ok, err := d.resolver.CanRead(ctx, doc, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// CheckWrite is CheckRead at write level.
func (d *DocumentService) CheckWrite(ctx context.Context, documentID, actorID string) error {
	doc, err := d.store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	ok, err := d.resolver.CanWrite(ctx, doc, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// CreateDocumentRequest carries the fields of a new document.
type CreateDocumentRequest struct {
	DocumentID  string
	ParentID    *string
	WorkspaceID *string
	TeamspaceID *string
	OwnerID     string
	Title       string
	IsTemplate  bool
}

// CreateDocument creates a document at the end of its sibling group.
func (d *DocumentService) CreateDocument(ctx context.Context, request *CreateDocumentRequest) (*model.Document, error) {
	doc := &model.Document{
		ID:                   request.DocumentID,
		ParentID:             request.ParentID,
		WorkspaceID:          request.WorkspaceID,
		TeamspaceID:          request.TeamspaceID,
		OwnerID:              request.OwnerID,
		Title:                request.Title,
		IsTemplate:           request.IsTemplate,
		GeneralAccess:        model.GeneralAccessPrivate,
		WorkspaceAccessLevel: model.AccessLevelFull,
		PublicAccessLevel:    model.AccessLevelView,
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	err := d.store.Transaction(ctx, func(tx store.Store) error {
		next, err := order.NextOrder(ctx, tx, request.ParentID)
		if err != nil {
			return err
		}
		doc.Order = next
		return tx.CreateDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetDocument returns the document after the read gate. Unlike the gate
// checks, a missing id here is a hard ErrNotFound.
func (d *DocumentService) GetDocument(ctx context.Context, documentID, actorID string) (*model.Document, error) {
	doc, err := d.store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	ok, err := d.resolver.CanRead(ctx, doc, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	return doc, nil
}

// GetDocumentState returns the reconstructed tree of the document, or nil
// when it has never been edited.
func (d *DocumentService) GetDocumentState(ctx context.Context, documentID, actorID string) (*sync.State, error) {
	if _, err := d.GetDocument(ctx, documentID, actorID); err != nil {
		return nil, err
	}
	return d.currentState(ctx, d.log, documentID)
}

// ListDocuments returns the workspace documents the actor may read.
func (d *DocumentService) ListDocuments(ctx context.Context, workspaceID, actorID string) ([]*model.Document, error) {
	docs, _, err := d.store.ListDocuments(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var visible []*model.Document
	for _, doc := range docs {
		ok, err := d.resolver.CanRead(ctx, doc, actorID)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, doc)
		}
	}
	return visible, nil
}

// currentState returns the document's current tree, preferring a cached copy
// verified against the step log head.
func (d *DocumentService) currentState(ctx context.Context, log steplog.Log, documentID string) (*sync.State, error) {
	if d.cache != nil {
		cached, err := d.cache.GetState(ctx, documentID)
		if err != nil {
			logrus.Warnf("document state cache read failed: %v", err)
		} else if cached != nil {
			head, ok, err := log.LatestVersion(ctx, documentID)
			if err != nil {
				return nil, err
			}
			if ok && cached.Version == head {
				return &sync.State{Tree: cached.Tree, Version: cached.Version}, nil
			}
		}
	}

	return sync.NewReconstructor(log).Reconstruct(ctx, documentID)
}

func (d *DocumentService) cacheState(ctx context.Context, documentID string, state *sync.State) {
	if d.cache == nil {
		return
	}
	err := d.cache.SetState(ctx, documentID, &cache.State{Version: state.Version, Tree: state.Tree})
	if err != nil {
		logrus.Warnf("document state cache write failed: %v", err)
	}
}

func (d *DocumentService) publishChange(ctx context.Context, change *queue.DocumentChange) {
	if d.queue == nil {
		return
	}
	if err := d.queue.PublishChange(ctx, change); err != nil {
		logrus.Errorf("failed to publish document change: %v", err)
	}
}

// ApplyEditRequest is one structured edit batch against a document.
type ApplyEditRequest struct {
	DocumentID          string
	ActorID             string
	ClientID            string
	Ops                 []engine.Op
	ExpectedWorkspaceID *string
	IdempotencySeed     string
}

// ApplyEditResult reports the batch outcome. OK false with a message covers
// validation and soft failures; hard failures surface as errors.
type ApplyEditResult struct {
	OK              bool
	Error           string
	UpdatedBlockIDs []string
}

// ApplyStructuredEdit validates and applies the batch, committing the result
// as exactly one whole-document replace step. Soft failures abort the commit
// and are reported as data.
func (d *DocumentService) ApplyStructuredEdit(ctx context.Context, request *ApplyEditRequest) (*ApplyEditResult, error) {
	doc, err := d.store.GetDocument(ctx, request.DocumentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if request.ExpectedWorkspaceID != nil {
		if doc.WorkspaceID == nil || *doc.WorkspaceID != *request.ExpectedWorkspaceID {
			return nil, status.New(codes.FailedPrecondition, fmt.Sprintf("document %s is not in workspace %s", doc.ID, *request.ExpectedWorkspaceID)).Err()
		}
	}

	ok, err := d.resolver.CanWrite(ctx, doc, request.ActorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	var result *ApplyEditResult
	var committed *sync.State

	err = d.store.Transaction(ctx, func(tx store.Store) error {
		txLog := steplog.NewGormLog(tx, d.compress)

		state, err := d.currentState(ctx, txLog, request.DocumentID)
		if err != nil {
			return err
		}
		if state == nil {
			state = &sync.State{Tree: doctree.NewDoc(), Version: 0}
		}

		applied, err := d.engine.Apply(state.Tree, request.Ops, request.IdempotencySeed)
		if errors.Is(err, engine.ErrValidation) {
			result = &ApplyEditResult{OK: false, Error: err.Error(), UpdatedBlockIDs: []string{}}
			return nil
		}
		if err != nil {
			return err
		}

		if len(applied.SoftFailures) > 0 {
			// The mutated tree is discarded; nothing is submitted.
			result = &ApplyEditResult{
				OK:              false,
				Error:           engine.FailureSummary(applied.SoftFailures),
				UpdatedBlockIDs: applied.UpdatedBlockIDs,
			}
			return nil
		}

		result = &ApplyEditResult{OK: true, UpdatedBlockIDs: applied.UpdatedBlockIDs}
		if len(request.Ops) == 0 {
			return nil
		}

		clientID := request.ClientID
		if clientID == "" {
			clientID = request.ActorID
		}
		submit, err := txLog.SubmitSteps(ctx, request.DocumentID, state.Version, clientID, []*doctree.Transform{doctree.Replace(applied.Tree)})
		if err != nil {
			return err
		}
		if submit.Status == steplog.StatusNeedsRebase {
			// A concurrent writer landed between reconstruct and submit.
			return sync.ErrStaleSyncState
		}

		doc, err = tx.GetDocument(ctx, request.DocumentID)
		if err != nil {
			return err
		}
		doc.Version = state.Version + 1
		doc.SearchableText = applied.Tree.SearchText()
		doc.ContentHash = applied.Tree.ContentHash()
		if err := tx.UpdateDocument(ctx, doc); err != nil {
			return err
		}

		committed = &sync.State{Tree: applied.Tree, Version: doc.Version}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if committed != nil {
		d.cacheState(ctx, request.DocumentID, committed)
		d.publishChange(ctx, &queue.DocumentChange{
			DocumentID:     request.DocumentID,
			Kind:           queue.ChangeEdited,
			Version:        committed.Version,
			ContentHash:    doc.ContentHash,
			SearchableText: doc.SearchableText,
		})
	}

	return result, nil
}

// ReorderDocument moves the document to newOrder under newParentID (nil keeps
// it at the root), maintaining dense sibling orders.
func (d *DocumentService) ReorderDocument(ctx context.Context, documentID, actorID string, newOrder int, newParentID *string) error {
	doc, err := d.store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	ok, err := d.resolver.CanWrite(ctx, doc, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	err = d.store.Transaction(ctx, func(tx store.Store) error {
		doc, err := tx.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		return order.Reorder(ctx, tx, doc, newParentID, newOrder)
	})
	if err != nil {
		return err
	}

	d.publishChange(ctx, &queue.DocumentChange{DocumentID: documentID, Kind: queue.ChangeReordered})
	return nil
}
