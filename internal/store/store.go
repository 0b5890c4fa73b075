package store

import (
	"context"

	"github.com/pagemint/pagemint/internal/model"
)

type Store interface {
	DocumentStore
	PermissionStore
	StepStore
	PublishedDocumentStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentStore interface {
	// CreateDocument creates a new document.
	CreateDocument(ctx context.Context, doc *model.Document) error
	// GetDocument retrieves a document by ID. Returns ErrDocumentNotFound when absent.
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// UpdateDocument updates a document.
	UpdateDocument(ctx context.Context, doc *model.Document) error
	// ListDocuments retrieves the documents of a workspace.
	ListDocuments(ctx context.Context, workspaceID string) ([]*model.Document, int64, error)
	// ListChildren retrieves the direct children of a parent, ordered by sort order.
	// A nil parentID selects root documents.
	ListChildren(ctx context.Context, parentID *string) ([]*model.Document, error)
	// MaxSiblingOrder returns the highest order among the children of parentID,
	// or -1 when the sibling group is empty.
	MaxSiblingOrder(ctx context.Context, parentID *string) (int, error)
	// ShiftSiblingRange adds delta to the order of every child of parentID
	// whose order lies in [low, high].
	ShiftSiblingRange(ctx context.Context, parentID *string, low, high, delta int) error
	// ShiftSiblingsFrom adds delta to the order of every child of parentID
	// whose order is >= low.
	ShiftSiblingsFrom(ctx context.Context, parentID *string, low, delta int) error
	// EraseDocument removes a single document row permanently.
	EraseDocument(ctx context.Context, id string) error
	// ListExpiredWebLinks returns documents whose public link expiry is at or
	// before now (epoch millis) and whose link is still enabled.
	ListExpiredWebLinks(ctx context.Context, now int64) ([]*model.Document, error)
}

type PermissionStore interface {
	// GetWorkspaceMembership returns the membership row, or nil when the user
	// is not a member.
	GetWorkspaceMembership(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMembership, error)
	// CreateWorkspaceMembership creates a membership row.
	CreateWorkspaceMembership(ctx context.Context, m *model.WorkspaceMembership) error
	// GetTeamspace returns the teamspace, or nil when absent.
	GetTeamspace(ctx context.Context, id string) (*model.Teamspace, error)
	// CreateTeamspace creates a teamspace.
	CreateTeamspace(ctx context.Context, ts *model.Teamspace) error
	// HasTeamspaceMembership reports whether the user belongs to the teamspace.
	HasTeamspaceMembership(ctx context.Context, teamspaceID, userID string) (bool, error)
	// CreateTeamspaceMembership creates a teamspace membership row.
	CreateTeamspaceMembership(ctx context.Context, m *model.TeamspaceMembership) error
	// GetDocumentPermission returns the explicit grant for the user, or nil.
	GetDocumentPermission(ctx context.Context, documentID, userID string) (*model.DocumentPermission, error)
	// UpsertDocumentPermission creates or updates an explicit grant.
	UpsertDocumentPermission(ctx context.Context, p *model.DocumentPermission) error
	// DeleteDocumentPermission revokes an explicit grant.
	DeleteDocumentPermission(ctx context.Context, documentID, userID string) error
	// DeleteDocumentPermissions removes all grants of a document.
	DeleteDocumentPermissions(ctx context.Context, documentID string) error
}

type StepStore interface {
	// LatestStepVersion returns the head version of the document's step log.
	// ok is false when the log has never been written.
	LatestStepVersion(ctx context.Context, documentID string) (version int64, ok bool, err error)
	// GetSnapshot returns the document's snapshot, or nil when none exists.
	GetSnapshot(ctx context.Context, documentID string) (*model.Snapshot, error)
	// SaveSnapshot creates or replaces the document's snapshot.
	SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error
	// ListStepsSince returns up to limit steps with version > sinceVersion,
	// ordered by version.
	ListStepsSince(ctx context.Context, documentID string, sinceVersion int64, limit int) ([]*model.Step, error)
	// CreateSteps appends steps to the log.
	CreateSteps(ctx context.Context, steps []*model.Step) error
	// CountStepsSince counts steps with version > sinceVersion.
	CountStepsSince(ctx context.Context, documentID string, sinceVersion int64) (int64, error)
	// DeleteStepsThrough removes steps with version <= version.
	DeleteStepsThrough(ctx context.Context, documentID string, version int64) error
	// DeleteStepState removes all snapshot and step rows of a document.
	DeleteStepState(ctx context.Context, documentID string) error
	// ListStepDocumentIDs returns the distinct document ids present in the
	// step log.
	ListStepDocumentIDs(ctx context.Context) ([]string, error)
}

type PublishedDocumentStore interface {
	// CreatePublishedDocument stores a new published version.
	CreatePublishedDocument(ctx context.Context, doc *model.PublishedDocument) error
	// GetLatestPublishedDocument returns the most recently published version.
	GetLatestPublishedDocument(ctx context.Context, documentID string) (*model.PublishedDocument, error)
	// ListPublishedVersions lists published versions, newest first.
	ListPublishedVersions(ctx context.Context, documentID string) ([]*model.PublishedDocument, error)
	// DeletePublishedDocuments removes all published versions of a document.
	DeletePublishedDocuments(ctx context.Context, documentID string) error
}
