// Package permission evaluates read and write eligibility for a document and
// an actor against the layered sharing model: owner, workspace membership,
// teamspace restriction, explicit grant, public link, published site.
package permission

import (
	"context"
	"time"

	"github.com/pagemint/pagemint/internal/model"
)

// Lookup provides the membership and grant rows the resolver needs.
// The store satisfies this; tests inject fakes.
type Lookup interface {
	GetWorkspaceMembership(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMembership, error)
	GetTeamspace(ctx context.Context, id string) (*model.Teamspace, error)
	HasTeamspaceMembership(ctx context.Context, teamspaceID, userID string) (bool, error)
	GetDocumentPermission(ctx context.Context, documentID, userID string) (*model.DocumentPermission, error)
}

// Resolver decides document access. It performs no writes; all state comes
// from the injected Lookup and the document itself.
type Resolver struct {
	lookup Lookup
	now    func() time.Time
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		now:    time.Now,
	}
}

// NewResolverAt is like NewResolver with a fixed clock, for tests.
func NewResolverAt(lookup Lookup, now func() time.Time) *Resolver {
	return &Resolver{lookup: lookup, now: now}
}

// CanRead reports whether actorID may read the document. An empty actorID is
// an anonymous caller.
func (r *Resolver) CanRead(ctx context.Context, doc *model.Document, actorID string) (bool, error) {
	return r.resolve(ctx, doc, actorID, false)
}

// CanWrite reports whether actorID may mutate the document.
func (r *Resolver) CanWrite(ctx context.Context, doc *model.Document, actorID string) (bool, error) {
	return r.resolve(ctx, doc, actorID, true)
}

// resolve walks the access layers in order; the first matching layer wins.
func (r *Resolver) resolve(ctx context.Context, doc *model.Document, actorID string, write bool) (bool, error) {
	if doc == nil {
		return false, nil
	}

	// Published sites are world-readable.
	if doc.IsPublished && !write {
		return true, nil
	}

	// Active public link. An expired link degrades to the private path.
	if doc.WebLinkEnabled && !doc.PublicLinkExpired(r.now()) {
		if !write {
			return true, nil
		}
		if doc.PublicAccessLevel.IsWriteLevel() {
			return true, nil
		}
	}

	if actorID == "" {
		return false, nil
	}

	// Personal document: no workspace, no teamspace. Only the owner.
	if doc.WorkspaceID == nil && doc.TeamspaceID == nil {
		return doc.OwnerID == actorID, nil
	}

	workspaceID, err := r.effectiveWorkspace(ctx, doc)
	if err != nil {
		return false, err
	}
	if workspaceID == "" {
		// A document referencing a missing teamspace resolves to no workspace.
		return false, nil
	}

	membership, err := r.lookup.GetWorkspaceMembership(ctx, workspaceID, actorID)
	if err != nil {
		return false, err
	}
	if membership == nil {
		return false, nil
	}
	if membership.Role == model.RoleOwner {
		return true, nil
	}
	if doc.OwnerID == actorID {
		return true, nil
	}

	// Restricted teamspaces require teamspace membership on top of the
	// workspace membership.
	if doc.TeamspaceID != nil {
		ts, err := r.lookup.GetTeamspace(ctx, *doc.TeamspaceID)
		if err != nil {
			return false, err
		}
		if ts != nil && ts.IsRestricted {
			member, err := r.lookup.HasTeamspaceMembership(ctx, ts.ID, actorID)
			if err != nil {
				return false, err
			}
			if !member {
				return false, nil
			}
		}
	}

	if doc.GeneralAccess == model.GeneralAccessWorkspace {
		if !write {
			return true, nil
		}
		if doc.WorkspaceAccessLevel.IsWriteLevel() {
			return true, nil
		}
		return false, nil
	}

	grant, err := r.lookup.GetDocumentPermission(ctx, doc.ID, actorID)
	if err != nil {
		return false, err
	}
	if grant == nil {
		return false, nil
	}
	if write {
		return grant.AccessLevel.IsWriteLevel(), nil
	}
	return true, nil
}

// effectiveWorkspace returns the workspace governing the document, following
// the teamspace indirection when the document has no direct workspace.
func (r *Resolver) effectiveWorkspace(ctx context.Context, doc *model.Document) (string, error) {
	if doc.WorkspaceID != nil {
		return *doc.WorkspaceID, nil
	}
	if doc.TeamspaceID == nil {
		return "", nil
	}
	ts, err := r.lookup.GetTeamspace(ctx, *doc.TeamspaceID)
	if err != nil {
		return "", err
	}
	if ts == nil {
		return "", nil
	}
	return ts.WorkspaceID, nil
}
