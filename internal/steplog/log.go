// Package steplog stores document edit history as an append-only log of
// transforms plus one materialized snapshot per document.
package steplog

import (
	"context"

	"github.com/pagemint/pagemint/internal/doctree"
)

// SubmitStatus is the outcome of a SubmitSteps call.
type SubmitStatus string

const (
	StatusSynced      SubmitStatus = "synced"
	StatusNeedsRebase SubmitStatus = "needs-rebase"
)

// Snapshot is a materialized tree at a version. Content is nil when the
// document was never snapshotted.
type Snapshot struct {
	Content *doctree.Node
	Version int64
}

// Step is one decoded log entry.
type Step struct {
	Version   int64
	ClientID  string
	Transform *doctree.Transform
}

// StepBatch is a page of steps; Version is the version reached after applying
// every step in the batch.
type StepBatch struct {
	Steps   []Step
	Version int64
}

// SubmitResult reports whether submitted steps were appended or the client
// must rebase onto the returned outstanding steps first.
type SubmitResult struct {
	Status    SubmitStatus
	Steps     []Step
	ClientIDs []string
}

// Log is the step-log contract consumed by the sync reconstructor and the
// edit service.
type Log interface {
	// LatestVersion returns the head version of the document's log; ok is
	// false when the log is empty.
	LatestVersion(ctx context.Context, documentID string) (version int64, ok bool, err error)
	// GetSnapshot returns the document snapshot; Content is nil when none exists.
	GetSnapshot(ctx context.Context, documentID string) (*Snapshot, error)
	// GetSteps returns a batch of steps with version > sinceVersion.
	GetSteps(ctx context.Context, documentID string, sinceVersion int64) (*StepBatch, error)
	// SubmitSnapshot stores content as the document snapshot at version.
	SubmitSnapshot(ctx context.Context, documentID string, content *doctree.Node, version int64) error
	// SubmitSteps appends steps on top of version. When version is behind the
	// head the result carries the outstanding steps to rebase onto.
	SubmitSteps(ctx context.Context, documentID string, version int64, clientID string, steps []*doctree.Transform) (*SubmitResult, error)
}
