// Package sync rebuilds the authoritative current state of a document from
// its snapshot plus the step log.
package sync

import (
	"context"
	"errors"

	"github.com/pagemint/pagemint/internal/doctree"
	"github.com/pagemint/pagemint/internal/steplog"
)

var (
	// ErrMissingSnapshotState means a snapshot exists but the step log is
	// empty, which the log invariants rule out.
	ErrMissingSnapshotState = errors.New("missing snapshot state")
	// ErrStaleSyncState means replay could not reach the head version within
	// the iteration ceiling. Callers retry the whole request.
	ErrStaleSyncState = errors.New("stale sync state")
)

// maxReplayBatches bounds the replay loop against runaway logs.
const maxReplayBatches = 25

// State is a reconstructed document tree at a version.
type State struct {
	Tree    *doctree.Node
	Version int64
}

// Reconstructor rebuilds document state. It is read-only and safe to run
// concurrently with writers; a write landing mid-replay surfaces as
// ErrStaleSyncState at worst.
type Reconstructor struct {
	log steplog.Log
}

func NewReconstructor(log steplog.Log) *Reconstructor {
	return &Reconstructor{log: log}
}

// Reconstruct returns the current tree and version of the document, or nil
// when the document has never been edited.
func (r *Reconstructor) Reconstruct(ctx context.Context, documentID string) (*State, error) {
	latest, ok, err := r.log.LatestVersion(ctx, documentID)
	if err != nil {
		return nil, err
	}

	snapshot, err := r.log.GetSnapshot(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if !ok {
		if snapshot.Content == nil {
			// Never edited; callers treat nil as "not yet materialized".
			return nil, nil
		}
		return nil, ErrMissingSnapshotState
	}

	state := &State{Tree: doctree.NewDoc(), Version: 0}
	if snapshot.Content != nil {
		state.Tree = snapshot.Content
		state.Version = snapshot.Version
	}

	if state.Version == latest {
		return state, nil
	}

	for i := 0; i < maxReplayBatches; i++ {
		batch, err := r.log.GetSteps(ctx, documentID, state.Version)
		if err != nil {
			return nil, err
		}
		if len(batch.Steps) == 0 {
			break
		}

		for _, step := range batch.Steps {
			tree, err := step.Transform.Apply(state.Tree)
			if err != nil {
				return nil, err
			}
			state.Tree = tree
		}
		state.Version = batch.Version

		if state.Version == latest {
			return state, nil
		}
	}

	if state.Version == latest {
		return state, nil
	}
	return nil, ErrStaleSyncState
}
