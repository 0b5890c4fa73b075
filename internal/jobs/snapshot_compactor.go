package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pagemint/pagemint/internal/steplog"
	"github.com/pagemint/pagemint/internal/store"
	"github.com/pagemint/pagemint/internal/sync"
)

// SnapshotCompactor folds long step logs into fresh snapshots so replay stays
// within the reconstructor's batch ceiling.
type SnapshotCompactor struct {
	store     store.Store
	log       steplog.Log
	threshold int64
	cron      string
}

func NewSnapshotCompactor(interval string, store store.Store, log steplog.Log, threshold int64) *SnapshotCompactor {
	return &SnapshotCompactor{
		store:     store,
		log:       log,
		threshold: threshold,
		cron:      interval,
	}
}

func (c *SnapshotCompactor) Schedule() string {
	return c.cron
}

func (c *SnapshotCompactor) Run() {
	ctx := context.Background()

	ids, err := c.store.ListStepDocumentIDs(ctx)
	if err != nil {
		logrus.Errorf("compactor failed to list documents: %v", err)
		return
	}

	for _, id := range ids {
		if err := c.compact(ctx, id); err != nil {
			logrus.Errorf("compaction failed for document %s: %v", id, err)
		}
	}
}

func (c *SnapshotCompactor) compact(ctx context.Context, documentID string) error {
	snapshot, err := c.log.GetSnapshot(ctx, documentID)
	if err != nil {
		return err
	}

	var since int64
	if snapshot.Content != nil {
		since = snapshot.Version
	}
	count, err := c.store.CountStepsSince(ctx, documentID, since)
	if err != nil {
		return err
	}
	if count < c.threshold {
		return nil
	}

	state, err := sync.NewReconstructor(c.log).Reconstruct(ctx, documentID)
	if err != nil || state == nil {
		return err
	}

	// Snapshot first: if the trim below fails the log is merely longer than
	// needed, never inconsistent.
	if err := c.log.SubmitSnapshot(ctx, documentID, state.Tree, state.Version); err != nil {
		return err
	}
	// The head step stays so the log keeps reporting its latest version.
	if err := c.store.DeleteStepsThrough(ctx, documentID, state.Version-1); err != nil {
		return err
	}

	logrus.Infof("compacted document %s at version %d (%d steps folded)", documentID, state.Version, count)
	return nil
}
