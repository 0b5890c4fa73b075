package jobs

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pagemint/pagemint/internal/compress"
	"github.com/pagemint/pagemint/internal/doctree"
	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/steplog"
	"github.com/pagemint/pagemint/internal/store"
	"github.com/pagemint/pagemint/internal/sync"
	"github.com/pagemint/pagemint/internal/tester"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()
	tester.RemoveDBFile()
	os.Exit(code)
}

func TestLinkSweeper(t *testing.T) {
	s := store.NewGormStore(tester.TestDB())
	ctx := context.TODO()

	past := time.Now().Add(-time.Hour).UnixMilli()
	future := time.Now().Add(time.Hour).UnixMilli()

	expired := &model.Document{ID: "sweep-expired", OwnerID: "alice", WebLinkEnabled: true, PublicLinkExpiresAt: &past}
	live := &model.Document{ID: "sweep-live", OwnerID: "alice", WebLinkEnabled: true, PublicLinkExpiresAt: &future}
	forever := &model.Document{ID: "sweep-forever", OwnerID: "alice", WebLinkEnabled: true}
	assert.NoError(t, s.CreateDocument(ctx, expired))
	assert.NoError(t, s.CreateDocument(ctx, live))
	assert.NoError(t, s.CreateDocument(ctx, forever))

	NewLinkSweeper("@every 1m", s).Run()

	doc, err := s.GetDocument(ctx, "sweep-expired")
	assert.NoError(t, err)
	assert.False(t, doc.WebLinkEnabled)
	assert.Nil(t, doc.PublicLinkExpiresAt)

	for _, id := range []string{"sweep-live", "sweep-forever"} {
		doc, err := s.GetDocument(ctx, id)
		assert.NoError(t, err)
		assert.True(t, doc.WebLinkEnabled)
	}
}

func TestSnapshotCompactor(t *testing.T) {
	s := store.NewGormStore(tester.TestDB())
	log := steplog.NewGormLog(s, compress.NewGZip())
	ctx := context.TODO()
	const docID = "compact-doc"

	// build a log of 10 replace steps
	for i := int64(0); i < 10; i++ {
		tree := doctree.NewDoc(doctree.NewParagraph("p1", time.Duration(i).String()))
		result, err := log.SubmitSteps(ctx, docID, i, "client", []*doctree.Transform{doctree.Replace(tree)})
		assert.NoError(t, err)
		assert.Equal(t, steplog.StatusSynced, result.Status)
	}

	before, err := sync.NewReconstructor(log).Reconstruct(ctx, docID)
	assert.NoError(t, err)

	NewSnapshotCompactor("@every 5m", s, log, 5).Run()

	// the log was folded into a snapshot, keeping only the head step
	snapshot, err := log.GetSnapshot(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), snapshot.Version)
	count, err := s.CountStepsSince(ctx, docID, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// reconstruction sees the same state as before compaction
	after, err := sync.NewReconstructor(log).Reconstruct(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Tree.ContentHash(), after.Tree.ContentHash())

	// a second run is a no-op below the threshold
	NewSnapshotCompactor("@every 5m", s, log, 5).Run()
	count, err = s.CountStepsSince(ctx, docID, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
