package steplog

import (
	"context"
	"os"
	"testing"

	"github.com/pagemint/pagemint/internal/compress"
	"github.com/pagemint/pagemint/internal/doctree"
	"github.com/pagemint/pagemint/internal/store"
	"github.com/pagemint/pagemint/internal/tester"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()
	tester.RemoveDBFile()
	os.Exit(code)
}

func newLog(t *testing.T, codec compress.Compress) *GormLog {
	t.Helper()
	return NewGormLog(store.NewGormStore(tester.TestDB()), codec)
}

func treeAt(version int64) *doctree.Node {
	return doctree.NewDoc(doctree.NewParagraph("p1", string(rune('a'+version))))
}

func TestSubmitSteps(t *testing.T) {
	log := newLog(t, compress.NewNop())
	ctx := context.TODO()
	const docID = "log-doc"

	_, ok, err := log.LatestVersion(ctx, docID)
	assert.NoError(t, err)
	assert.False(t, ok)

	result, err := log.SubmitSteps(ctx, docID, 0, "client-a", []*doctree.Transform{
		doctree.Replace(treeAt(1)),
		doctree.Replace(treeAt(2)),
	})
	assert.NoError(t, err)
	assert.Equal(t, StatusSynced, result.Status)

	version, ok, err := log.LatestVersion(ctx, docID)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), version)

	batch, err := log.GetSteps(ctx, docID, 0)
	assert.NoError(t, err)
	assert.Len(t, batch.Steps, 2)
	assert.Equal(t, int64(2), batch.Version)
	assert.Equal(t, "client-a", batch.Steps[0].ClientID)

	// paging from the middle of the log
	batch, err = log.GetSteps(ctx, docID, 1)
	assert.NoError(t, err)
	assert.Len(t, batch.Steps, 1)
	assert.Equal(t, int64(2), batch.Steps[0].Version)
}

func TestSubmitSteps_NeedsRebase(t *testing.T) {
	log := newLog(t, compress.NewNop())
	ctx := context.TODO()
	const docID = "rebase-doc"

	_, err := log.SubmitSteps(ctx, docID, 0, "client-a", []*doctree.Transform{
		doctree.Replace(treeAt(1)),
		doctree.Replace(treeAt(2)),
	})
	assert.NoError(t, err)

	// client-b is still based on version 1 and must rebase onto step 2
	result, err := log.SubmitSteps(ctx, docID, 1, "client-b", []*doctree.Transform{
		doctree.Replace(treeAt(9)),
	})
	assert.NoError(t, err)
	assert.Equal(t, StatusNeedsRebase, result.Status)
	assert.Len(t, result.Steps, 1)
	assert.Equal(t, int64(2), result.Steps[0].Version)
	assert.Equal(t, []string{"client-a"}, result.ClientIDs)

	// nothing was appended
	version, _, err := log.LatestVersion(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, name := range []string{"nop", "gzip", "brotli", "lz4"} {
		t.Run(name, func(t *testing.T) {
			log := newLog(t, compress.FromName(name))
			ctx := context.TODO()
			docID := "snap-doc-" + name

			snapshot, err := log.GetSnapshot(ctx, docID)
			assert.NoError(t, err)
			assert.Nil(t, snapshot.Content)

			tree := doctree.NewDoc(
				doctree.NewHeading("h1", "Heading", 2),
				doctree.NewParagraph("p1", "some text"),
			)
			assert.NoError(t, log.SubmitSnapshot(ctx, docID, tree, 7))

			snapshot, err = log.GetSnapshot(ctx, docID)
			assert.NoError(t, err)
			assert.Equal(t, int64(7), snapshot.Version)
			assert.Equal(t, tree.ContentHash(), snapshot.Content.ContentHash())

			// resubmitting replaces the single snapshot row
			assert.NoError(t, log.SubmitSnapshot(ctx, docID, tree, 9))
			snapshot, err = log.GetSnapshot(ctx, docID)
			assert.NoError(t, err)
			assert.Equal(t, int64(9), snapshot.Version)
		})
	}
}
