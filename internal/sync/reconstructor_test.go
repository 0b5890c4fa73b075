package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/pagemint/pagemint/internal/doctree"
	"github.com/pagemint/pagemint/internal/steplog"
	"github.com/stretchr/testify/assert"
)

// memLog is an in-memory step log with a configurable page size, so the
// replay ceiling can be exercised without thousands of rows.
type memLog struct {
	snapshot  *steplog.Snapshot
	steps     []steplog.Step
	batchSize int
}

func newMemLog(batchSize int) *memLog {
	return &memLog{batchSize: batchSize}
}

func (m *memLog) LatestVersion(_ context.Context, _ string) (int64, bool, error) {
	if len(m.steps) == 0 {
		return 0, false, nil
	}
	return m.steps[len(m.steps)-1].Version, true, nil
}

func (m *memLog) GetSnapshot(_ context.Context, _ string) (*steplog.Snapshot, error) {
	if m.snapshot == nil {
		return &steplog.Snapshot{}, nil
	}
	return m.snapshot, nil
}

func (m *memLog) GetSteps(_ context.Context, _ string, sinceVersion int64) (*steplog.StepBatch, error) {
	batch := &steplog.StepBatch{Version: sinceVersion}
	for _, step := range m.steps {
		if step.Version <= sinceVersion {
			continue
		}
		batch.Steps = append(batch.Steps, step)
		batch.Version = step.Version
		if len(batch.Steps) == m.batchSize {
			break
		}
	}
	return batch, nil
}

func (m *memLog) SubmitSnapshot(_ context.Context, _ string, content *doctree.Node, version int64) error {
	m.snapshot = &steplog.Snapshot{Content: content, Version: version}
	return nil
}

func (m *memLog) SubmitSteps(_ context.Context, _ string, version int64, clientID string, transforms []*doctree.Transform) (*steplog.SubmitResult, error) {
	head, _, _ := m.LatestVersion(context.TODO(), "")
	if version != head {
		return &steplog.SubmitResult{Status: steplog.StatusNeedsRebase}, nil
	}
	for i, transform := range transforms {
		m.steps = append(m.steps, steplog.Step{
			Version:   version + int64(i) + 1,
			ClientID:  clientID,
			Transform: transform,
		})
	}
	return &steplog.SubmitResult{Status: steplog.StatusSynced}, nil
}

// appendSteps pushes n replace steps on top of the current head, each carrying
// a tree whose single block text names the version it produces.
func (m *memLog) appendSteps(t *testing.T, n int) {
	t.Helper()
	head, _, _ := m.LatestVersion(context.TODO(), "")
	for i := 0; i < n; i++ {
		version := head + int64(i) + 1
		tree := doctree.NewDoc(doctree.NewParagraph("p1", fmt.Sprintf("v%d", version)))
		m.steps = append(m.steps, steplog.Step{
			Version:   version,
			ClientID:  "client",
			Transform: doctree.Replace(tree),
		})
	}
}

func TestReconstruct_NeverEdited(t *testing.T) {
	r := NewReconstructor(newMemLog(100))

	state, err := r.Reconstruct(context.TODO(), "doc")
	assert.NoError(t, err)
	assert.Nil(t, state)
}

func TestReconstruct_SnapshotWithoutLog(t *testing.T) {
	log := newMemLog(100)
	log.snapshot = &steplog.Snapshot{Content: doctree.NewDoc(), Version: 3}
	r := NewReconstructor(log)

	state, err := r.Reconstruct(context.TODO(), "doc")
	assert.ErrorIs(t, err, ErrMissingSnapshotState)
	assert.Nil(t, state)
}

func TestReconstruct_SnapshotAtHead(t *testing.T) {
	log := newMemLog(100)
	log.appendSteps(t, 4)
	log.snapshot = &steplog.Snapshot{
		Content: doctree.NewDoc(doctree.NewParagraph("p1", "v4")),
		Version: 4,
	}
	r := NewReconstructor(log)

	state, err := r.Reconstruct(context.TODO(), "doc")
	assert.NoError(t, err)
	assert.Equal(t, int64(4), state.Version)
	assert.Equal(t, "v4", state.Tree.Children[0].Text)
}

func TestReconstruct_ReplayFromEmptyDoc(t *testing.T) {
	log := newMemLog(100)
	log.appendSteps(t, 3)
	r := NewReconstructor(log)

	state, err := r.Reconstruct(context.TODO(), "doc")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), state.Version)
	assert.Equal(t, "v3", state.Tree.Children[0].Text)
}

func TestReconstruct_ReplayOnTopOfSnapshot(t *testing.T) {
	log := newMemLog(2)
	log.appendSteps(t, 9)
	log.snapshot = &steplog.Snapshot{
		Content: doctree.NewDoc(doctree.NewParagraph("p1", "v4")),
		Version: 4,
	}
	r := NewReconstructor(log)

	state, err := r.Reconstruct(context.TODO(), "doc")
	assert.NoError(t, err)
	assert.Equal(t, int64(9), state.Version)
	assert.Equal(t, "v9", state.Tree.Children[0].Text)
}

func TestReconstruct_ReplayCeiling(t *testing.T) {
	// 26 single-step batches are one past the 25 batch ceiling
	log := newMemLog(1)
	log.appendSteps(t, 26)
	r := NewReconstructor(log)

	state, err := r.Reconstruct(context.TODO(), "doc")
	assert.ErrorIs(t, err, ErrStaleSyncState)
	assert.Nil(t, state)

	// at exactly the ceiling replay still succeeds
	log = newMemLog(1)
	log.appendSteps(t, 25)
	state, err = NewReconstructor(log).Reconstruct(context.TODO(), "doc")
	assert.NoError(t, err)
	assert.Equal(t, int64(25), state.Version)
}
