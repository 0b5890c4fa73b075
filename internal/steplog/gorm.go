package steplog

import (
	"context"

	"github.com/pagemint/pagemint/internal/compress"
	"github.com/pagemint/pagemint/internal/doctree"
	"github.com/pagemint/pagemint/internal/model"
	"github.com/pagemint/pagemint/internal/store"
	"github.com/sirupsen/logrus"
)

// stepBatchSize caps how many steps a single GetSteps call returns.
const stepBatchSize = 200

var _ Log = (*GormLog)(nil)

// GormLog persists the step log through the store. Snapshot content is run
// through the configured compressor before it hits the database.
type GormLog struct {
	store    store.Store
	compress compress.Compress
}

func NewGormLog(store store.Store, compress compress.Compress) *GormLog {
	return &GormLog{
		store:    store,
		compress: compress,
	}
}

func (l *GormLog) LatestVersion(ctx context.Context, documentID string) (int64, bool, error) {
	return l.store.LatestStepVersion(ctx, documentID)
}

func (l *GormLog) GetSnapshot(ctx context.Context, documentID string) (*Snapshot, error) {
	row, err := l.store.GetSnapshot(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &Snapshot{Content: nil, Version: 0}, nil
	}

	data, err := compress.FromName(row.Compression).Decode([]byte(row.Content))
	if err != nil {
		return nil, err
	}
	tree, err := doctree.Decode(data)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Content: tree, Version: row.Version}, nil
}

func (l *GormLog) GetSteps(ctx context.Context, documentID string, sinceVersion int64) (*StepBatch, error) {
	rows, err := l.store.ListStepsSince(ctx, documentID, sinceVersion, stepBatchSize)
	if err != nil {
		return nil, err
	}

	batch := &StepBatch{Version: sinceVersion}
	for _, row := range rows {
		transform, err := doctree.DecodeTransform([]byte(row.Payload))
		if err != nil {
			return nil, err
		}
		batch.Steps = append(batch.Steps, Step{
			Version:   row.Version,
			ClientID:  row.ClientID,
			Transform: transform,
		})
		batch.Version = row.Version
	}

	return batch, nil
}

func (l *GormLog) SubmitSnapshot(ctx context.Context, documentID string, content *doctree.Node, version int64) error {
	data, err := content.Encode()
	if err != nil {
		return err
	}
	encoded, err := l.compress.Encode(data)
	if err != nil {
		return err
	}

	logrus.Infof("storing snapshot for document %s at version %d", documentID, version)

	return l.store.SaveSnapshot(ctx, &model.Snapshot{
		DocumentID:  documentID,
		Version:     version,
		Content:     string(encoded),
		Compression: l.compress.Name(),
	})
}

func (l *GormLog) SubmitSteps(ctx context.Context, documentID string, version int64, clientID string, steps []*doctree.Transform) (*SubmitResult, error) {
	var result *SubmitResult

	err := l.store.Transaction(ctx, func(tx store.Store) error {
		head, ok, err := tx.LatestStepVersion(ctx, documentID)
		if err != nil {
			return err
		}
		if !ok {
			head = 0
		}

		// The caller based its steps on version; anything newer must be
		// rebased onto first.
		if version != head {
			rows, err := tx.ListStepsSince(ctx, documentID, version, 0)
			if err != nil {
				return err
			}
			result = &SubmitResult{Status: StatusNeedsRebase}
			for _, row := range rows {
				transform, err := doctree.DecodeTransform([]byte(row.Payload))
				if err != nil {
					return err
				}
				result.Steps = append(result.Steps, Step{
					Version:   row.Version,
					ClientID:  row.ClientID,
					Transform: transform,
				})
				result.ClientIDs = append(result.ClientIDs, row.ClientID)
			}
			return nil
		}

		rows := make([]*model.Step, 0, len(steps))
		for i, step := range steps {
			payload, err := step.Encode()
			if err != nil {
				return err
			}
			rows = append(rows, &model.Step{
				DocumentID: documentID,
				Version:    head + int64(i) + 1,
				ClientID:   clientID,
				Payload:    string(payload),
			})
		}
		if err := tx.CreateSteps(ctx, rows); err != nil {
			return err
		}

		result = &SubmitResult{Status: StatusSynced}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
