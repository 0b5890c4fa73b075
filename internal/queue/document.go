package queue

import (
	"context"
)

// Change event kinds.
const (
	ChangeEdited    = "edited"
	ChangeReordered = "reordered"
	ChangeArchived  = "archived"
	ChangeErased    = "erased"
	ChangePublished = "published"
)

// DocumentChange is the event fanned out after a committed mutation, so the
// search indexer and other consumers can pick up the new derived state.
type DocumentChange struct {
	DocumentID     string `json:"document_id"`
	Kind           string `json:"kind"`
	Version        int64  `json:"version,omitempty"`
	ContentHash    string `json:"content_hash,omitempty"`
	SearchableText string `json:"searchable_text,omitempty"`
}

// DocumentQueue publishes document change events.
type DocumentQueue interface {
	// PublishChange appends a document change to the queue.
	PublishChange(ctx context.Context, change *DocumentChange) error
	Close() error
}
