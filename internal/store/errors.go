package store

import "errors"

var (
	// ErrDocumentNotFound is returned when a document id resolves to nothing.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrLatestPublishedDocumentNotFound is returned when a document has never been published.
	ErrLatestPublishedDocumentNotFound = errors.New("latest published document not found")
)
