package model

import "gorm.io/gorm"

// Snapshot is the last fully materialized tree of a document at a known version.
type Snapshot struct {
	gorm.Model
	DocumentID  string `gorm:"uuid;not null;index:idx_snapshot_doc,unique"`
	Version     int64  `gorm:"not null"`
	Content     string `gorm:"not null"` // serialized tree, possibly compressed
	Compression string // codec used for Content: "", gzip, brotli, lz4
}

// Step is one incremental edit transform appended to a document's log.
// Versions are strictly increasing and gapless per document.
type Step struct {
	gorm.Model
	DocumentID string `gorm:"uuid;not null;index:idx_step_doc_version,unique"`
	Version    int64  `gorm:"not null;index:idx_step_doc_version,unique"`
	ClientID   string `gorm:"not null"`
	Payload    string `gorm:"not null"` // serialized transform
}
