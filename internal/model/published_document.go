package model

import "gorm.io/gorm"

// PublishedDocument is an immutable published copy of a document tree.
// A document may be published many times, each with a distinct semver version.
type PublishedDocument struct {
	gorm.Model
	DocumentID  string  `gorm:"uuid;not null;index:idx_published_doc_version,unique"`
	Version     string  `gorm:"not null;index:idx_published_doc_version,unique"`
	WorkspaceID *string `gorm:"uuid;index"`
	Title       string
	Content     string `gorm:"not null"`
}
