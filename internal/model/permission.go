package model

import "gorm.io/gorm"

// AccessLevel is the ordered permission tier for a grant.
type AccessLevel string

const (
	AccessLevelFull    AccessLevel = "full"
	AccessLevelEdit    AccessLevel = "edit"
	AccessLevelComment AccessLevel = "comment"
	AccessLevelView    AccessLevel = "view"
)

var accessLevelRank = map[AccessLevel]int{
	AccessLevelFull:    4,
	AccessLevelEdit:    3,
	AccessLevelComment: 2,
	AccessLevelView:    1,
}

// Rank returns the position of the level in the total order full > edit > comment > view.
// Unknown levels rank below view.
func (a AccessLevel) Rank() int {
	return accessLevelRank[a]
}

// IsWriteLevel reports whether the level allows content mutation.
func (a AccessLevel) IsWriteLevel() bool {
	return a == AccessLevelFull || a == AccessLevelEdit
}

// DocumentPermission is an explicit per-user grant on a document.
type DocumentPermission struct {
	gorm.Model
	DocumentID  string      `gorm:"uuid;not null;index:idx_doc_grantee,unique"`
	GranteeID   string      `gorm:"uuid;not null;index:idx_doc_grantee,unique"`
	AccessLevel AccessLevel `gorm:"not null"`
}
