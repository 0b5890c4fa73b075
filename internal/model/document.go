package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// GeneralAccess values for a document.
const (
	GeneralAccessPrivate   = "private"
	GeneralAccessWorkspace = "workspace"
)

// Document is a page in the workspace tree. Children reference their parent
// weakly through ParentID; Order is unique among siblings sharing a parent.
type Document struct {
	gorm.Model
	ID          string  `gorm:"primaryKey;uuid;not null;"`
	ParentID    *string `gorm:"uuid;index"`
	WorkspaceID *string `gorm:"uuid;index"`
	TeamspaceID *string `gorm:"uuid;index"`
	OwnerID     string  `gorm:"uuid;not null"`
	Title       string
	Order       int `gorm:"column:sort_order;not null;default:0"`

	GeneralAccess        string      `gorm:"not null;default:private"`
	WorkspaceAccessLevel AccessLevel `gorm:"not null;default:full"`
	WebLinkEnabled       bool        `gorm:"not null;default:false"`
	PublicAccessLevel    AccessLevel `gorm:"not null;default:view"`
	PublicLinkExpiresAt  *int64      // epoch millis

	IsPublished bool `gorm:"not null;default:false"`
	IsArchived  bool `gorm:"not null;default:false"`
	IsTemplate  bool `gorm:"not null;default:false"`
	ArchivedAt  *time.Time

	// Version points at the head of the document's step log.
	Version int64 `gorm:"not null;default:0"`

	// Derived on commit, never authoritative.
	SearchableText string
	ContentHash    string
}

// PublicLinkExpired reports whether the web link carries an expiry in the past.
func (d *Document) PublicLinkExpired(now time.Time) bool {
	return d.PublicLinkExpiresAt != nil && *d.PublicLinkExpiresAt <= now.UnixMilli()
}

func (d *Document) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}
