package model

import "gorm.io/gorm"

// Workspace roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// WorkspaceMembership ties a user to a workspace with a role.
type WorkspaceMembership struct {
	gorm.Model
	WorkspaceID string `gorm:"uuid;not null;index:idx_ws_user,unique"`
	UserID      string `gorm:"uuid;not null;index:idx_ws_user,unique"`
	Role        string `gorm:"not null;default:member"`
}

// Teamspace is an optional sub-grouping inside a workspace. When restricted,
// only teamspace members see its documents.
type Teamspace struct {
	gorm.Model
	ID           string `gorm:"primaryKey;uuid;not null;"`
	WorkspaceID  string `gorm:"uuid;not null;index"`
	Name         string
	IsRestricted bool `gorm:"not null;default:false"`
}

// TeamspaceMembership marks a user as a member of a teamspace.
// Presence implies access when the teamspace is restricted.
type TeamspaceMembership struct {
	gorm.Model
	TeamspaceID string `gorm:"uuid;not null;index:idx_ts_user,unique"`
	UserID      string `gorm:"uuid;not null;index:idx_ts_user,unique"`
}
