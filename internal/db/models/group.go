package models

import "time"

// GroupSource represents the origin or source system of a user group.
type GroupSource string

const (
	// GroupSourceLocal indicates the group is locally managed within the portal.
	GroupSourceLocal GroupSource = "local"
	// GroupSourceLDAP indicates the group is synchronized from an LDAP or Active Directory server.
	GroupSourceLDAP GroupSource = "ldap"
	// GroupSourceOIDC indicates the group is synchronized from an OIDC identity provider.
	GroupSourceOIDC GroupSource = "oidc"
)

// Group represents a directory or OIDC group observed during login.
// Rows are created lazily the first time a member authenticates and are kept
// for the admin area's group overview; membership rows are replaced on every
// directory login.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey"`
	// Name is the display name of the group as it appears in the portal.
	Name string `gorm:"size:255;not null"`
	// ExternalID is the external identifier for the group (DN for LDAP, claim value for OIDC).
	// Combined with Source, this forms a unique constraint.
	ExternalID string `gorm:"size:255;uniqueIndex:idx_source_external"`
	// Source indicates where the group originates from (local, ldap or oidc).
	Source GroupSource `gorm:"type:varchar(20);not null;uniqueIndex:idx_source_external"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Group model.
func (Group) TableName() string {
	return "groups"
}
