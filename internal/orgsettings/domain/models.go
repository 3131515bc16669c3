package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Settings is the per-organization settings row, created on first write.
type Settings struct {
	OrgID                    snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"org_id"`
	WorkspaceSharingDisabled bool         `gorm:"not null;default:false" json:"workspace_sharing_disabled"`
	DefaultWorkspaceImage    string       `gorm:"type:text;not null;default:''" json:"default_workspace_image"`
	UpdatedAt                time.Time    `gorm:"not null" json:"updated_at"`
	Deleted                  bool         `gorm:"not null;default:false" json:"-"`
}

// TableName sets the database table name.
func (Settings) TableName() string { return "organization_settings" }

func (s Settings) IsDeleted() bool { return s.Deleted }

// PartialSettings carries an update; nil fields are left untouched.
type PartialSettings struct {
	WorkspaceSharingDisabled *bool
	DefaultWorkspaceImage    *string
}

func (p PartialSettings) Empty() bool {
	return p.WorkspaceSharingDisabled == nil && p.DefaultWorkspaceImage == nil
}
