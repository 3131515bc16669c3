// Package domain contains persistence models for organization invites.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
)

// Invite grants its role to whoever accepts it. Generic invites carry no email and are
// shared as a link; an organization has at most one valid generic invite.
type Invite struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID            snowflake.ID      `gorm:"not null;index;index:ux_organization_invites_generic_valid,unique,where:invited_email = '' AND invalidation_time = ''" json:"org_id"`
	Role             memberdomain.Role `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt        time.Time         `gorm:"not null" json:"created_at"`
	InvalidationTime string            `gorm:"type:varchar(64);not null;default:''" json:"invalidation_time"`
	InvitedEmail     string            `gorm:"type:text;not null;default:''" json:"invited_email"`
}

// TableName sets the database table name.
func (Invite) TableName() string { return "organization_invites" }

func (i Invite) Valid() bool { return i.InvalidationTime == "" }

// IsDeleted reports invalidation, the terminal state of an invite.
func (i Invite) IsDeleted() bool { return !i.Valid() }

func (i Invite) Generic() bool { return i.InvitedEmail == "" }
