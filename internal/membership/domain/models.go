// Package domain contains persistence models for organization memberships.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

// Member links a user to an organization. A (user, organization) pair has at most
// one live row; leaving tombstones the row and rejoining inserts a new one.
type Member struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index;index:ux_organization_members_live,unique,priority:1,where:deleted = false" json:"org_id"`
	UserID    snowflake.ID `gorm:"not null;index;index:ux_organization_members_live,unique,priority:2,where:deleted = false" json:"user_id"`
	Role      Role         `gorm:"type:varchar(16);not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	Deleted   bool         `gorm:"not null;default:false" json:"-"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "organization_members" }

func (m Member) IsDeleted() bool { return m.Deleted }

// MemberInfo is a live membership joined with the user's display data.
type MemberInfo struct {
	UserID      snowflake.ID `json:"user_id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	AvatarURL   string       `json:"avatar_url"`
	Role        Role         `json:"role"`
	MemberSince time.Time    `json:"member_since"`
}

type AddResult string

const (
	Added         AddResult = "added"
	AlreadyMember AddResult = "already_member"
)
