// Package domain contains persistence models for the organization store.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Organization represents a tenant. Slugs are unique among live organizations only,
// so a tombstoned organization releases its slug.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:varchar(63);not null;index:ux_organizations_slug_live,unique,where:deleted = false" json:"slug"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
	Deleted   bool         `gorm:"not null;default:false" json:"-"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

func (o Organization) IsDeleted() bool { return o.Deleted }
