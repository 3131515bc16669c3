// Package domain contains the OIDC client configuration registered per organization.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// ClientConfig registers an organization's identity provider. Data holds the sealed
// OIDCSpec; the plaintext is never persisted.
type ClientConfig struct {
	ID           uuid.UUID    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;index" json:"org_id"`
	Issuer       string       `gorm:"type:varchar(255);not null" json:"issuer"`
	Data         string       `gorm:"type:text;not null" json:"-"`
	Active       bool         `gorm:"not null;default:false" json:"active"`
	LastModified time.Time    `gorm:"not null" json:"last_modified"`
	Deleted      bool         `gorm:"not null;default:false" json:"-"`
}

// TableName sets the database table name.
func (ClientConfig) TableName() string { return "oidc_client_configs" }

func (c ClientConfig) IsDeleted() bool { return c.Deleted }

// OIDCSpec is the secret part of a client configuration.
type OIDCSpec struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURL  string   `json:"redirectUrl"`
	Scopes       []string `json:"scopes"`
}

type CreateClientConfig struct {
	ID     uuid.UUID
	OrgID  snowflake.ID
	Issuer string
	Spec   OIDCSpec
}

// UpdateClientConfig changes the fields that are non-nil.
type UpdateClientConfig struct {
	Issuer *string
	Spec   *OIDCSpec
}
