package event

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	OrganizationCreatedTopic = "organization.created"
	OrganizationUpdatedTopic = "organization.updated"
	OrganizationDeletedTopic = "organization.deleted"
	MemberJoinedTopic        = "member.joined"
	MemberRoleChangedTopic   = "member.role_changed"
	MemberLeftTopic          = "member.left"
	InviteResetTopic         = "invite.reset"
	SSOConfigCreatedTopic    = "sso.config_created"
	SSOConfigUpdatedTopic    = "sso.config_updated"
	SSOConfigActivatedTopic  = "sso.config_activated"
	SSOConfigDeletedTopic    = "sso.config_deleted"
)

// Event is an outbox row written in the same transaction as the change it records.
// A separate relay ships unpublished rows to the message bus.
type Event struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID   `gorm:"not null;index" json:"org_id"`
	EventType string         `gorm:"type:text;not null" json:"event_type"`
	Payload   datatypes.JSON `gorm:"not null" json:"payload"`
	Published bool           `gorm:"not null;default:false;index" json:"published"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (Event) TableName() string { return "membership_events" }
