package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invite Invite) error
	FindByID(ctx context.Context, id snowflake.ID) (*Invite, error)
	// FindValidGeneric locks and returns the valid generic invite of an organization.
	FindValidGeneric(ctx context.Context, orgID snowflake.ID) (*Invite, error)
	Invalidate(ctx context.Context, id snowflake.ID, at string) error
}
