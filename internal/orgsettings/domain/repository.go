package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindAny returns the row whether or not it is tombstoned.
	FindAny(ctx context.Context, orgID snowflake.ID) (*Settings, error)
	FindLive(ctx context.Context, orgID snowflake.ID) (*Settings, error)
	Create(ctx context.Context, settings Settings) error
	Update(ctx context.Context, orgID snowflake.ID, fields map[string]any) error
	SoftDelete(ctx context.Context, orgID snowflake.ID, at time.Time) error
}
