package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository reads live organizations only. Lookups return nil, nil on a miss.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, org Organization) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	FindByIDForUpdate(ctx context.Context, id snowflake.ID) (*Organization, error)
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, id snowflake.ID, fields map[string]any) error
	SoftDelete(ctx context.Context, id snowflake.ID, at time.Time) (bool, error)
}
