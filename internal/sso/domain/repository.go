package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads live configurations only. Lookups return nil, nil on a miss.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cfg ClientConfig) error
	FindByID(ctx context.Context, id uuid.UUID) (*ClientConfig, error)
	FindForOrganization(ctx context.Context, id uuid.UUID, orgID snowflake.ID) (*ClientConfig, error)
	ListByOrganization(ctx context.Context, orgID snowflake.ID) ([]ClientConfig, error)
	FindByOrganizationSlug(ctx context.Context, slug string) (*ClientConfig, error)
	Update(ctx context.Context, id uuid.UUID, orgID snowflake.ID, fields map[string]any) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) (bool, error)
	DeactivateOthers(ctx context.Context, orgID snowflake.ID, keep uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, orgID snowflake.ID, at time.Time) (bool, error)
}
