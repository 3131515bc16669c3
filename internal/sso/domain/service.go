package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"gorm.io/gorm"
)

type Service interface {
	WithTx(tx *gorm.DB) Service
	Create(ctx context.Context, req CreateClientConfig) (*ClientConfig, error)
	Update(ctx context.Context, id uuid.UUID, orgID snowflake.ID, req UpdateClientConfig) (*ClientConfig, error)
	Get(ctx context.Context, id uuid.UUID) (*ClientConfig, error)
	GetForOrganization(ctx context.Context, id uuid.UUID, orgID snowflake.ID) (*ClientConfig, error)
	ListForOrganization(ctx context.Context, orgID snowflake.ID) ([]ClientConfig, error)
	// GetByOrganizationSlug prefers the active configuration, then the lowest id.
	GetByOrganizationSlug(ctx context.Context, slug string) (*ClientConfig, error)
	Delete(ctx context.Context, id uuid.UUID, orgID snowflake.ID) error
	// Activate makes id the only active configuration of its organization.
	Activate(ctx context.Context, id uuid.UUID) (*ClientConfig, error)
	Decrypt(cfg ClientConfig) (OIDCSpec, error)
}

var (
	ErrInvalidConfigID     = errs.InvalidArgument("invalid_config_id")
	ErrInvalidOrganization = errs.InvalidArgument("invalid_organization")
	ErrInvalidIssuer       = errs.InvalidArgument("invalid_issuer")
	ErrInvalidSlug         = errs.InvalidArgument("invalid_slug")
	ErrNothingToUpdate     = errs.InvalidArgument("nothing_to_update")
	ErrConfigNotFound      = errs.NotFound("oidc_client_config_not_found")
	ErrSealFailed          = errs.New(errs.KindUnknown, "oidc_client_config_seal_failed")
)
