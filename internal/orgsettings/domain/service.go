package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"gorm.io/gorm"
)

type Service interface {
	WithTx(tx *gorm.DB) Service
	Get(ctx context.Context, orgID snowflake.ID) (*Settings, error)
	Set(ctx context.Context, orgID snowflake.ID, partial PartialSettings) (*Settings, error)
	SoftDelete(ctx context.Context, orgID snowflake.ID) error
}

var (
	ErrInvalidOrganization = errs.InvalidArgument("invalid_organization")
	ErrInvalidImage        = errs.InvalidArgument("invalid_default_workspace_image")
)
