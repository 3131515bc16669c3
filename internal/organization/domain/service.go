package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"gorm.io/gorm"
)

const (
	MinNameLength = 3
	MaxNameLength = 64
)

type Service interface {
	// WithTx binds the service to an open transaction; its own transactions become savepoints.
	WithTx(tx *gorm.DB) Service
	Create(ctx context.Context, userID snowflake.ID, name string) (*Organization, error)
	Rename(ctx context.Context, id snowflake.ID, req RenameRequest) (*Organization, error)
	SoftDelete(ctx context.Context, id snowflake.ID) error
	GetByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
}

// RenameRequest changes the fields that are non-nil.
type RenameRequest struct {
	Name *string
	Slug *string
}

var (
	ErrInvalidUser          = errs.InvalidArgument("invalid_user")
	ErrInvalidOrganization  = errs.InvalidArgument("invalid_organization")
	ErrInvalidName          = errs.InvalidArgument("invalid_name")
	ErrInvalidSlug          = errs.InvalidArgument("invalid_slug")
	ErrNothingToUpdate      = errs.InvalidArgument("nothing_to_update")
	ErrOrganizationNotFound = errs.NotFound("organization_not_found")
	ErrSlugTaken            = errs.Conflict("slug_taken")
)
