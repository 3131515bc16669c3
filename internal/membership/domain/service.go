package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"gorm.io/gorm"
)

type Service interface {
	WithTx(tx *gorm.DB) Service
	ListByOrganization(ctx context.Context, orgID snowflake.ID) ([]MemberInfo, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]orgdomain.Organization, error)
	FindSoleOwnedOrganizations(ctx context.Context, userID snowflake.ID) ([]orgdomain.Organization, error)
	Add(ctx context.Context, userID, orgID snowflake.ID, role Role) (AddResult, error)
	SetRole(ctx context.Context, userID, orgID snowflake.ID, role Role) error
	Remove(ctx context.Context, userID, orgID snowflake.ID) error
	Role(ctx context.Context, userID, orgID snowflake.ID) (Role, error)
}

var (
	ErrInvalidUser        = errs.InvalidArgument("invalid_user")
	ErrInvalidRole        = errs.InvalidArgument("invalid_role")
	ErrMembershipNotFound = errs.NotFound("membership_not_found")
	ErrMustRetainOwner    = errs.Conflict("must_retain_owner")
)
