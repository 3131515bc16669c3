package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"gorm.io/gorm"
)

type Service interface {
	WithTx(tx *gorm.DB) Service
	// GetByID returns invalidated invites too; callers check Valid.
	GetByID(ctx context.Context, id snowflake.ID) (*Invite, error)
	FindGeneric(ctx context.Context, orgID snowflake.ID) (*Invite, error)
	Reset(ctx context.Context, orgID snowflake.ID, role memberdomain.Role) (*Invite, error)
}

var (
	ErrInvalidInvite       = errs.InvalidArgument("invalid_invite")
	ErrInvalidOrganization = errs.InvalidArgument("invalid_organization")
	ErrInvalidRole         = errs.InvalidArgument("invalid_role")
	ErrInviteNotFound      = errs.NotFound("invite_not_found")
	ErrInviteExpired       = errs.Conflict("invite_expired")
)
