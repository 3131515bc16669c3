package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, member Member) error
	FindLive(ctx context.Context, orgID, userID snowflake.ID) (*Member, error)
	ListByOrganization(ctx context.Context, orgID snowflake.ID) ([]MemberInfo, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]orgdomain.Organization, error)
	ListSoleOwnedOrganizations(ctx context.Context, userID snowflake.ID) ([]orgdomain.Organization, error)
	// LockOwners returns the live owners of an organization, row-locked until the
	// surrounding transaction ends.
	LockOwners(ctx context.Context, orgID snowflake.ID) ([]Member, error)
	UpdateRole(ctx context.Context, id snowflake.ID, role Role) error
	SoftDelete(ctx context.Context, id snowflake.ID) error
}
