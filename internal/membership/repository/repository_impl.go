package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/membership/domain"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"github.com/smallbiznis/orgkeeper/pkg/lifecycle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, member domain.Member) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organization_members (id, org_id, user_id, role, created_at, deleted)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.OrgID,
		member.UserID,
		member.Role,
		member.CreatedAt,
		false,
	).Error
}

func (r *repository) FindLive(ctx context.Context, orgID, userID snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := r.live(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

type memberRow struct {
	UserID    snowflake.ID `gorm:"column:user_id"`
	Name      *string      `gorm:"column:name"`
	Email     *string      `gorm:"column:email"`
	AvatarURL *string      `gorm:"column:avatar_url"`
	Role      domain.Role  `gorm:"column:role"`
	CreatedAt time.Time    `gorm:"column:created_at"`
}

func (r *repository) ListByOrganization(ctx context.Context, orgID snowflake.ID) ([]domain.MemberInfo, error) {
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Table("organization_members AS m").
		Select("m.user_id, u.name, u.email, u.avatar_url, m.role, m.created_at").
		Joins("LEFT JOIN users AS u ON u.id = m.user_id").
		Scopes(lifecycle.LiveIn("m")).
		Where("m.org_id = ?", orgID).
		Order("m.created_at DESC").
		Order("m.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]domain.MemberInfo, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.MemberInfo{
			UserID:      row.UserID,
			Name:        deref(row.Name),
			Email:       deref(row.Email),
			AvatarURL:   deref(row.AvatarURL),
			Role:        row.Role,
			MemberSince: row.CreatedAt,
		})
	}
	return items, nil
}

func (r *repository) ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]orgdomain.Organization, error) {
	var orgs []orgdomain.Organization
	err := r.db.WithContext(ctx).
		Model(&orgdomain.Organization{}).
		Joins("JOIN organization_members AS m ON m.org_id = organizations.id").
		Scopes(lifecycle.LiveIn("organizations"), lifecycle.LiveIn("m")).
		Where("m.user_id = ?", userID).
		Order("organizations.created_at ASC").
		Order("organizations.id ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

// ListSoleOwnedOrganizations returns live organizations in which userID holds the
// only live owner membership.
func (r *repository) ListSoleOwnedOrganizations(ctx context.Context, userID snowflake.ID) ([]orgdomain.Organization, error) {
	others := r.db.
		Table("organization_members AS o").
		Select("1").
		Where("o.org_id = organizations.id").
		Where("o.role = ?", domain.RoleOwner).
		Where("o.user_id <> ?", userID).
		Scopes(lifecycle.LiveIn("o"))

	var orgs []orgdomain.Organization
	err := r.db.WithContext(ctx).
		Model(&orgdomain.Organization{}).
		Joins("JOIN organization_members AS m ON m.org_id = organizations.id").
		Scopes(lifecycle.LiveIn("organizations"), lifecycle.LiveIn("m")).
		Where("m.user_id = ? AND m.role = ?", userID, domain.RoleOwner).
		Where("NOT EXISTS (?)", others).
		Order("organizations.created_at ASC").
		Order("organizations.id ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *repository) LockOwners(ctx context.Context, orgID snowflake.ID) ([]domain.Member, error) {
	var owners []domain.Member
	err := r.live(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND role = ?", orgID, domain.RoleOwner).
		Order("id ASC").
		Find(&owners).Error
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *repository) UpdateRole(ctx context.Context, id snowflake.ID, role domain.Role) error {
	return r.live(ctx).Where("id = ?", id).Update("role", role).Error
}

func (r *repository) SoftDelete(ctx context.Context, id snowflake.ID) error {
	return r.live(ctx).Where("id = ?", id).Updates(lifecycle.Tombstone()).Error
}

func (r *repository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Member{}).Scopes(lifecycle.Live)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
