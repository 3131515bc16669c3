package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/invite/domain"
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

func (r *repository) Create(ctx context.Context, invite domain.Invite) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organization_invites (id, org_id, role, created_at, invalidation_time, invited_email)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		invite.ID,
		invite.OrgID,
		invite.Role,
		invite.CreatedAt,
		invite.InvalidationTime,
		invite.InvitedEmail,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Invite, error) {
	return r.first(r.db.WithContext(ctx).Model(&domain.Invite{}).Where("id = ?", id))
}

func (r *repository) FindValidGeneric(ctx context.Context, orgID snowflake.ID) (*domain.Invite, error) {
	return r.first(r.db.WithContext(ctx).
		Model(&domain.Invite{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND invited_email = '' AND invalidation_time = ''", orgID))
}

func (r *repository) Invalidate(ctx context.Context, id snowflake.ID, at string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Invite{}).
		Where("id = ? AND invalidation_time = ''", id).
		Update("invalidation_time", at).Error
}

func (r *repository) first(stmt *gorm.DB) (*domain.Invite, error) {
	var invite domain.Invite
	if err := stmt.First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}
