package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/orgsettings/domain"
	"github.com/smallbiznis/orgkeeper/pkg/lifecycle"
	"gorm.io/gorm"
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

func (r *repository) FindAny(ctx context.Context, orgID snowflake.ID) (*domain.Settings, error) {
	return first(r.db.WithContext(ctx).Where("org_id = ?", orgID))
}

func (r *repository) FindLive(ctx context.Context, orgID snowflake.ID) (*domain.Settings, error) {
	return first(r.db.WithContext(ctx).Scopes(lifecycle.Live).Where("org_id = ?", orgID))
}

func (r *repository) Create(ctx context.Context, settings domain.Settings) error {
	return r.db.WithContext(ctx).Create(&settings).Error
}

func (r *repository) Update(ctx context.Context, orgID snowflake.ID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&domain.Settings{}).
		Where("org_id = ?", orgID).
		Updates(fields).Error
}

func (r *repository) SoftDelete(ctx context.Context, orgID snowflake.ID, at time.Time) error {
	fields := lifecycle.Tombstone()
	fields["updated_at"] = at

	return r.db.WithContext(ctx).
		Model(&domain.Settings{}).
		Scopes(lifecycle.Live).
		Where("org_id = ?", orgID).
		Updates(fields).Error
}

func first(stmt *gorm.DB) (*domain.Settings, error) {
	var settings domain.Settings
	if err := stmt.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}
