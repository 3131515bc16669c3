package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/orgkeeper/internal/sso/domain"
	"github.com/smallbiznis/orgkeeper/pkg/lifecycle"
	"gorm.io/gorm"
)

const table = "oidc_client_configs"

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, cfg domain.ClientConfig) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO oidc_client_configs (id, org_id, issuer, data, active, last_modified, deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID,
		cfg.OrgID,
		cfg.Issuer,
		cfg.Data,
		false,
		cfg.LastModified,
		false,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ClientConfig, error) {
	return r.first(r.live(ctx).Where("id = ?", id))
}

func (r *repository) FindForOrganization(ctx context.Context, id uuid.UUID, orgID snowflake.ID) (*domain.ClientConfig, error) {
	return r.first(r.live(ctx).Where("id = ? AND org_id = ?", id, orgID))
}

func (r *repository) ListByOrganization(ctx context.Context, orgID snowflake.ID) ([]domain.ClientConfig, error) {
	var configs []domain.ClientConfig
	err := r.live(ctx).
		Where("org_id = ?", orgID).
		Order("id ASC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *repository) FindByOrganizationSlug(ctx context.Context, slug string) (*domain.ClientConfig, error) {
	return r.first(r.db.WithContext(ctx).
		Model(&domain.ClientConfig{}).
		Joins("JOIN organizations AS o ON o.id = oidc_client_configs.org_id").
		Scopes(lifecycle.LiveIn("o"), lifecycle.LiveIn(table)).
		Where("o.slug = ?", slug).
		Order("oidc_client_configs.active DESC").
		Order("oidc_client_configs.id ASC"))
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, orgID snowflake.ID, fields map[string]any) (bool, error) {
	tx := r.live(ctx).Where("id = ? AND org_id = ?", id, orgID).Updates(fields)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// SetActive reports false when no live config has the id.
func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) (bool, error) {
	tx := r.live(ctx).
		Where("id = ?", id).
		Updates(map[string]any{"active": active, "last_modified": at})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *repository) DeactivateOthers(ctx context.Context, orgID snowflake.ID, keep uuid.UUID, at time.Time) error {
	return r.live(ctx).
		Where("org_id = ? AND id <> ? AND active = ?", orgID, keep, true).
		Updates(map[string]any{"active": false, "last_modified": at}).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID, orgID snowflake.ID, at time.Time) (bool, error) {
	fields := lifecycle.Tombstone()
	fields["active"] = false
	fields["last_modified"] = at

	tx := r.live(ctx).Where("id = ? AND org_id = ?", id, orgID).Updates(fields)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *repository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.ClientConfig{}).Scopes(lifecycle.Live)
}

func (r *repository) first(stmt *gorm.DB) (*domain.ClientConfig, error) {
	var cfg domain.ClientConfig
	if err := stmt.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}
