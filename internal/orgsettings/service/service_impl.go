package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/internal/orgsettings/domain"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"github.com/smallbiznis/orgkeeper/pkg/lifecycle"
	"gorm.io/gorm"
)

const maxImageLength = 512

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	clock clock.Clock
}

func NewService(db *gorm.DB, repo domain.Repository, clk clock.Clock) domain.Service {
	return &service{
		db:    db,
		repo:  repo,
		clock: clk,
	}
}

func (s *service) WithTx(tx *gorm.DB) domain.Service {
	return &service{db: tx, repo: s.repo.WithTx(tx), clock: s.clock}
}

func (s *service) Get(ctx context.Context, orgID snowflake.ID) (*domain.Settings, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	settings, err := s.repo.FindLive(ctx, orgID)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	return settings, nil
}

// Set merges partial into the organization's settings, creating the row on first
// write. A tombstoned row restarts from defaults.
func (s *service) Set(ctx context.Context, orgID snowflake.ID, partial domain.PartialSettings) (*domain.Settings, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if partial.DefaultWorkspaceImage != nil {
		image := strings.TrimSpace(*partial.DefaultWorkspaceImage)
		if len(image) > maxImageLength || strings.ContainsAny(image, " \t\n") {
			return nil, domain.ErrInvalidImage
		}
		partial.DefaultWorkspaceImage = &image
	}

	var result *domain.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.clock.Now()

		existing, err := repo.FindAny(ctx, orgID)
		if err != nil {
			return err
		}

		if existing == nil {
			created := domain.Settings{OrgID: orgID, UpdatedAt: now}
			apply(&created, partial)
			if err := repo.Create(ctx, created); err != nil {
				return err
			}
			result = &created
			return nil
		}

		merged := *existing
		if merged.Deleted {
			merged = domain.Settings{OrgID: orgID}
		}
		apply(&merged, partial)
		merged.UpdatedAt = now

		if err := repo.Update(ctx, orgID, map[string]any{
			"workspace_sharing_disabled": merged.WorkspaceSharingDisabled,
			"default_workspace_image":    merged.DefaultWorkspaceImage,
			"updated_at":                 merged.UpdatedAt,
			lifecycle.Column:             false,
		}); err != nil {
			return err
		}
		result = &merged
		return nil
	})
	if err != nil {
		return nil, errs.FromDB(err)
	}

	return result, nil
}

// SoftDelete is idempotent: missing or already tombstoned rows are left alone.
func (s *service) SoftDelete(ctx context.Context, orgID snowflake.ID) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	return errs.FromDB(s.repo.SoftDelete(ctx, orgID, s.clock.Now()))
}

func apply(settings *domain.Settings, partial domain.PartialSettings) {
	if partial.WorkspaceSharingDisabled != nil {
		settings.WorkspaceSharingDisabled = *partial.WorkspaceSharingDisabled
	}
	if partial.DefaultWorkspaceImage != nil {
		settings.DefaultWorkspaceImage = *partial.DefaultWorkspaceImage
	}
}
