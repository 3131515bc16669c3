package service

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/internal/event"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	"github.com/smallbiznis/orgkeeper/internal/organization/domain"
	settingsdomain "github.com/smallbiznis/orgkeeper/internal/orgsettings/domain"
	"github.com/smallbiznis/orgkeeper/internal/slug"
	"github.com/smallbiznis/orgkeeper/pkg/db"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Repo      domain.Repository
	Members   memberdomain.Repository
	Settings  settingsdomain.Repository
	Slugs     *slug.Allocator
	GenID     *snowflake.Node
	Clock     clock.Clock
	Publisher event.Publisher
}

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	members   memberdomain.Repository
	settings  settingsdomain.Repository
	slugs     *slug.Allocator
	genID     *snowflake.Node
	clock     clock.Clock
	publisher event.Publisher
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		repo:      p.Repo,
		members:   p.Members,
		settings:  p.Settings,
		slugs:     p.Slugs,
		genID:     p.GenID,
		clock:     p.Clock,
		publisher: p.Publisher,
	}
}

func (s *service) WithTx(tx *gorm.DB) domain.Service {
	cp := *s
	cp.db = tx
	cp.repo = s.repo.WithTx(tx)
	cp.members = s.members.WithTx(tx)
	cp.settings = s.settings.WithTx(tx)
	cp.publisher = s.publisher.WithTx(tx)
	return &cp
}

// Create inserts the organization and its first owner. The slug check and the insert
// share one transaction; the live-slug unique index rejects a concurrent winner.
func (s *service) Create(ctx context.Context, userID snowflake.ID, name string) (*domain.Organization, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		allocated, err := s.slugs.Allocate(ctx, repo, name)
		if err != nil {
			return err
		}
		org.Slug = allocated

		if err := repo.Create(ctx, org); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrSlugTaken
			}
			return err
		}

		owner := memberdomain.Member{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    userID,
			Role:      memberdomain.RoleOwner,
			CreatedAt: now,
		}
		if err := s.members.WithTx(tx).Create(ctx, owner); err != nil {
			return err
		}

		return s.publisher.WithTx(tx).Publish(ctx, org.ID, event.OrganizationCreatedTopic, map[string]any{
			"owner_user_id": userID.String(),
			"slug":          org.Slug,
		})
	})
	if err != nil {
		return nil, errs.FromDB(err)
	}

	return &org, nil
}

// Rename changes the name and/or slug. Values equal to the current ones are ignored,
// and a request that changes nothing returns the record untouched.
func (s *service) Rename(ctx context.Context, id snowflake.ID, req domain.RenameRequest) (*domain.Organization, error) {
	if id == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.Name == nil && req.Slug == nil {
		return nil, domain.ErrNothingToUpdate
	}

	var newName, newSlug string
	if req.Name != nil {
		name, err := validateName(*req.Name)
		if err != nil {
			return nil, err
		}
		newName = name
	}
	if req.Slug != nil {
		newSlug = slug.Canonical(*req.Slug)
		if err := slug.Validate(newSlug); err != nil {
			return nil, domain.ErrInvalidSlug
		}
	}

	var result *domain.Organization
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrOrganizationNotFound
		}

		fields := map[string]any{}
		updated := *current
		if req.Name != nil && newName != current.Name {
			fields["name"] = newName
			updated.Name = newName
		}
		if req.Slug != nil && newSlug != current.Slug {
			taken, err := repo.SlugTaken(ctx, newSlug)
			if err != nil {
				return err
			}
			if taken {
				return domain.ErrSlugTaken
			}
			fields["slug"] = newSlug
			updated.Slug = newSlug
		}

		if len(fields) == 0 {
			result = current
			return nil
		}

		updated.UpdatedAt = s.clock.Now()
		fields["updated_at"] = updated.UpdatedAt
		if err := repo.Update(ctx, id, fields); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrSlugTaken
			}
			return err
		}

		result = &updated
		return s.publisher.WithTx(tx).Publish(ctx, id, event.OrganizationUpdatedTopic, map[string]any{
			"name": updated.Name,
			"slug": updated.Slug,
		})
	})
	if err != nil {
		return nil, errs.FromDB(err)
	}

	return result, nil
}

// SoftDelete tombstones the organization and its settings row. Memberships, invites
// and SSO configs stay in place for audit.
func (s *service) SoftDelete(ctx context.Context, id snowflake.ID) error {
	if id == 0 {
		return domain.ErrInvalidOrganization
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()

		deleted, err := s.repo.WithTx(tx).SoftDelete(ctx, id, now)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrOrganizationNotFound
		}

		if err := s.settings.WithTx(tx).SoftDelete(ctx, id, now); err != nil {
			return err
		}

		return s.publisher.WithTx(tx).Publish(ctx, id, event.OrganizationDeletedTopic, nil)
	})
	return errs.FromDB(err)
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	if id == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	if org == nil {
		return nil, domain.ErrOrganizationNotFound
	}
	return org, nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*domain.Organization, error) {
	value = slug.Canonical(value)
	if value == "" {
		return nil, domain.ErrInvalidSlug
	}
	org, err := s.repo.FindBySlug(ctx, value)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	if org == nil {
		return nil, domain.ErrOrganizationNotFound
	}
	return org, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	length := utf8.RuneCountInString(name)
	if length < domain.MinNameLength || length > domain.MaxNameLength {
		return "", domain.ErrInvalidName
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return "", domain.ErrInvalidName
		}
	}
	return name, nil
}
