package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/internal/event"
	"github.com/smallbiznis/orgkeeper/internal/invite/domain"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"gorm.io/gorm"
)

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	genID     *snowflake.Node
	clock     clock.Clock
	publisher event.Publisher
}

func NewService(db *gorm.DB, repo domain.Repository, genID *snowflake.Node, clk clock.Clock, publisher event.Publisher) domain.Service {
	return &service{
		db:        db,
		repo:      repo,
		genID:     genID,
		clock:     clk,
		publisher: publisher,
	}
}

func (s *service) WithTx(tx *gorm.DB) domain.Service {
	return &service{
		db:        tx,
		repo:      s.repo.WithTx(tx),
		genID:     s.genID,
		clock:     s.clock,
		publisher: s.publisher.WithTx(tx),
	}
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Invite, error) {
	if id == 0 {
		return nil, domain.ErrInvalidInvite
	}
	invite, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	if invite == nil {
		return nil, domain.ErrInviteNotFound
	}
	return invite, nil
}

func (s *service) FindGeneric(ctx context.Context, orgID snowflake.ID) (*domain.Invite, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	invite, err := s.repo.FindValidGeneric(ctx, orgID)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	return invite, nil
}

// Reset replaces the organization's generic invite. The old invite is invalidated and
// the new one inserted at the same instant, in one transaction.
func (s *service) Reset(ctx context.Context, orgID snowflake.ID, role memberdomain.Role) (*domain.Invite, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	var created domain.Invite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.clock.Now()

		current, err := repo.FindValidGeneric(ctx, orgID)
		if err != nil {
			return err
		}
		if current != nil {
			if err := repo.Invalidate(ctx, current.ID, now.Format(time.RFC3339Nano)); err != nil {
				return err
			}
		}

		created = domain.Invite{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			Role:      role,
			CreatedAt: now,
		}
		if err := repo.Create(ctx, created); err != nil {
			return err
		}

		payload := map[string]any{
			"invite_id": created.ID.String(),
			"role":      string(role),
		}
		if current != nil {
			payload["previous_invite_id"] = current.ID.String()
		}
		return s.publisher.WithTx(tx).Publish(ctx, orgID, event.InviteResetTopic, payload)
	})
	if err != nil {
		return nil, errs.FromDB(err)
	}

	return &created, nil
}
