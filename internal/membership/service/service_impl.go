package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/internal/event"
	"github.com/smallbiznis/orgkeeper/internal/membership/domain"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"github.com/smallbiznis/orgkeeper/pkg/db"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Repo      domain.Repository
	Orgs      orgdomain.Repository
	GenID     *snowflake.Node
	Clock     clock.Clock
	Publisher event.Publisher
}

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	orgs      orgdomain.Repository
	genID     *snowflake.Node
	clock     clock.Clock
	publisher event.Publisher
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		repo:      p.Repo,
		orgs:      p.Orgs,
		genID:     p.GenID,
		clock:     p.Clock,
		publisher: p.Publisher,
	}
}

func (s *service) WithTx(tx *gorm.DB) domain.Service {
	cp := *s
	cp.db = tx
	cp.repo = s.repo.WithTx(tx)
	cp.orgs = s.orgs.WithTx(tx)
	cp.publisher = s.publisher.WithTx(tx)
	return &cp
}

func (s *service) ListByOrganization(ctx context.Context, orgID snowflake.ID) ([]domain.MemberInfo, error) {
	if orgID == 0 {
		return nil, orgdomain.ErrInvalidOrganization
	}
	items, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	return items, nil
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID) ([]orgdomain.Organization, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	orgs, err := s.repo.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	return orgs, nil
}

func (s *service) FindSoleOwnedOrganizations(ctx context.Context, userID snowflake.ID) ([]orgdomain.Organization, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	orgs, err := s.repo.ListSoleOwnedOrganizations(ctx, userID)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	return orgs, nil
}

// Add inserts a live membership. An existing live membership is left untouched,
// whatever its role.
func (s *service) Add(ctx context.Context, userID, orgID snowflake.ID, role domain.Role) (domain.AddResult, error) {
	if userID == 0 {
		return "", domain.ErrInvalidUser
	}
	if orgID == 0 {
		return "", orgdomain.ErrInvalidOrganization
	}
	if !role.Valid() {
		return "", domain.ErrInvalidRole
	}

	var result domain.AddResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := s.orgs.WithTx(tx).FindByID(ctx, orgID)
		if err != nil {
			return err
		}
		if org == nil {
			return orgdomain.ErrOrganizationNotFound
		}

		repo := s.repo.WithTx(tx)
		existing, err := repo.FindLive(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = domain.AlreadyMember
			return nil
		}

		member := domain.Member{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    userID,
			Role:      role,
			CreatedAt: s.clock.Now(),
		}
		if err := repo.Create(ctx, member); err != nil {
			return err
		}

		result = domain.Added
		return s.publisher.WithTx(tx).Publish(ctx, orgID, event.MemberJoinedTopic, map[string]any{
			"user_id": userID.String(),
			"role":    string(role),
		})
	})
	if err != nil {
		// a concurrent insert won the live-membership index
		if db.IsDuplicateKeyErr(err) {
			return domain.AlreadyMember, nil
		}
		return "", errs.FromDB(err)
	}

	return result, nil
}

func (s *service) SetRole(ctx context.Context, userID, orgID snowflake.ID, role domain.Role) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	if orgID == 0 {
		return orgdomain.ErrInvalidOrganization
	}
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		member, err := repo.FindLive(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return domain.ErrMembershipNotFound
		}
		if member.Role == role {
			return nil
		}

		if member.Role == domain.RoleOwner {
			if err := ensureOwnerRetained(ctx, repo, orgID, member.ID); err != nil {
				return err
			}
		}

		if err := repo.UpdateRole(ctx, member.ID, role); err != nil {
			return err
		}

		return s.publisher.WithTx(tx).Publish(ctx, orgID, event.MemberRoleChangedTopic, map[string]any{
			"user_id":  userID.String(),
			"old_role": string(member.Role),
			"role":     string(role),
		})
	})
	return errs.FromDB(err)
}

func (s *service) Remove(ctx context.Context, userID, orgID snowflake.ID) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	if orgID == 0 {
		return orgdomain.ErrInvalidOrganization
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		member, err := repo.FindLive(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return domain.ErrMembershipNotFound
		}

		if member.Role == domain.RoleOwner {
			if err := ensureOwnerRetained(ctx, repo, orgID, member.ID); err != nil {
				return err
			}
		}

		if err := repo.SoftDelete(ctx, member.ID); err != nil {
			return err
		}

		return s.publisher.WithTx(tx).Publish(ctx, orgID, event.MemberLeftTopic, map[string]any{
			"user_id": userID.String(),
			"role":    string(member.Role),
		})
	})
	return errs.FromDB(err)
}

func (s *service) Role(ctx context.Context, userID, orgID snowflake.ID) (domain.Role, error) {
	if userID == 0 {
		return "", domain.ErrInvalidUser
	}
	if orgID == 0 {
		return "", orgdomain.ErrInvalidOrganization
	}
	member, err := s.repo.FindLive(ctx, orgID, userID)
	if err != nil {
		return "", errs.FromDB(err)
	}
	if member == nil {
		return "", domain.ErrMembershipNotFound
	}
	return member.Role, nil
}

// ensureOwnerRetained fails when membershipID is the last live owner of orgID. The
// owner rows stay locked until the caller's transaction ends.
func ensureOwnerRetained(ctx context.Context, repo domain.Repository, orgID, membershipID snowflake.ID) error {
	owners, err := repo.LockOwners(ctx, orgID)
	if err != nil {
		return err
	}
	remaining := 0
	for _, owner := range owners {
		if owner.ID != membershipID {
			remaining++
		}
	}
	if remaining == 0 {
		return domain.ErrMustRetainOwner
	}
	return nil
}
