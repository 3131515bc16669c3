package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/internal/event"
	"github.com/smallbiznis/orgkeeper/internal/sso/domain"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"github.com/smallbiznis/orgkeeper/pkg/secret"
	"gorm.io/gorm"
)

const maxIssuerLength = 255

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	cipher    secret.Cipher
	clock     clock.Clock
	publisher event.Publisher
}

func NewService(db *gorm.DB, repo domain.Repository, cipher secret.Cipher, clk clock.Clock, publisher event.Publisher) domain.Service {
	return &service{
		db:        db,
		repo:      repo,
		cipher:    cipher,
		clock:     clk,
		publisher: publisher,
	}
}

func (s *service) WithTx(tx *gorm.DB) domain.Service {
	return &service{
		db:        tx,
		repo:      s.repo.WithTx(tx),
		cipher:    s.cipher,
		clock:     s.clock,
		publisher: s.publisher.WithTx(tx),
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateClientConfig) (*domain.ClientConfig, error) {
	if req.ID == uuid.Nil {
		return nil, domain.ErrInvalidConfigID
	}
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	issuer, err := validateIssuer(req.Issuer)
	if err != nil {
		return nil, err
	}

	data, err := s.seal(req.Spec)
	if err != nil {
		return nil, err
	}

	cfg := domain.ClientConfig{
		ID:           req.ID,
		OrgID:        req.OrgID,
		Issuer:       issuer,
		Data:         data,
		LastModified: s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, cfg); err != nil {
			return err
		}
		return s.publisher.WithTx(tx).Publish(ctx, cfg.OrgID, event.SSOConfigCreatedTopic, specPayload(cfg.ID, req.Spec, map[string]any{
			"issuer": cfg.Issuer,
		}))
	})
	if err != nil {
		return nil, errs.FromDB(err)
	}

	return &cfg, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, orgID snowflake.ID, req domain.UpdateClientConfig) (*domain.ClientConfig, error) {
	if id == uuid.Nil {
		return nil, domain.ErrInvalidConfigID
	}
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.Issuer == nil && req.Spec == nil {
		return nil, domain.ErrNothingToUpdate
	}

	fields := map[string]any{}
	if req.Issuer != nil {
		issuer, err := validateIssuer(*req.Issuer)
		if err != nil {
			return nil, err
		}
		fields["issuer"] = issuer
	}
	if req.Spec != nil {
		data, err := s.seal(*req.Spec)
		if err != nil {
			return nil, err
		}
		fields["data"] = data
	}
	fields["last_modified"] = s.clock.Now()

	var updated *domain.ClientConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ok, err := repo.Update(ctx, id, orgID, fields)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConfigNotFound
		}

		updated, err = repo.FindForOrganization(ctx, id, orgID)
		if err != nil {
			return err
		}
		if updated == nil {
			return domain.ErrConfigNotFound
		}

		payload := map[string]any{"issuer": updated.Issuer}
		if req.Spec != nil {
			return s.publisher.WithTx(tx).Publish(ctx, orgID, event.SSOConfigUpdatedTopic, specPayload(id, *req.Spec, payload))
		}
		payload["config_id"] = id.String()
		return s.publisher.WithTx(tx).Publish(ctx, orgID, event.SSOConfigUpdatedTopic, payload)
	})
	if err != nil {
		return nil, errs.FromDB(err)
	}

	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.ClientConfig, error) {
	if id == uuid.Nil {
		return nil, domain.ErrInvalidConfigID
	}
	return s.found(s.repo.FindByID(ctx, id))
}

func (s *service) GetForOrganization(ctx context.Context, id uuid.UUID, orgID snowflake.ID) (*domain.ClientConfig, error) {
	if id == uuid.Nil {
		return nil, domain.ErrInvalidConfigID
	}
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.found(s.repo.FindForOrganization(ctx, id, orgID))
}

func (s *service) ListForOrganization(ctx context.Context, orgID snowflake.ID) ([]domain.ClientConfig, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	configs, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, errs.FromDB(err)
	}
	return configs, nil
}

func (s *service) GetByOrganizationSlug(ctx context.Context, value string) (*domain.ClientConfig, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil, domain.ErrInvalidSlug
	}
	return s.found(s.repo.FindByOrganizationSlug(ctx, value))
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, orgID snowflake.ID) error {
	if id == uuid.Nil {
		return domain.ErrInvalidConfigID
	}
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).SoftDelete(ctx, id, orgID, s.clock.Now())
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrConfigNotFound
		}
		return s.publisher.WithTx(tx).Publish(ctx, orgID, event.SSOConfigDeletedTopic, map[string]any{
			"config_id": id.String(),
		})
	})
	return errs.FromDB(err)
}

func (s *service) Activate(ctx context.Context, id uuid.UUID) (*domain.ClientConfig, error) {
	if id == uuid.Nil {
		return nil, domain.ErrInvalidConfigID
	}

	now := s.clock.Now()
	var cfg *domain.ClientConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		cfg, err = repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if cfg == nil {
			return domain.ErrConfigNotFound
		}

		if err := repo.DeactivateOthers(ctx, cfg.OrgID, cfg.ID, now); err != nil {
			return err
		}
		ok, err := repo.SetActive(ctx, cfg.ID, true, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConfigNotFound
		}
		return s.publisher.WithTx(tx).Publish(ctx, cfg.OrgID, event.SSOConfigActivatedTopic, map[string]any{
			"config_id": cfg.ID.String(),
		})
	})
	if err != nil {
		return nil, errs.FromDB(err)
	}

	cfg.Active = true
	cfg.LastModified = now
	return cfg, nil
}

func (s *service) Decrypt(cfg domain.ClientConfig) (domain.OIDCSpec, error) {
	spec, err := secret.OpenJSON[domain.OIDCSpec](s.cipher, []byte(cfg.Data))
	if err != nil {
		return domain.OIDCSpec{}, errs.Wrap(domain.ErrSealFailed, err)
	}
	return spec, nil
}

func (s *service) seal(spec domain.OIDCSpec) (string, error) {
	sealed, err := secret.SealJSON(s.cipher, spec)
	if err != nil {
		return "", errs.Wrap(domain.ErrSealFailed, err)
	}
	return string(sealed), nil
}

func (s *service) found(cfg *domain.ClientConfig, err error) (*domain.ClientConfig, error) {
	if err != nil {
		return nil, errs.FromDB(err)
	}
	if cfg == nil {
		return nil, domain.ErrConfigNotFound
	}
	return cfg, nil
}

func validateIssuer(raw string) (string, error) {
	issuer := strings.TrimSpace(raw)
	if issuer == "" || len(issuer) > maxIssuerLength {
		return "", domain.ErrInvalidIssuer
	}
	return issuer, nil
}

// specPayload describes a client spec for the outbox without exposing the secret.
func specPayload(id uuid.UUID, spec domain.OIDCSpec, extra map[string]any) map[string]any {
	payload := map[string]any{
		"config_id":     id.String(),
		"client_id":     spec.ClientID,
		"client_secret": spec.ClientSecret,
		"redirect_url":  spec.RedirectURL,
	}
	for key, value := range extra {
		payload[key] = value
	}
	return secret.MaskFields(payload, "client_secret")
}
