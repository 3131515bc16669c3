package manager

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/orgkeeper/internal/orglock"
	ssodomain "github.com/smallbiznis/orgkeeper/internal/sso/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (m *Manager) CreateSSOConfig(ctx context.Context, req ssodomain.CreateClientConfig) (cfg *ssodomain.ClientConfig, err error) {
	ctx, done := m.observe(ctx, "create_sso_config",
		attribute.String("org_id", req.OrgID.String()),
		attribute.String("config_id", req.ID.String()),
	)
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(req.OrgID)}, func(ctx context.Context) error {
		return m.inTx(ctx, func(tx *gorm.DB) error {
			if _, err := m.requireLive(ctx, tx, req.OrgID); err != nil {
				return err
			}
			cfg, err = m.sso.WithTx(tx).Create(ctx, req)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	m.logger(ctx).Info("sso config created",
		zap.String("org_id", req.OrgID.String()),
		zap.String("config_id", cfg.ID.String()),
		zap.String("issuer", cfg.Issuer),
	)
	return cfg, nil
}

func (m *Manager) UpdateSSOConfig(ctx context.Context, id uuid.UUID, orgID snowflake.ID, req ssodomain.UpdateClientConfig) (cfg *ssodomain.ClientConfig, err error) {
	ctx, done := m.observe(ctx, "update_sso_config",
		attribute.String("org_id", orgID.String()),
		attribute.String("config_id", id.String()),
	)
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(orgID)}, func(ctx context.Context) error {
		return m.inTx(ctx, func(tx *gorm.DB) error {
			if _, err := m.requireLive(ctx, tx, orgID); err != nil {
				return err
			}
			cfg, err = m.sso.WithTx(tx).Update(ctx, id, orgID, req)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	m.logger(ctx).Info("sso config updated", zap.String("org_id", orgID.String()), zap.String("config_id", id.String()))
	return cfg, nil
}

func (m *Manager) GetSSOConfig(ctx context.Context, id uuid.UUID, orgID snowflake.ID) (cfg *ssodomain.ClientConfig, err error) {
	ctx, done := m.observe(ctx, "get_sso_config", attribute.String("config_id", id.String()))
	defer done(&err)

	return m.sso.GetForOrganization(ctx, id, orgID)
}

func (m *Manager) ListSSOConfigs(ctx context.Context, orgID snowflake.ID) (configs []ssodomain.ClientConfig, err error) {
	ctx, done := m.observe(ctx, "list_sso_configs", attribute.String("org_id", orgID.String()))
	defer done(&err)

	if _, err = m.orgs.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	return m.sso.ListForOrganization(ctx, orgID)
}

// GetSSOConfigBySlug resolves the configuration used to sign in to the organization
// with the given slug.
func (m *Manager) GetSSOConfigBySlug(ctx context.Context, value string) (cfg *ssodomain.ClientConfig, err error) {
	ctx, done := m.observe(ctx, "get_sso_config_by_slug", attribute.String("slug", value))
	defer done(&err)

	return m.sso.GetByOrganizationSlug(ctx, value)
}

// SSOConfigSpec opens the sealed client credentials of a configuration.
func (m *Manager) SSOConfigSpec(ctx context.Context, id uuid.UUID, orgID snowflake.ID) (spec ssodomain.OIDCSpec, err error) {
	ctx, done := m.observe(ctx, "sso_config_spec", attribute.String("config_id", id.String()))
	defer done(&err)

	cfg, err := m.sso.GetForOrganization(ctx, id, orgID)
	if err != nil {
		return ssodomain.OIDCSpec{}, err
	}
	return m.sso.Decrypt(*cfg)
}

func (m *Manager) DeleteSSOConfig(ctx context.Context, id uuid.UUID, orgID snowflake.ID) (err error) {
	ctx, done := m.observe(ctx, "delete_sso_config",
		attribute.String("org_id", orgID.String()),
		attribute.String("config_id", id.String()),
	)
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(orgID)}, func(ctx context.Context) error {
		return m.sso.Delete(ctx, id, orgID)
	})
	if err != nil {
		return err
	}

	m.logger(ctx).Info("sso config deleted", zap.String("org_id", orgID.String()), zap.String("config_id", id.String()))
	return nil
}

// ActivateSSOConfig makes id the only active configuration of orgID.
func (m *Manager) ActivateSSOConfig(ctx context.Context, id uuid.UUID, orgID snowflake.ID) (cfg *ssodomain.ClientConfig, err error) {
	ctx, done := m.observe(ctx, "activate_sso_config",
		attribute.String("org_id", orgID.String()),
		attribute.String("config_id", id.String()),
	)
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(orgID)}, func(ctx context.Context) error {
		return m.inTx(ctx, func(tx *gorm.DB) error {
			if _, err := m.requireLive(ctx, tx, orgID); err != nil {
				return err
			}
			svc := m.sso.WithTx(tx)
			if _, err := svc.GetForOrganization(ctx, id, orgID); err != nil {
				return err
			}
			cfg, err = svc.Activate(ctx, id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	m.logger(ctx).Info("sso config activated", zap.String("org_id", orgID.String()), zap.String("config_id", id.String()))
	return cfg, nil
}
