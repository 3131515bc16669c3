package manager

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/orglock"
	settingsdomain "github.com/smallbiznis/orgkeeper/internal/orgsettings/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetSettings returns the organization's settings, or the defaults when nothing was
// ever written.
func (m *Manager) GetSettings(ctx context.Context, orgID snowflake.ID) (settings *settingsdomain.Settings, err error) {
	ctx, done := m.observe(ctx, "get_settings", attribute.String("org_id", orgID.String()))
	defer done(&err)

	if _, err = m.orgs.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	settings, err = m.settings.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &settingsdomain.Settings{OrgID: orgID}
	}
	return settings, nil
}

func (m *Manager) UpdateSettings(ctx context.Context, orgID snowflake.ID, partial settingsdomain.PartialSettings) (settings *settingsdomain.Settings, err error) {
	ctx, done := m.observe(ctx, "update_settings", attribute.String("org_id", orgID.String()))
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(orgID)}, func(ctx context.Context) error {
		return m.inTx(ctx, func(tx *gorm.DB) error {
			if _, err := m.requireLive(ctx, tx, orgID); err != nil {
				return err
			}
			settings, err = m.settings.WithTx(tx).Set(ctx, orgID, partial)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	m.logger(ctx).Info("settings updated", zap.String("org_id", orgID.String()))
	return settings, nil
}
