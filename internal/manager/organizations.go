package manager

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/orglock"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"github.com/smallbiznis/orgkeeper/internal/slug"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateOrganization creates an organization owned by userID. Creates that normalize
// to the same slug are serialized.
func (m *Manager) CreateOrganization(ctx context.Context, userID snowflake.ID, name string) (org *orgdomain.Organization, err error) {
	ctx, done := m.observe(ctx, "create_organization", attribute.String("user_id", userID.String()))
	defer done(&err)

	err = m.locked(ctx, []string{orglock.SlugKey(slug.Normalize(name))}, func(ctx context.Context) error {
		org, err = m.orgs.Create(ctx, userID, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.logger(ctx).Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("slug", org.Slug),
	)
	return org, nil
}

func (m *Manager) UpdateOrganization(ctx context.Context, id snowflake.ID, req orgdomain.RenameRequest) (org *orgdomain.Organization, err error) {
	ctx, done := m.observe(ctx, "update_organization", attribute.String("org_id", id.String()))
	defer done(&err)

	keys := []string{orglock.OrganizationKey(id)}
	if req.Slug != nil {
		keys = append(keys, orglock.SlugKey(slug.Canonical(*req.Slug)))
	}

	err = m.locked(ctx, keys, func(ctx context.Context) error {
		org, err = m.orgs.Rename(ctx, id, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.logger(ctx).Info("organization updated", zap.String("org_id", id.String()), zap.String("slug", org.Slug))
	return org, nil
}

// DeleteOrganization tombstones the organization together with its settings.
func (m *Manager) DeleteOrganization(ctx context.Context, id snowflake.ID) (err error) {
	ctx, done := m.observe(ctx, "delete_organization", attribute.String("org_id", id.String()))
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(id)}, func(ctx context.Context) error {
		return m.orgs.SoftDelete(ctx, id)
	})
	if err != nil {
		return err
	}

	m.logger(ctx).Info("organization deleted", zap.String("org_id", id.String()))
	return nil
}

func (m *Manager) GetOrganization(ctx context.Context, id snowflake.ID) (org *orgdomain.Organization, err error) {
	ctx, done := m.observe(ctx, "get_organization", attribute.String("org_id", id.String()))
	defer done(&err)

	return m.orgs.GetByID(ctx, id)
}

func (m *Manager) GetOrganizationBySlug(ctx context.Context, value string) (org *orgdomain.Organization, err error) {
	ctx, done := m.observe(ctx, "get_organization_by_slug", attribute.String("slug", value))
	defer done(&err)

	return m.orgs.GetBySlug(ctx, value)
}

// ListOrganizations returns the live organizations userID belongs to.
func (m *Manager) ListOrganizations(ctx context.Context, userID snowflake.ID) (orgs []orgdomain.Organization, err error) {
	ctx, done := m.observe(ctx, "list_organizations", attribute.String("user_id", userID.String()))
	defer done(&err)

	return m.members.ListByUser(ctx, userID)
}

// SoleOwnedOrganizations returns the organizations that would lose their last owner
// if userID left them.
func (m *Manager) SoleOwnedOrganizations(ctx context.Context, userID snowflake.ID) (orgs []orgdomain.Organization, err error) {
	ctx, done := m.observe(ctx, "sole_owned_organizations", attribute.String("user_id", userID.String()))
	defer done(&err)

	return m.members.FindSoleOwnedOrganizations(ctx, userID)
}

// requireLive fails with ErrOrganizationNotFound unless orgID is live in tx.
func (m *Manager) requireLive(ctx context.Context, tx *gorm.DB, orgID snowflake.ID) (*orgdomain.Organization, error) {
	return m.orgs.WithTx(tx).GetByID(ctx, orgID)
}
