package manager

import (
	"context"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	"github.com/smallbiznis/orgkeeper/internal/orglock"
	userdomain "github.com/smallbiznis/orgkeeper/internal/user/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (m *Manager) ListMembers(ctx context.Context, orgID snowflake.ID) (members []memberdomain.MemberInfo, err error) {
	ctx, done := m.observe(ctx, "list_members", attribute.String("org_id", orgID.String()))
	defer done(&err)

	if _, err = m.orgs.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	return m.members.ListByOrganization(ctx, orgID)
}

// JoinOrganization adds userID with role. Joining twice reports AlreadyMember and
// keeps the existing role.
func (m *Manager) JoinOrganization(ctx context.Context, userID, orgID snowflake.ID, role memberdomain.Role) (result memberdomain.AddResult, err error) {
	ctx, done := m.observe(ctx, "join_organization",
		attribute.String("org_id", orgID.String()),
		attribute.String("user_id", userID.String()),
	)
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(orgID)}, func(ctx context.Context) error {
		result, err = m.members.Add(ctx, userID, orgID, role)
		return err
	})
	if err != nil {
		return "", err
	}

	m.logger(ctx).Info("organization joined",
		zap.String("org_id", orgID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
		zap.String("result", string(result)),
	)
	return result, nil
}

func (m *Manager) ChangeRole(ctx context.Context, userID, orgID snowflake.ID, role memberdomain.Role) (err error) {
	ctx, done := m.observe(ctx, "change_role",
		attribute.String("org_id", orgID.String()),
		attribute.String("user_id", userID.String()),
	)
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(orgID)}, func(ctx context.Context) error {
		return m.inTx(ctx, func(tx *gorm.DB) error {
			if _, err := m.requireLive(ctx, tx, orgID); err != nil {
				return err
			}
			return m.members.WithTx(tx).SetRole(ctx, userID, orgID, role)
		})
	})
	if err != nil {
		return err
	}

	m.logger(ctx).Info("member role changed",
		zap.String("org_id", orgID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
	)
	return nil
}

// LeaveOrganization removes userID from orgID. The last owner cannot leave.
func (m *Manager) LeaveOrganization(ctx context.Context, userID, orgID snowflake.ID) (err error) {
	ctx, done := m.observe(ctx, "leave_organization",
		attribute.String("org_id", orgID.String()),
		attribute.String("user_id", userID.String()),
	)
	defer done(&err)

	err = m.locked(ctx, []string{orglock.OrganizationKey(orgID)}, func(ctx context.Context) error {
		return m.inTx(ctx, func(tx *gorm.DB) error {
			if _, err := m.requireLive(ctx, tx, orgID); err != nil {
				return err
			}
			return m.members.WithTx(tx).Remove(ctx, userID, orgID)
		})
	})
	if err != nil {
		return err
	}

	m.logger(ctx).Info("organization left", zap.String("org_id", orgID.String()), zap.String("user_id", userID.String()))
	return nil
}

// SyncUser refreshes the display data joined into member listings.
func (m *Manager) SyncUser(ctx context.Context, user userdomain.User) (err error) {
	ctx, done := m.observe(ctx, "sync_user", attribute.String("user_id", user.ID.String()))
	defer done(&err)

	if user.ID == 0 {
		return userdomain.ErrInvalidUser
	}
	now := m.clock.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	return m.inTx(ctx, func(tx *gorm.DB) error {
		return m.users.WithTx(tx).Upsert(ctx, user)
	})
}
