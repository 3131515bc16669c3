package manager

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	invitedomain "github.com/smallbiznis/orgkeeper/internal/invite/domain"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	"github.com/smallbiznis/orgkeeper/internal/orglock"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResetInviteLink replaces the organization's generic invite. New invites grant the
// role configured as invite.defaultRole.
func (m *Manager) ResetInviteLink(ctx context.Context, orgID snowflake.ID) (invite *invitedomain.Invite, err error) {
	ctx, done := m.observe(ctx, "reset_invite_link", attribute.String("org_id", orgID.String()))
	defer done(&err)

	role := memberdomain.Role(m.policy.Get().Invite.DefaultRole)

	err = m.locked(ctx, []string{orglock.OrganizationKey(orgID)}, func(ctx context.Context) error {
		return m.inTx(ctx, func(tx *gorm.DB) error {
			if _, err := m.requireLive(ctx, tx, orgID); err != nil {
				return err
			}
			invite, err = m.invites.WithTx(tx).Reset(ctx, orgID, role)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	m.logger(ctx).Info("invite link reset",
		zap.String("org_id", orgID.String()),
		zap.String("invite_id", invite.ID.String()),
	)
	return invite, nil
}

// GetInviteLink returns the valid generic invite, or ErrInviteNotFound when the
// organization has never issued one.
func (m *Manager) GetInviteLink(ctx context.Context, orgID snowflake.ID) (invite *invitedomain.Invite, err error) {
	ctx, done := m.observe(ctx, "get_invite_link", attribute.String("org_id", orgID.String()))
	defer done(&err)

	if _, err = m.orgs.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	invite, err = m.invites.FindGeneric(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, invitedomain.ErrInviteNotFound
	}
	return invite, nil
}

// AcceptInvite joins userID to the invite's organization with the invite's role.
// Invalidated invites and invites of deleted organizations are expired.
func (m *Manager) AcceptInvite(ctx context.Context, inviteID, userID snowflake.ID) (result memberdomain.AddResult, err error) {
	ctx, done := m.observe(ctx, "accept_invite",
		attribute.String("invite_id", inviteID.String()),
		attribute.String("user_id", userID.String()),
	)
	defer done(&err)

	invite, err := m.invites.GetByID(ctx, inviteID)
	if err != nil {
		return "", err
	}

	err = m.locked(ctx, []string{orglock.OrganizationKey(invite.OrgID)}, func(ctx context.Context) error {
		return m.inTx(ctx, func(tx *gorm.DB) error {
			current, err := m.invites.WithTx(tx).GetByID(ctx, inviteID)
			if err != nil {
				return err
			}
			if !current.Valid() {
				return invitedomain.ErrInviteExpired
			}
			if _, err := m.requireLive(ctx, tx, current.OrgID); err != nil {
				if errors.Is(err, orgdomain.ErrOrganizationNotFound) {
					return invitedomain.ErrInviteExpired
				}
				return err
			}
			result, err = m.members.WithTx(tx).Add(ctx, userID, current.OrgID, current.Role)
			return err
		})
	})
	if err != nil {
		return "", err
	}

	m.logger(ctx).Info("invite accepted",
		zap.String("org_id", invite.OrgID.String()),
		zap.String("user_id", userID.String()),
		zap.String("result", string(result)),
	)
	return result, nil
}
