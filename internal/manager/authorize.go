package manager

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/authorization"
	"go.opentelemetry.io/otel/attribute"
)

// Authorize checks that userID's role in orgID permits action. Non-members get
// ErrMembershipNotFound; members lacking the permission get ErrPermissionDenied.
func (m *Manager) Authorize(ctx context.Context, userID, orgID snowflake.ID, action authorization.Action) (err error) {
	ctx, done := m.observe(ctx, "authorize",
		attribute.String("org_id", orgID.String()),
		attribute.String("user_id", userID.String()),
		attribute.String("action", string(action)),
	)
	defer done(&err)

	if _, err = m.orgs.GetByID(ctx, orgID); err != nil {
		return err
	}
	role, err := m.members.Role(ctx, userID, orgID)
	if err != nil {
		return err
	}
	return m.authorizer.Check(role, action)
}
