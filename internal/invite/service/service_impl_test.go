package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/orgkeeper/internal/event"
	"github.com/smallbiznis/orgkeeper/internal/invite/domain"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"github.com/smallbiznis/orgkeeper/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (domain.Service, *testkit.Env, orgdomain.Organization) {
	t.Helper()
	env := testkit.New(t)

	now := env.Clock.Now()
	org := orgdomain.Organization{ID: env.Node.Generate(), Name: "Acme", Slug: "acme", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, env.Organizations.Create(context.Background(), org))

	return NewService(env.DB, env.Invites, env.Node, env.Clock, env.Publisher), env, org
}

func TestFindGenericBeforeFirstReset(t *testing.T) {
	svc, _, org := newTestService(t)

	invite, err := svc.FindGeneric(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Nil(t, invite)
}

func TestResetLeavesExactlyOneValidInvite(t *testing.T) {
	svc, env, org := newTestService(t)
	ctx := context.Background()

	var issued []*domain.Invite
	for i := 0; i < 5; i++ {
		env.Clock.Advance(time.Second)
		invite, err := svc.Reset(ctx, org.ID, memberdomain.RoleMember)
		require.NoError(t, err)
		assert.True(t, invite.Valid())
		assert.True(t, invite.Generic())
		issued = append(issued, invite)
	}

	var valid int64
	require.NoError(t, env.DB.Model(&domain.Invite{}).
		Where("org_id = ? AND invited_email = '' AND invalidation_time = ''", org.ID).
		Count(&valid).Error)
	assert.Equal(t, int64(1), valid)

	current, err := svc.FindGeneric(ctx, org.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, issued[len(issued)-1].ID, current.ID)

	old, err := svc.GetByID(ctx, issued[0].ID)
	require.NoError(t, err)
	assert.False(t, old.Valid())
	invalidatedAt, err := time.Parse(time.RFC3339Nano, old.InvalidationTime)
	require.NoError(t, err)
	assert.True(t, invalidatedAt.Equal(testkit.Epoch.Add(2*time.Second)))

	assert.Len(t, env.Events(t, event.InviteResetTopic), 5)
}

func TestResetValidatesInput(t *testing.T) {
	svc, _, org := newTestService(t)
	ctx := context.Background()

	_, err := svc.Reset(ctx, 0, memberdomain.RoleMember)
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)

	_, err = svc.Reset(ctx, org.ID, memberdomain.Role("guest"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestGetByIDUnknownInvite(t *testing.T) {
	svc, env, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), env.Node.Generate())
	assert.ErrorIs(t, err, domain.ErrInviteNotFound)
}

func TestStorageRejectsSecondValidGenericInvite(t *testing.T) {
	_, env, org := newTestService(t)
	ctx := context.Background()

	first := domain.Invite{ID: env.Node.Generate(), OrgID: org.ID, Role: memberdomain.RoleMember, CreatedAt: env.Clock.Now()}
	require.NoError(t, env.Invites.Create(ctx, first))

	second := domain.Invite{ID: env.Node.Generate(), OrgID: org.ID, Role: memberdomain.RoleMember, CreatedAt: env.Clock.Now()}
	assert.Error(t, env.Invites.Create(ctx, second))

	personal := domain.Invite{ID: env.Node.Generate(), OrgID: org.ID, Role: memberdomain.RoleMember, CreatedAt: env.Clock.Now(), InvitedEmail: "bob@example.com"}
	assert.NoError(t, env.Invites.Create(ctx, personal))
}
