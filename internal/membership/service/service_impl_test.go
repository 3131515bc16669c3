package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/event"
	"github.com/smallbiznis/orgkeeper/internal/membership/domain"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"github.com/smallbiznis/orgkeeper/internal/testkit"
	userdomain "github.com/smallbiznis/orgkeeper/internal/user/domain"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (domain.Service, *testkit.Env) {
	t.Helper()
	env := testkit.New(t)
	svc := NewService(Params{
		DB:        env.DB,
		Repo:      env.Members,
		Orgs:      env.Organizations,
		GenID:     env.Node,
		Clock:     env.Clock,
		Publisher: env.Publisher,
	})
	return svc, env
}

// seedOrg inserts a live organization owned by ownerID.
func seedOrg(t *testing.T, env *testkit.Env, slug string, ownerID snowflake.ID) orgdomain.Organization {
	t.Helper()
	ctx := context.Background()
	now := env.Clock.Now()

	org := orgdomain.Organization{ID: env.Node.Generate(), Name: slug, Slug: slug, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, env.Organizations.Create(ctx, org))
	require.NoError(t, env.Members.Create(ctx, domain.Member{
		ID:        env.Node.Generate(),
		OrgID:     org.ID,
		UserID:    ownerID,
		Role:      domain.RoleOwner,
		CreatedAt: now,
	}))
	return org
}

func TestAddIsIdempotent(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	org := seedOrg(t, env, "acme", 1)

	result, err := svc.Add(ctx, 2, org.ID, domain.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, domain.Added, result)

	result, err = svc.Add(ctx, 2, org.ID, domain.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, domain.AlreadyMember, result)

	role, err := svc.Role(ctx, 2, org.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, role)

	assert.Len(t, env.Events(t, event.MemberJoinedTopic), 1)
}

func TestAddValidatesInput(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	org := seedOrg(t, env, "acme", 1)

	_, err := svc.Add(ctx, 2, org.ID, domain.Role("admin"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.Add(ctx, 2, env.Node.Generate(), domain.RoleMember)
	assert.ErrorIs(t, err, orgdomain.ErrOrganizationNotFound)
	assert.True(t, errs.Is(err, errs.KindNotFound))

	_, err = svc.Add(ctx, 0, org.ID, domain.RoleMember)
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestSetRoleKeepsAnOwner(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	org := seedOrg(t, env, "acme", 1)

	err := svc.SetRole(ctx, 1, org.ID, domain.RoleMember)
	assert.ErrorIs(t, err, domain.ErrMustRetainOwner)
	assert.True(t, errs.Is(err, errs.KindConflict))

	_, err = svc.Add(ctx, 2, org.ID, domain.RoleOwner)
	require.NoError(t, err)

	require.NoError(t, svc.SetRole(ctx, 1, org.ID, domain.RoleMember))
	role, err := svc.Role(ctx, 1, org.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, role)

	err = svc.SetRole(ctx, 2, org.ID, domain.RoleMember)
	assert.ErrorIs(t, err, domain.ErrMustRetainOwner)

	// same role is a no-op
	require.NoError(t, svc.SetRole(ctx, 2, org.ID, domain.RoleOwner))
	assert.Len(t, env.Events(t, event.MemberRoleChangedTopic), 1)

	err = svc.SetRole(ctx, 3, org.ID, domain.RoleOwner)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}

func TestRemove(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	org := seedOrg(t, env, "acme", 1)

	_, err := svc.Add(ctx, 2, org.ID, domain.RoleMember)
	require.NoError(t, err)

	err = svc.Remove(ctx, 1, org.ID)
	assert.ErrorIs(t, err, domain.ErrMustRetainOwner)

	require.NoError(t, svc.Remove(ctx, 2, org.ID))
	_, err = svc.Role(ctx, 2, org.ID)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)

	err = svc.Remove(ctx, 2, org.ID)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)

	// rejoining after leaving inserts a fresh live row
	result, err := svc.Add(ctx, 2, org.ID, domain.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, domain.Added, result)
	require.NoError(t, svc.Remove(ctx, 1, org.ID))

	var rows int64
	require.NoError(t, env.DB.Model(&domain.Member{}).Where("org_id = ? AND user_id = ?", org.ID, 2).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestListByOrganizationNewestFirst(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	org := seedOrg(t, env, "acme", 1)

	require.NoError(t, env.Users.Upsert(ctx, userdomain.User{
		ID:        1,
		Name:      "Ada",
		Email:     "ada@example.com",
		CreatedAt: env.Clock.Now(),
		UpdatedAt: env.Clock.Now(),
	}))

	env.Clock.Advance(time.Minute)
	_, err := svc.Add(ctx, 2, org.ID, domain.RoleMember)
	require.NoError(t, err)
	env.Clock.Advance(time.Minute)
	_, err = svc.Add(ctx, 3, org.ID, domain.RoleMember)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, 3, org.ID))

	members, err := svc.ListByOrganization(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, snowflake.ID(2), members[0].UserID)
	assert.Equal(t, "", members[0].Name)
	assert.Equal(t, snowflake.ID(1), members[1].UserID)
	assert.Equal(t, "Ada", members[1].Name)
	assert.Equal(t, "ada@example.com", members[1].Email)
	assert.Equal(t, domain.RoleOwner, members[1].Role)
	assert.True(t, members[1].MemberSince.Equal(testkit.Epoch))
}

func TestListByUserSkipsDeletedOrganizations(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	acme := seedOrg(t, env, "acme", 1)
	globex := seedOrg(t, env, "globex", 1)
	seedOrg(t, env, "initech", 2)

	deleted, err := env.Organizations.SoftDelete(ctx, globex.ID, env.Clock.Now())
	require.NoError(t, err)
	require.True(t, deleted)

	orgs, err := svc.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, acme.ID, orgs[0].ID)
}

func TestFindSoleOwnedOrganizations(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	solo := seedOrg(t, env, "solo", 1)
	shared := seedOrg(t, env, "shared", 1)
	other := seedOrg(t, env, "other", 2)

	_, err := svc.Add(ctx, 2, shared.ID, domain.RoleOwner)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 1, other.ID, domain.RoleMember)
	require.NoError(t, err)

	orgs, err := svc.FindSoleOwnedOrganizations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, solo.ID, orgs[0].ID)
}
