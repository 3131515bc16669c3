package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/event"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	"github.com/smallbiznis/orgkeeper/internal/organization/domain"
	settingsdomain "github.com/smallbiznis/orgkeeper/internal/orgsettings/domain"
	"github.com/smallbiznis/orgkeeper/internal/testkit"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (domain.Service, *testkit.Env) {
	t.Helper()
	env := testkit.New(t)
	svc := NewService(Params{
		DB:        env.DB,
		Repo:      env.Organizations,
		Members:   env.Members,
		Settings:  env.Settings,
		Slugs:     env.Slugs,
		GenID:     env.Node,
		Clock:     env.Clock,
		Publisher: env.Publisher,
	})
	return svc, env
}

func strPtr(s string) *string { return &s }

func TestCreateAddsOwnerAndEvent(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(42)

	org, err := svc.Create(ctx, userID, "  Acme Corp ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", org.Name)
	assert.Equal(t, "acme-corp", org.Slug)
	assert.Equal(t, testkit.Epoch, org.CreatedAt)

	owner, err := env.Members.FindLive(ctx, org.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, memberdomain.RoleOwner, owner.Role)

	events := env.Events(t, event.OrganizationCreatedTopic)
	require.Len(t, events, 1)
	assert.Equal(t, org.ID, events[0].OrgID)
}

func TestCreateSuffixesCollidingSlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, "Acme")
	require.NoError(t, err)
	second, err := svc.Create(ctx, 2, "acme")
	require.NoError(t, err)

	assert.Equal(t, "acme", first.Slug)
	assert.Regexp(t, regexp.MustCompile(`^acme-[0-9a-f]{8}$`), second.Slug)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 0, "Acme")
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = svc.Create(ctx, 1, "ab")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	assert.True(t, errs.Is(err, errs.KindInvalidArgument))

	_, err = svc.Create(ctx, 1, "bad\x00name")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestRename(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	acme, err := svc.Create(ctx, 1, "Acme")
	require.NoError(t, err)
	globex, err := svc.Create(ctx, 1, "Globex")
	require.NoError(t, err)

	t.Run("name only", func(t *testing.T) {
		env.Clock.Advance(time.Second)
		org, err := svc.Rename(ctx, acme.ID, domain.RenameRequest{Name: strPtr("Acme Inc")})
		require.NoError(t, err)
		assert.Equal(t, "Acme Inc", org.Name)
		assert.Equal(t, "acme", org.Slug)
		assert.True(t, org.UpdatedAt.After(acme.UpdatedAt))
	})

	t.Run("slug collision", func(t *testing.T) {
		_, err := svc.Rename(ctx, acme.ID, domain.RenameRequest{Slug: strPtr(globex.Slug)})
		assert.ErrorIs(t, err, domain.ErrSlugTaken)
		assert.True(t, errs.Is(err, errs.KindConflict))
	})

	t.Run("slug differing only in case collides", func(t *testing.T) {
		_, err := svc.Rename(ctx, acme.ID, domain.RenameRequest{Slug: strPtr("GLOBEX")})
		assert.ErrorIs(t, err, domain.ErrSlugTaken)
	})

	t.Run("explicit slug is stored lowercased", func(t *testing.T) {
		org, err := svc.Rename(ctx, acme.ID, domain.RenameRequest{Slug: strPtr(" Acme-Labs ")})
		require.NoError(t, err)
		assert.Equal(t, "acme-labs", org.Slug)

		found, err := svc.GetBySlug(ctx, "ACME-LABS")
		require.NoError(t, err)
		assert.Equal(t, acme.ID, found.ID)
	})

	t.Run("unchanged values are a no-op", func(t *testing.T) {
		before := len(env.Events(t, event.OrganizationUpdatedTopic))
		org, err := svc.Rename(ctx, globex.ID, domain.RenameRequest{Name: strPtr("Globex"), Slug: strPtr("globex")})
		require.NoError(t, err)
		assert.Equal(t, "globex", org.Slug)
		assert.Len(t, env.Events(t, event.OrganizationUpdatedTopic), before)
	})

	t.Run("nothing to update", func(t *testing.T) {
		_, err := svc.Rename(ctx, acme.ID, domain.RenameRequest{})
		assert.ErrorIs(t, err, domain.ErrNothingToUpdate)
	})

	t.Run("invalid slug", func(t *testing.T) {
		_, err := svc.Rename(ctx, acme.ID, domain.RenameRequest{Slug: strPtr("no spaces")})
		assert.ErrorIs(t, err, domain.ErrInvalidSlug)
	})

	t.Run("missing organization", func(t *testing.T) {
		_, err := svc.Rename(ctx, 999, domain.RenameRequest{Name: strPtr("Nobody")})
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	})
}

func TestSoftDeleteHidesOrganizationAndReleasesSlug(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, 1, "Acme")
	require.NoError(t, err)
	require.NoError(t, env.Settings.Create(ctx, settingsdomain.Settings{OrgID: org.ID, UpdatedAt: env.Clock.Now()}))

	require.NoError(t, svc.SoftDelete(ctx, org.ID))

	_, err = svc.GetByID(ctx, org.ID)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	_, err = svc.GetBySlug(ctx, "acme")
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	settings, err := env.Settings.FindLive(ctx, org.ID)
	require.NoError(t, err)
	assert.Nil(t, settings)

	err = svc.SoftDelete(ctx, org.ID)
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	reused, err := svc.Create(ctx, 2, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", reused.Slug)
	assert.NotEqual(t, org.ID, reused.ID)
}

func TestGetBySlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, 1, "Initech")
	require.NoError(t, err)

	found, err := svc.GetBySlug(ctx, "initech")
	require.NoError(t, err)
	assert.Equal(t, org.ID, found.ID)

	_, err = svc.GetBySlug(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidSlug)
}
