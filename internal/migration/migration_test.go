package migration

import (
	"testing"
	"time"

	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	"github.com/smallbiznis/orgkeeper/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(conn, db.TypeSQLite))
	return conn
}

func TestMigrateCreatesEveryTable(t *testing.T) {
	conn := newMigratedDB(t)
	for _, model := range Models() {
		assert.True(t, conn.Migrator().HasTable(model))
	}
}

func TestLiveSlugIndexIgnoresTombstones(t *testing.T) {
	conn := newMigratedDB(t)
	now := time.Now().UTC()

	require.NoError(t, conn.Create(&orgdomain.Organization{ID: 1, Name: "Acme", Slug: "acme", CreatedAt: now, UpdatedAt: now, Deleted: true}).Error)
	require.NoError(t, conn.Create(&orgdomain.Organization{ID: 2, Name: "Acme", Slug: "acme", CreatedAt: now, UpdatedAt: now}).Error)

	err := conn.Create(&orgdomain.Organization{ID: 3, Name: "Acme", Slug: "acme", CreatedAt: now, UpdatedAt: now}).Error
	assert.True(t, db.IsDuplicateKeyErr(err))
}

func TestLiveMembershipIndex(t *testing.T) {
	conn := newMigratedDB(t)
	now := time.Now().UTC()

	require.NoError(t, conn.Create(&memberdomain.Member{ID: 1, OrgID: 7, UserID: 9, Role: memberdomain.RoleOwner, CreatedAt: now, Deleted: true}).Error)
	require.NoError(t, conn.Create(&memberdomain.Member{ID: 2, OrgID: 7, UserID: 9, Role: memberdomain.RoleMember, CreatedAt: now}).Error)

	err := conn.Create(&memberdomain.Member{ID: 3, OrgID: 7, UserID: 9, Role: memberdomain.RoleMember, CreatedAt: now}).Error
	assert.True(t, db.IsDuplicateKeyErr(err))
}
