// Package testkit builds the storage fixtures shared by package tests.
package testkit

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/internal/config"
	"github.com/smallbiznis/orgkeeper/internal/event"
	invitedomain "github.com/smallbiznis/orgkeeper/internal/invite/domain"
	inviterepo "github.com/smallbiznis/orgkeeper/internal/invite/repository"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	memberrepo "github.com/smallbiznis/orgkeeper/internal/membership/repository"
	"github.com/smallbiznis/orgkeeper/internal/migration"
	orgdomain "github.com/smallbiznis/orgkeeper/internal/organization/domain"
	orgrepo "github.com/smallbiznis/orgkeeper/internal/organization/repository"
	settingsdomain "github.com/smallbiznis/orgkeeper/internal/orgsettings/domain"
	settingsrepo "github.com/smallbiznis/orgkeeper/internal/orgsettings/repository"
	"github.com/smallbiznis/orgkeeper/internal/slug"
	ssodomain "github.com/smallbiznis/orgkeeper/internal/sso/domain"
	ssorepo "github.com/smallbiznis/orgkeeper/internal/sso/repository"
	userdomain "github.com/smallbiznis/orgkeeper/internal/user/domain"
	userrepo "github.com/smallbiznis/orgkeeper/internal/user/repository"
	"github.com/smallbiznis/orgkeeper/pkg/db"
	"github.com/smallbiznis/orgkeeper/pkg/secret"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const EncryptionKey = "test-encryption-key"

// Epoch is the fake clock's starting instant.
var Epoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

type Env struct {
	DB        *gorm.DB
	Node      *snowflake.Node
	Clock     *clock.FakeClock
	Policy    *config.PolicyHolder
	Publisher event.Publisher
	Slugs     *slug.Allocator
	Cipher    secret.Cipher

	Organizations orgdomain.Repository
	Members       memberdomain.Repository
	Invites       invitedomain.Repository
	Settings      settingsdomain.Repository
	SSO           ssodomain.Repository
	Users         userdomain.Repository
}

// NewDB returns a migrated in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func New(t testing.TB) *Env {
	t.Helper()

	conn := NewDB(t)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cipher, err := secret.New(EncryptionKey)
	require.NoError(t, err)

	clk := clock.NewFakeClock(Epoch)
	policy := config.NewStaticPolicyHolder(config.DefaultPolicy())

	return &Env{
		DB:            conn,
		Node:          node,
		Clock:         clk,
		Policy:        policy,
		Publisher:     event.NewOutboxPublisher(conn, node, clk),
		Slugs:         slug.NewAllocator(policy),
		Cipher:        cipher,
		Organizations: orgrepo.NewRepository(conn),
		Members:       memberrepo.NewRepository(conn),
		Invites:       inviterepo.NewRepository(conn),
		Settings:      settingsrepo.NewRepository(conn),
		SSO:           ssorepo.NewRepository(conn),
		Users:         userrepo.NewRepository(conn),
	}
}

// Events returns the outbox rows of one topic, oldest first.
func (e *Env) Events(t testing.TB, topic string) []event.Event {
	t.Helper()

	var events []event.Event
	require.NoError(t, e.DB.Where("event_type = ?", topic).Order("id ASC").Find(&events).Error)
	return events
}
