package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/internal/clock"
	"github.com/smallbiznis/orgkeeper/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPublisher(t *testing.T) (Publisher, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&Event{}))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return NewOutboxPublisher(conn, node, clk), conn, clk
}

func TestPublishWritesOutboxRow(t *testing.T) {
	pub, conn, clk := newPublisher(t)
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, 42, MemberJoinedTopic, map[string]any{"user_id": "7"}))

	var events []Event
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, snowflake.ID(42), events[0].OrgID)
	assert.Equal(t, MemberJoinedTopic, events[0].EventType)
	assert.False(t, events[0].Published)
	assert.True(t, clk.Now().Equal(events[0].CreatedAt))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, map[string]string{"user_id": "7", "organization_id": "42"}, payload)
}

func TestPublishRollsBackWithTransaction(t *testing.T) {
	pub, conn, _ := newPublisher(t)
	ctx := context.Background()

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := pub.WithTx(tx).Publish(ctx, 42, OrganizationCreatedTopic, nil); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int64
	require.NoError(t, conn.Model(&Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPublishRejectsMissingFields(t *testing.T) {
	pub, _, _ := newPublisher(t)
	ctx := context.Background()

	assert.Error(t, pub.Publish(ctx, 0, MemberLeftTopic, nil))
	assert.Error(t, pub.Publish(ctx, 42, "", nil))
}
