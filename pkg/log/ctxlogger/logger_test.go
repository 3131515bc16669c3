package ctxlogger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextWithActor(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", ActorFromContext(ctx))
	assert.Equal(t, ctx, ContextWithActor(ctx, ""))

	ctx = ContextWithActor(ctx, "101")
	assert.Equal(t, "101", ActorFromContext(ctx))
}

func TestWithContextAddsActorField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithActor(context.Background(), "101")

	WithContext(ctx, zap.New(core)).Info("organization created")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "101", fields["actor_id"])
	assert.NotEmpty(t, fields["correlation_id"])
}
