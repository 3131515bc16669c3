package orglock

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/orgkeeper/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("orglock",
	fx.Provide(NewLocker),
)

// NewLocker returns a Redis lease locker when REDIS_ADDR is set and an in-process
// locker otherwise.
func NewLocker(lc fx.Lifecycle, cfg config.Config, policy *config.PolicyHolder, log *zap.Logger) Locker {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Info("organization locks are process local")
		return NewMemoryLocker(policy)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	log.Info("organization locks use redis", zap.String("addr", addr))
	return NewRedisLocker(client, policy)
}
