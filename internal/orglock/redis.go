package orglock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/orgkeeper/internal/config"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const retryInterval = 25 * time.Millisecond

// RedisLocker holds a SET NX lease per key. A lease outlives a crashed holder by at
// most the configured TTL.
type RedisLocker struct {
	client *redis.Client
	script *redis.Script
	policy *config.PolicyHolder
}

func NewRedisLocker(client *redis.Client, policy *config.PolicyHolder) *RedisLocker {
	return &RedisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		policy: policy,
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Release, error) {
	policy := l.policy.Get()

	waitCtx, cancel := context.WithTimeout(ctx, policy.Lock.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		token, ok, err := l.TryLock(waitCtx, key, policy.Lock.TTL)
		if err != nil && waitCtx.Err() == nil {
			return nil, errs.Wrap(errs.ErrStorageUnavailable, err)
		}
		if ok {
			return l.release(key, token), nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errs.Wrap(ErrLockTimeout, waitCtx.Err())
		}
	}
}

func (l *RedisLocker) release(key, token string) Release {
	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			// the caller's context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			err = l.script.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
		return err
	}
}
