package orglock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/orgkeeper/internal/config"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(wait time.Duration) *config.PolicyHolder {
	p := config.DefaultPolicy()
	p.Lock.WaitTimeout = wait
	return config.NewStaticPolicyHolder(p)
}

func newRedisLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, testPolicy(wait)), mr
}

// assertMutualExclusion runs workers that each hold key briefly and checks no two
// overlap.
func assertMutualExclusion(t *testing.T, locker Locker) {
	t.Helper()

	var (
		inside  int32
		overlap int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), "orgkeeper:lock:org:1")
			if !assert.NoError(t, err) {
				return
			}
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, release(context.Background()))
		}()
	}
	wg.Wait()
	assert.Zero(t, atomic.LoadInt32(&overlap))
}

func TestMemoryLockerSerializes(t *testing.T) {
	assertMutualExclusion(t, NewMemoryLocker(testPolicy(5*time.Second)))
}

func TestMemoryLockerTimesOut(t *testing.T) {
	locker := NewMemoryLocker(testPolicy(20 * time.Millisecond))
	ctx := context.Background()

	release, err := locker.Lock(ctx, "k")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.True(t, errs.IsRetryable(err))

	// other keys are independent
	releaseOther, err := locker.Lock(ctx, "other")
	require.NoError(t, err)
	require.NoError(t, releaseOther(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, again(ctx))

	assert.Empty(t, locker.slots)
}

func TestMemoryLockerHonorsContext(t *testing.T) {
	locker := NewMemoryLocker(testPolicy(5 * time.Second))

	release, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisLockerSerializes(t *testing.T) {
	locker, _ := newRedisLocker(t, 5*time.Second)
	assertMutualExclusion(t, locker)
}

func TestRedisLockerReleaseOnlyOwnLease(t *testing.T) {
	locker, mr := newRedisLocker(t, 50*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	assert.True(t, mr.Exists("k"))

	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrLockTimeout)

	// a lease taken over after expiry is not released by the previous holder
	mr.FastForward(testPolicy(time.Second).Get().Lock.TTL + time.Second)
	assert.False(t, mr.Exists("k"))

	second, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists("k"))

	require.NoError(t, second(ctx))
	assert.False(t, mr.Exists("k"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "orgkeeper:lock:org:42", OrganizationKey(42))
	assert.Equal(t, "orgkeeper:lock:slug:acme", SlugKey(" ACME "))
}
