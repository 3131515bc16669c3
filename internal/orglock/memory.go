package orglock

import (
	"context"
	"sync"

	"github.com/smallbiznis/orgkeeper/internal/config"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
)

type slot struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is a keyed mutex for a single process.
type MemoryLocker struct {
	policy *config.PolicyHolder

	mu    sync.Mutex
	slots map[string]*slot
}

func NewMemoryLocker(policy *config.PolicyHolder) *MemoryLocker {
	return &MemoryLocker{
		policy: policy,
		slots:  make(map[string]*slot),
	}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (Release, error) {
	s := l.acquire(key)

	waitCtx, cancel := context.WithTimeout(ctx, l.policy.Get().Lock.WaitTimeout)
	defer cancel()

	select {
	case s.ch <- struct{}{}:
	case <-waitCtx.Done():
		l.drop(key, s)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(ErrLockTimeout, waitCtx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.drop(key, s)
		})
		return nil
	}, nil
}

func (l *MemoryLocker) acquire(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *MemoryLocker) drop(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
