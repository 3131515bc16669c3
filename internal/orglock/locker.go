// Package orglock serializes conflicting operations on the same organization across
// goroutines and, when Redis is configured, across replicas.
package orglock

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
)

const (
	keyOrganization = "orgkeeper:lock:org:%s"
	keySlug         = "orgkeeper:lock:slug:%s"
)

var ErrLockTimeout = errs.New(errs.KindStorageUnavailable, "lock_timeout")

// Release gives a lock back. Calling it more than once is harmless.
type Release func(ctx context.Context) error

type Locker interface {
	// Lock blocks until key is held, ctx is done or the configured wait elapses.
	Lock(ctx context.Context, key string) (Release, error)
}

func OrganizationKey(orgID snowflake.ID) string {
	return fmt.Sprintf(keyOrganization, orgID.String())
}

func SlugKey(slug string) string {
	return fmt.Sprintf(keySlug, strings.ToLower(strings.TrimSpace(slug)))
}
