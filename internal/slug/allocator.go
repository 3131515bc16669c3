// Package slug derives URL-safe organization identifiers and resolves collisions.
package slug

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	gosimpleslug "github.com/gosimple/slug"
	"github.com/smallbiznis/orgkeeper/internal/config"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"go.uber.org/fx"
)

var Module = fx.Module("slug",
	fx.Provide(NewAllocator),
)

const (
	MinLength    = 3
	MaxLength    = 63
	suffixLength = 8
)

var pattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var (
	ErrInvalidName = errs.InvalidArgument("invalid_name")
	ErrInvalidSlug = errs.InvalidArgument("invalid_slug")
	ErrSlugTaken   = errs.Conflict("slug_taken")
)

// Checker answers whether a slug is held by a live organization. Implementations
// must be bound to the transaction that will insert the allocated slug.
type Checker interface {
	SlugTaken(ctx context.Context, slug string) (bool, error)
}

type Allocator struct {
	policy *config.PolicyHolder
	suffix func() (string, error)
}

func NewAllocator(policy *config.PolicyHolder) *Allocator {
	return &Allocator{policy: policy, suffix: randomSuffix}
}

// Normalize lowercases name into a URL-safe token of at most MaxLength characters.
func Normalize(name string) string {
	return truncate(gosimpleslug.Make(strings.TrimSpace(name)), MaxLength)
}

// Canonical is the stored form of an explicitly supplied slug. Slugs compare
// case-insensitively, so lookups, locks and writes all go through it.
func Canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate checks a slug in canonical form.
func Validate(s string) error {
	if len(s) < MinLength || len(s) > MaxLength || !pattern.MatchString(s) {
		return ErrInvalidSlug
	}
	return nil
}

// Allocate returns the normalized name, or the normalized name plus a random suffix
// when the plain form is taken.
func (a *Allocator) Allocate(ctx context.Context, checker Checker, name string) (string, error) {
	base := Normalize(name)
	if len(base) < MinLength {
		return "", ErrInvalidName
	}

	attempts := a.policy.Get().Slug.MaxAttempts
	candidate := base
	for i := 0; i < attempts; i++ {
		taken, err := checker.SlugTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}

		suffix, err := a.suffix()
		if err != nil {
			return "", err
		}
		candidate = truncate(base, MaxLength-suffixLength-1) + "-" + suffix
	}

	return "", ErrSlugTaken
}

func truncate(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.Trim(s, "-")
}

func randomSuffix() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", "")[:suffixLength], nil
}
