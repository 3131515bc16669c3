package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	sentinel := Conflict("slug_taken")
	cause := errors.New("boom")

	err := Wrap(sentinel, cause)
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "slug_taken: boom", err.Error())
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("rename: %w", err)))
	assert.Same(t, sentinel, Wrap(sentinel, nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.True(t, Is(NotFound("x"), KindNotFound))
	assert.False(t, errors.Is(NotFound("x"), NotFound("y")))
}

func TestFromDB(t *testing.T) {
	assert.NoError(t, FromDB(nil))

	err := FromDB(gorm.ErrRecordNotFound)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	err = FromDB(errors.New("UNIQUE constraint failed: organizations.slug"))
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	err = FromDB(errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.True(t, IsRetryable(err))

	assert.Equal(t, context.Canceled, FromDB(context.Canceled))

	typed := InvalidArgument("invalid_name")
	assert.Same(t, typed, FromDB(typed))
}
