// Package errs defines the error taxonomy shared by every store and the manager.
package errs

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/orgkeeper/pkg/db"
	"gorm.io/gorm"
)

// Kind classifies an error independently of any transport.
type Kind string

const (
	KindUnknown            Kind = "unknown"
	KindInvalidArgument    Kind = "invalid_argument"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindPermissionDenied   Kind = "permission_denied"
	KindStorageUnavailable Kind = "storage_unavailable"
)

// Error carries a kind, a stable snake_case code and an optional cause.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and code, so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

func InvalidArgument(code string) *Error { return New(KindInvalidArgument, code) }
func NotFound(code string) *Error        { return New(KindNotFound, code) }
func Conflict(code string) *Error        { return New(KindConflict, code) }
func PermissionDenied(code string) *Error {
	return New(KindPermissionDenied, code)
}

// Wrap attaches a cause to a sentinel while keeping errors.Is(err, sentinel) true.
func Wrap(sentinel *Error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Err: cause}
}

// KindOf reports the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether the whole operation may be retried from scratch.
func IsRetryable(err error) bool {
	return KindOf(err) == KindStorageUnavailable
}

var (
	ErrRecordNotFound     = NotFound("record_not_found")
	ErrDuplicateRecord    = Conflict("duplicate_record")
	ErrStorageUnavailable = New(KindStorageUnavailable, "storage_unavailable")
)

// FromDB translates a storage error into the taxonomy. Errors that already carry a
// kind and context cancellations pass through untouched.
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(ErrRecordNotFound, err)
	}
	if db.IsDuplicateKeyErr(err) {
		return Wrap(ErrDuplicateRecord, err)
	}
	return Wrap(ErrStorageUnavailable, err)
}
