// Package common provides shared error helpers for the sx-ui panel.
package common

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the service layer. Callers match them with
// errors.Is to pick a response status.
var (
	// ErrConflict marks a unique-constraint violation (duplicate port,
	// remark or token). The store is left unchanged.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks an operation targeting a nonexistent entity.
	ErrNotFound = errors.New("not found")

	// ErrStatsUnavailable marks an unreachable or timed-out stats RPC.
	// The reconciliation cycle is aborted with no counter merge.
	ErrStatsUnavailable = errors.New("stats unavailable")

	// ErrSynthesisFailed marks a failure to write the Xray configuration
	// document. The entity change is already committed; the live proxy and
	// the store diverge until the next successful apply.
	ErrSynthesisFailed = errors.New("config synthesis failed")

	// ErrReloadFailed marks a failed or timed-out Xray reload. The on-disk
	// configuration is already the new one.
	ErrReloadFailed = errors.New("xray reload failed")
)

// NewError builds an error from the string form of the given values.
func NewError(args ...any) error {
	return errors.New(fmt.Sprintln(args...))
}

// NewErrorf builds a formatted error.
func NewErrorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Conflictf wraps ErrConflict with detail.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// NotFoundf wraps ErrNotFound with detail.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}
