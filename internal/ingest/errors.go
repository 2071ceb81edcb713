package ingest

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the caller's context ends before the fetch completed.
var ErrCancelled = errors.New("ingestion cancelled")

// FetchErrorKind classifies remote fetch failures.
type FetchErrorKind string

// FetchErrorKind constants.
const (
	FetchUnavailable FetchErrorKind = "unavailable"
	FetchNotFound    FetchErrorKind = "not_found"
	FetchRateLimited FetchErrorKind = "rate_limited"
)

// FetchError reports a failed remote fetch. No writes happened.
type FetchError struct {
	Kind       FetchErrorKind
	Identifier string
	Err        error
}

// NewFetchError wraps err as a fetch failure of the given kind.
func NewFetchError(kind FetchErrorKind, identifier string, err error) *FetchError {
	return &FetchError{Kind: kind, Identifier: identifier, Err: err}
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.Identifier, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Identifier, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError rejects malformed input or fetched data before persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RepositoryError reports a storage failure. Ingest can be retried as a whole.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// NotFoundError means a stats write referenced a channel that does not exist.
// It indicates a bug: the channel is always upserted first.
type NotFoundError struct {
	ChannelID int64
	Err       error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("channel %d not found", e.ChannelID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }
