package telegram

import (
	"errors"
	"fmt"

	"github.com/gotd/td/tgerr"

	"github.com/blockedby/channel-stats/internal/ingest"
)

// ErrNotAuthorized is returned when no authorized MTProto client is available.
var ErrNotAuthorized = errors.New("telegram client not authorized")

// RPC error types meaning the username does not point to a readable channel.
var notFoundTypes = []string{
	"USERNAME_NOT_OCCUPIED",
	"USERNAME_INVALID",
	"CHANNEL_PRIVATE",
	"CHANNEL_INVALID",
	"CHANNEL_PUBLIC_GROUP_NA",
}

// classify maps a raw client error to an ingest.FetchError.
func classify(identifier string, err error) error {
	var fetchErr *ingest.FetchError
	if errors.As(err, &fetchErr) {
		return err
	}

	switch {
	case errors.Is(err, ErrFloodWait):
		return ingest.NewFetchError(ingest.FetchRateLimited, identifier, err)
	case tgerr.Is(err, notFoundTypes...):
		return ingest.NewFetchError(ingest.FetchNotFound, identifier, err)
	}
	if _, ok := tgerr.AsFloodWait(err); ok {
		return ingest.NewFetchError(ingest.FetchRateLimited, identifier, err)
	}
	return ingest.NewFetchError(ingest.FetchUnavailable, identifier, err)
}

func notFound(identifier, format string, args ...any) error {
	return ingest.NewFetchError(ingest.FetchNotFound, identifier, fmt.Errorf(format, args...))
}
