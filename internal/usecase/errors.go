package usecase

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinels shared by the pipeline, the poller and the operator API.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrEntityResolution      = errors.New("entity resolution failed")
	// ErrUpstreamFailed marks a match ingestion that failed after the request was accepted.
	ErrUpstreamFailed = errors.New("ingestion failed")
)

// Err converts a failed Result into one of the sentinels above. It is nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	switch r.Reason {
	case ReasonNotFound:
		return fmt.Errorf("%w: match %s is not known to the provider", ErrNotFound, r.ExternalID)
	case ReasonMalformed:
		return fmt.Errorf("%w: match %s: %s", ErrInvalidInput, r.ExternalID, r.Message)
	default:
		return fmt.Errorf("%w: match %s: %s", ErrUpstreamFailed, r.ExternalID, r.Message)
	}
}
