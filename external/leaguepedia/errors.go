package leaguepedia

import (
	stderrors "errors"
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindBadRequest   ErrorKind = "bad_request"
	KindTransient    ErrorKind = "transient"
)

var (
	ErrUnauthorized = crerr.New("leaguepedia unauthorized")
	ErrBadRequest   = crerr.New("leaguepedia bad request")
	ErrTransient    = crerr.New("leaguepedia transient failure")
)

// ProviderError is returned by Client.Query for every provider failure.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("leaguepedia %s", e.Kind)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	switch e.Kind {
	case KindUnauthorized:
		return target == ErrUnauthorized
	case KindBadRequest:
		return target == ErrBadRequest
	case KindTransient:
		return target == ErrTransient
	default:
		return false
	}
}

// Retryable reports whether another attempt may succeed.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindTransient
}

func transientError(message string, err error) *ProviderError {
	return &ProviderError{Kind: KindTransient, Message: message, Err: err}
}

// KindOf extracts the provider error kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var providerErr *ProviderError
	if !stderrors.As(err, &providerErr) {
		return "", false
	}
	return providerErr.Kind, true
}

func classifyStatus(code int) ErrorKind {
	switch {
	case code == 401 || code == 403:
		return KindUnauthorized
	case code >= 400 && code < 500:
		return KindBadRequest
	default:
		return KindTransient
	}
}

func classifyCargoError(code string) ErrorKind {
	switch code {
	case "ratelimited", "maxlag", "readonly", "internal_api_error_DBQueryError":
		return KindTransient
	case "permissiondenied", "readapidenied", "badtoken":
		return KindUnauthorized
	default:
		return KindBadRequest
	}
}
