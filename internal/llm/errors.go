package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures into a uniform taxonomy so callers
// never need to know which vendor produced the error.
type ErrorKind string

const (
	KindAuth          ErrorKind = "auth"
	KindQuota         ErrorKind = "quota"
	KindBadRequest    ErrorKind = "bad_request"
	KindTimeout       ErrorKind = "timeout"
	KindInternal      ErrorKind = "internal"
	KindEmptyResponse ErrorKind = "empty_response"
)

// ErrNoProviderAvailable is returned by the registry when neither the
// preference nor any priority-ordered vendor has valid credentials.
var ErrNoProviderAvailable = errors.New("no analysis provider available")

// ProviderError is the uniform wrapper for vendor failures.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a taxonomy error for the given vendor.
func NewProviderError(provider string, kind ErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain, or "" if the error
// is not a provider error.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// KindFromStatus maps an HTTP status from a vendor API to a taxonomy kind.
func KindFromStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindQuota
	case status >= 400 && status < 500:
		return KindBadRequest
	default:
		return KindInternal
	}
}
