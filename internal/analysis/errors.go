package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrContentTooShort means post-extraction text is under 100 characters
	// and unusable for analysis.
	ErrContentTooShort = errors.New("extracted content too short for analysis")
	// ErrMalformedResponse means no JSON object with a policies array could
	// be located in the provider output.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrRateLimited means the sliding-window quota rejected the request.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrQuotaExhausted means the per-user monthly allowance is spent.
	ErrQuotaExhausted = errors.New("analysis quota exhausted")
	// ErrCandidateNotFound is returned by read paths.
	ErrCandidateNotFound = errors.New("candidate not found")
)

// RequestFieldError reports a schema violation on the request itself.
type RequestFieldError struct {
	Field  string
	Reason string
}

func (e *RequestFieldError) Error() string {
	return fmt.Sprintf("invalid request field %s: %s", e.Field, e.Reason)
}

// MissingFieldError reports a required field entirely absent from a policy
// element in the provider response.
type MissingFieldError struct {
	Index int
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("policy[%d]: required field %q is missing", e.Index, e.Field)
}

// PersistenceError is an opaque pass-through from the persistence
// collaborator.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// truncateForLog keeps log lines bounded; raw provider bodies and scraped
// content never go to normal-severity logs in full.
func truncateForLog(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
