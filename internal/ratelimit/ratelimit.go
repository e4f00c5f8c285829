// Package ratelimit enforces per-user sliding-window quotas against a shared
// counter store so concurrent instances see one fleet-wide limit.
package ratelimit

import (
	"context"
	"time"
)

// Limiter checks and records one event for (userID, operation). A false
// result means the caller must reject the request; no event is recorded in
// that case. Implementations return a non-nil error only when the counter
// store itself failed, in which case allowed is still true: the limiter
// fails open rather than blocking all traffic on a non-critical subsystem.
type Limiter interface {
	CheckAndRecord(ctx context.Context, userID, operation string, maxCount int, window time.Duration) (bool, error)
}
