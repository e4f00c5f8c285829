package usage

import "errors"

// ErrLimitReached indicates the user's allowance for the period is spent.
var ErrLimitReached = errors.New("usage limit reached")
