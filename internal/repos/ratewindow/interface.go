package ratewindow

import (
	"context"
	"time"
)

// Windows counts events in fixed windows keyed by an arbitrary string.
type Windows interface {
	// IncrementWindow bumps the counter for key, starting a new window of the
	// given length when none is open, and returns the count and time left.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}
