// Package ratelimit throttles reward grants per identity with fixed windows.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/fastprodman/creditledger/internal/config"
	"github.com/fastprodman/creditledger/internal/repos/ratewindow"
)

const (
	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour
)

type Limiter struct {
	store   ratewindow.Windows
	perHour int64
	perDay  int64
}

// NewLimiter builds a limiter; a non-positive limit disables that window.
func NewLimiter(store ratewindow.Windows, cfg config.RewardLimitConfig) *Limiter {
	return &Limiter{
		store:   store,
		perHour: int64(max(cfg.PerHour, 0)),
		perDay:  int64(max(cfg.PerDay, 0)),
	}
}

// Allow counts one attempt for identity and reports whether it fits in every
// window. When it does not, retryAfter is the longest remaining window.
func (l *Limiter) Allow(ctx context.Context, identity string) (time.Duration, bool, error) {
	if identity == "" {
		return 0, false, errors.New("identity is required")
	}

	var retryAfter time.Duration

	windows := []struct {
		key    string
		limit  int64
		length time.Duration
	}{
		{key: "reward:h:" + identity, limit: l.perHour, length: hourWindow},
		{key: "reward:d:" + identity, limit: l.perDay, length: dayWindow},
	}

	for _, w := range windows {
		if w.limit == 0 {
			continue
		}

		count, ttl, err := l.store.IncrementWindow(ctx, w.key, w.length)
		if err != nil {
			return 0, false, err
		}

		if count > w.limit {
			retryAfter = max(retryAfter, ceilSecond(ttl))
		}
	}

	if retryAfter > 0 {
		return retryAfter, false, nil
	}

	return 0, true, nil
}

func ceilSecond(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}

	return (d + time.Second - 1).Truncate(time.Second)
}
