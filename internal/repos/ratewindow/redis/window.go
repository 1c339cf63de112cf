package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fastprodman/creditledger/internal/repos/ratewindow"
)

var _ ratewindow.Windows = (*windowRepo)(nil)

type windowRepo struct {
	client *goredis.Client
}

func New(client *goredis.Client) *windowRepo {
	return &windowRepo{client: client}
}

func (r *windowRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if key == "" || window <= 0 {
		return 0, 0, errors.New("invalid rate window")
	}

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("increment window: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read window ttl: %w", err)
	}

	// A key without expiry is a fresh window or one whose EXPIRE was lost.
	if count == 1 || ttl < 0 {
		err = r.client.Expire(ctx, key, window).Err()
		if err != nil {
			return 0, 0, fmt.Errorf("set window ttl: %w", err)
		}

		ttl = window
	}

	return count, ttl, nil
}

func (r *windowRepo) WindowState(ctx context.Context, key string) (int64, time.Duration, error) {
	if key == "" {
		return 0, 0, errors.New("rate key is required")
	}

	count, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get window: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read window ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return count, ttl, nil
}
