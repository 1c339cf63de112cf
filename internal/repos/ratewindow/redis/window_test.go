package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newRepo(t *testing.T) (*windowRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client), mr
}

func TestWindowRepo_IncrementWindow(t *testing.T) {
	t.Parallel()

	repo, mr := newRepo(t)
	ctx := t.Context()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := repo.IncrementWindow(ctx, "reward:h:u1", time.Hour)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != want {
			t.Fatalf("count: want %d, got %d", want, count)
		}
		if ttl <= 0 || ttl > time.Hour {
			t.Fatalf("ttl out of range: %v", ttl)
		}
	}

	mr.FastForward(time.Hour + time.Second)

	count, _, err := repo.IncrementWindow(ctx, "reward:h:u1", time.Hour)
	if err != nil {
		t.Fatalf("increment after expiry: %v", err)
	}
	if count != 1 {
		t.Fatalf("window must restart after expiry, got %d", count)
	}
}

func TestWindowRepo_RepairsMissingTTL(t *testing.T) {
	t.Parallel()

	repo, mr := newRepo(t)

	err := mr.Set("reward:h:u2", "5")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	count, ttl, err := repo.IncrementWindow(t.Context(), "reward:h:u2", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 6 || ttl != time.Minute {
		t.Fatalf("want 6 / 1m, got %d / %v", count, ttl)
	}

	if mr.TTL("reward:h:u2") != time.Minute {
		t.Fatalf("ttl not applied in redis: %v", mr.TTL("reward:h:u2"))
	}
}

func TestWindowRepo_WindowState(t *testing.T) {
	t.Parallel()

	repo, _ := newRepo(t)
	ctx := t.Context()

	count, ttl, err := repo.WindowState(ctx, "reward:d:nobody")
	if err != nil || count != 0 || ttl != 0 {
		t.Fatalf("empty window: got %d %v %v", count, ttl, err)
	}

	_, _, err = repo.IncrementWindow(ctx, "reward:d:u3", 24*time.Hour)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}

	count, ttl, err = repo.WindowState(ctx, "reward:d:u3")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if count != 1 || ttl <= 0 {
		t.Fatalf("unexpected state %d %v", count, ttl)
	}
}

func TestWindowRepo_RejectsBadInput(t *testing.T) {
	t.Parallel()

	repo, _ := newRepo(t)

	_, _, err := repo.IncrementWindow(t.Context(), "", time.Minute)
	if err == nil {
		t.Fatalf("expected error for empty key")
	}

	_, _, err = repo.IncrementWindow(t.Context(), "k", 0)
	if err == nil {
		t.Fatalf("expected error for zero window")
	}
}
