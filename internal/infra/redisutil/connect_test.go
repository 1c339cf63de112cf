package redisutil

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/fastprodman/creditledger/internal/config"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), config.RedisConfig{
		URL:         "redis://" + mr.Addr() + "/0",
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = client.Close() }()

	err = client.Set(context.Background(), "k", "v", 0).Err()
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.CheckGet(t, "k", "v")
}

func TestConnect_BadURL(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), config.RedisConfig{URL: "not-a-url://"})
	if err == nil {
		t.Fatalf("expected error for invalid url")
	}
}
