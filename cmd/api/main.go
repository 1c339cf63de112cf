package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fastprodman/creditledger/internal/api"
	"github.com/fastprodman/creditledger/internal/infra/logging"
	"github.com/fastprodman/creditledger/internal/infra/pgutils"
	"github.com/fastprodman/creditledger/internal/infra/redisutil"
	"github.com/fastprodman/creditledger/internal/receipt"
	windowredis "github.com/fastprodman/creditledger/internal/repos/ratewindow/redis"
	"github.com/fastprodman/creditledger/internal/services/credits"
	"github.com/fastprodman/creditledger/internal/services/ratelimit"
	"github.com/fastprodman/creditledger/pkg/envconf"
	"github.com/fastprodman/creditledger/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.AddNamed("postgres", func(context.Context) error {
		return dbConns.Close()
	})

	var limiter api.RewardLimiter

	if cfg.Redis.Enabled() {
		rdb, err := redisutil.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		shutdownqueue.AddNamed("redis", func(context.Context) error {
			return rdb.Close()
		})

		limiter = ratelimit.NewLimiter(windowredis.New(rdb), cfg.RewardLimit)
	} else {
		slog.Info("redis disabled, reward throttling off")
	}

	normalizer := receipt.Normalizer{}

	if cfg.Credits.ReceiptRootCA != "" {
		verifier, err := receipt.LoadX5CVerifier(cfg.Credits.ReceiptRootCA)
		if err != nil {
			return fmt.Errorf("receipt verifier: %w", err)
		}

		normalizer.Verifier = verifier
		slog.Info("receipt signature verification enabled", "root_ca_file", cfg.Credits.ReceiptRootCA)
	}

	creditsSrv := credits.New(dbConns, cfg.Credits, credits.WithNormalizer(normalizer))

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, creditsSrv, limiter)

	shutdownqueue.AddNamed("http", func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
