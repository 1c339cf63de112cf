package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/creditledger/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	Postgres    config.PostgresConfig
	Redis       config.RedisConfig
	Credits     config.CreditsConfig
	RewardLimit config.RewardLimitConfig
}
