package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

// RedisConfig is optional; an empty URL disables every Redis-backed feature.
type RedisConfig struct {
	URL         string        `env:"REDIS_URL" default:""`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" default:"5s"`
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

type CreditsConfig struct {
	RewardAmount  int64  `env:"CREDITS_REWARD_AMOUNT" default:"1"`
	RewardSource  string `env:"CREDITS_REWARD_DEFAULT_SOURCE" default:"rewarded_ad"`
	ReceiptRootCA string `env:"RECEIPT_ROOT_CA_FILE" default:""`
}

// RewardLimitConfig throttles POST /v1/credits/reward per identity.
// Zero values disable the corresponding window.
type RewardLimitConfig struct {
	PerHour int `env:"REWARD_LIMIT_PER_HOUR" default:"20"`
	PerDay  int `env:"REWARD_LIMIT_PER_DAY" default:"100"`
}
