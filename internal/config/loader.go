package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads the TOML file at path over the built-in defaults, loads a
// .env file when present and applies COURTEDGE_* environment overrides.
// An empty path skips the file. The result has NOT been validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))

	return &cfg, nil
}

// applyEnvOverrides overwrites Config fields from COURTEDGE_* variables
// that are set and non-empty, so secrets can be injected at deploy time.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Storage, "COURTEDGE_STORAGE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "COURTEDGE_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "COURTEDGE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "COURTEDGE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "COURTEDGE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "COURTEDGE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "COURTEDGE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "COURTEDGE_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "COURTEDGE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "COURTEDGE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "COURTEDGE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "COURTEDGE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "COURTEDGE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "COURTEDGE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "COURTEDGE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "COURTEDGE_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "COURTEDGE_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.MetricsTTL, "COURTEDGE_REDIS_METRICS_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "COURTEDGE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "COURTEDGE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "COURTEDGE_S3_REGION")
	setStr(&cfg.S3.Bucket, "COURTEDGE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "COURTEDGE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "COURTEDGE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "COURTEDGE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "COURTEDGE_S3_FORCE_PATH_STYLE")

	// ── Graph ──
	setStr(&cfg.Graph.URL, "COURTEDGE_GRAPH_URL")
	setStr(&cfg.Graph.Database, "COURTEDGE_GRAPH_DATABASE")
	setStr(&cfg.Graph.User, "COURTEDGE_GRAPH_USER")
	setStr(&cfg.Graph.Password, "COURTEDGE_GRAPH_PASSWORD")
	setDuration(&cfg.Graph.Timeout, "COURTEDGE_GRAPH_TIMEOUT")

	// ── Engines ──
	setInt(&cfg.Scoring.Concurrency, "COURTEDGE_SCORING_CONCURRENCY")
	setInt(&cfg.Consensus.MinSample, "COURTEDGE_CONSENSUS_MIN_SAMPLE")
	setDuration(&cfg.Consensus.Window, "COURTEDGE_CONSENSUS_WINDOW")
	setInt(&cfg.Weakness.TriggerMinSample, "COURTEDGE_WEAKNESS_TRIGGER_MIN_SAMPLE")
	setInt(&cfg.Weakness.TeamMinSample, "COURTEDGE_WEAKNESS_TEAM_MIN_SAMPLE")

	// ── Jobs ──
	setInt(&cfg.Jobs.Attempts, "COURTEDGE_JOBS_ATTEMPTS")
	setDuration(&cfg.Jobs.Timeout, "COURTEDGE_JOBS_TIMEOUT")

	// ── Server ──
	setStr(&cfg.Server.Host, "COURTEDGE_SERVER_HOST")
	setInt(&cfg.Server.Port, "COURTEDGE_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "COURTEDGE_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "COURTEDGE_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "COURTEDGE_SERVER_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "COURTEDGE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "COURTEDGE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "COURTEDGE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "COURTEDGE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "COURTEDGE_MODE")
	setStr(&cfg.LogLevel, "COURTEDGE_LOG_LEVEL")
	setStr(&cfg.Timezone, "COURTEDGE_TIMEZONE")
}

// Each setter only mutates dst when the variable is present and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
