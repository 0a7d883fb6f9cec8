package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courtedge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "SERVER"
log_level = "debug"

[postgres]
host = "db.internal"
conn_timeout = "3s"

[jobs.schedules]
daily_report = "30 11 * * *"

[server]
port = 9090
`), 0o600))

	t.Setenv("COURTEDGE_SERVER_PORT", "9191")
	t.Setenv("COURTEDGE_NOTIFY_EVENTS", "daily_report, job_failed ,")
	t.Setenv("COURTEDGE_CONSENSUS_WINDOW", "720h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 3*time.Second, cfg.Postgres.ConnTimeout.Duration)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, []string{"daily_report", "job_failed"}, cfg.Notify.Events)
	assert.Equal(t, 720*time.Hour, cfg.Consensus.Window.Duration)
	assert.Equal(t, "30 11 * * *", cfg.Jobs.Schedules["daily_report"])
	assert.Equal(t, 5432, cfg.Postgres.Port, "defaults survive a partial file")
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"mode", func(c *Config) { c.Mode = "trade" }, `unknown mode "trade"`},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log_level"},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"storage", func(c *Config) { c.Storage = "sqlite" }, "unknown storage"},
		{"postgres port", func(c *Config) { c.Postgres.Port = 0 }, "postgres: port"},
		{"pool bounds", func(c *Config) { c.Postgres.PoolMinConns = 50 }, "pool_min_conns"},
		{"redis addr", func(c *Config) { c.Redis.Addr = "" }, "redis: addr"},
		{"s3 bucket", func(c *Config) { c.S3.Enabled = true; c.S3.Bucket = "" }, "s3: bucket"},
		{"graph url", func(c *Config) { c.Graph.URL = "" }, "graph: url"},
		{"cron spec", func(c *Config) { c.Jobs.Schedules["grade_results"] = "every tuesday" }, "jobs: schedule for grade_results"},
		{"unknown job", func(c *Config) { c.Jobs.Schedules["buy_low"] = "* * * * *" }, `unknown job "buy_low"`},
		{"server port", func(c *Config) { c.Server.Port = 70000 }, "server: port"},
		{"telegram pair", func(c *Config) { c.Notify.TelegramToken = "t" }, "telegram_token and telegram_chat_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_MemoryStorageSkipsPostgres(t *testing.T) {
	cfg := Defaults()
	cfg.Storage = "memory"
	cfg.Postgres.Host = ""
	cfg.Mode = "scheduler"
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate())
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "pg"
	cfg.Server.APIKey = "key"
	cfg.Notify.DiscordWebhookURL = "https://discord.example/hook"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Postgres.Password)
	assert.Equal(t, "***", out.Server.APIKey)
	assert.Equal(t, "***", out.Notify.DiscordWebhookURL)
	assert.Empty(t, out.Redis.Password)
	assert.Equal(t, "pg", cfg.Postgres.Password)

	out.Jobs.Schedules["daily_report"] = ""
	assert.Equal(t, "0 10 * * *", cfg.Jobs.Schedules["daily_report"])
}
