// Package config defines the top-level configuration for the engine and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by COURTEDGE_* environment
// variables.
type Config struct {
	Storage   string          `toml:"storage"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Graph     GraphConfig     `toml:"graph"`
	Scoring   ScoringConfig   `toml:"scoring"`
	Consensus ConsensusConfig `toml:"consensus"`
	Weakness  WeaknessConfig  `toml:"weakness"`
	Jobs      JobsConfig      `toml:"jobs"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
	Timezone  string          `toml:"timezone"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string   `toml:"dsn"`
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	Database      string   `toml:"database"`
	User          string   `toml:"user"`
	Password      string   `toml:"password"`
	SSLMode       string   `toml:"ssl_mode"`
	PoolMaxConns  int      `toml:"pool_max_conns"`
	PoolMinConns  int      `toml:"pool_min_conns"`
	ConnTimeout   duration `toml:"conn_timeout"`
	RunMigrations bool     `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis backs the grading
// locks, the event bus, the metrics cache and the API rate limiter.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	MetricsTTL duration `toml:"metrics_ttl"`
}

// S3Config holds S3-compatible object storage parameters for the report
// archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// GraphConfig holds the Neo4j HTTP endpoint serving team metrics.
type GraphConfig struct {
	URL             string   `toml:"url"`
	Database        string   `toml:"database"`
	User            string   `toml:"user"`
	Password        string   `toml:"password"`
	Timeout         duration `toml:"timeout"`
	BreakerFailures int      `toml:"breaker_failures"`
	BreakerCooldown duration `toml:"breaker_cooldown"`
}

// ScoringConfig holds edge scoring parameters.
type ScoringConfig struct {
	Concurrency int `toml:"concurrency"`
}

// ConsensusConfig holds analyst recalibration parameters.
type ConsensusConfig struct {
	MinSample  int      `toml:"min_sample"`
	Window     duration `toml:"window"`
	SeedOnBoot bool     `toml:"seed_on_boot"`
}

// WeaknessConfig holds trigger statistics parameters.
type WeaknessConfig struct {
	TriggerMinSample int    `toml:"trigger_min_sample"`
	TeamMinSample    int    `toml:"team_min_sample"`
	Source           string `toml:"source"`
}

// JobsConfig holds scheduler parameters. Schedules maps job names to cron
// specs; an empty spec leaves the job manual-only.
type JobsConfig struct {
	Schedules     map[string]string `toml:"schedules"`
	Attempts      int               `toml:"attempts"`
	Backoff       duration          `toml:"backoff"`
	Timeout       duration          `toml:"timeout"`
	CaptureWindow duration          `toml:"capture_window"`
	DetectWindow  duration          `toml:"detect_window"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	DedupTTL          duration `toml:"dedup_ttl"`
}

// duration wraps time.Duration so TOML strings like "5m" decode.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the values in
// config.example.toml.
func Defaults() Config {
	return Config{
		Storage: "postgres",
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "courtedge",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			ConnTimeout:   duration{10 * time.Second},
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			MetricsTTL: duration{15 * time.Minute},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "courtedge-reports",
			ForcePathStyle: true,
		},
		Graph: GraphConfig{
			URL:             "http://localhost:7474",
			Database:        "neo4j",
			User:            "neo4j",
			Timeout:         duration{30 * time.Second},
			BreakerFailures: 5,
			BreakerCooldown: duration{30 * time.Second},
		},
		Scoring: ScoringConfig{Concurrency: 8},
		Consensus: ConsensusConfig{
			MinSample:  20,
			Window:     duration{90 * 24 * time.Hour},
			SeedOnBoot: true,
		},
		Weakness: WeaknessConfig{
			TriggerMinSample: 10,
			TeamMinSample:    5,
			Source:           "courtedge",
		},
		Jobs: JobsConfig{
			Schedules: map[string]string{
				"capture_lines":     "*/15 * * * *",
				"grade_results":     "*/10 * * * *",
				"detect_triggers":   "0 9 * * *",
				"evaluate_triggers": "20 * * * *",
				"daily_report":      "0 10 * * *",
				"recalibrate":       "0 6 * * 1",
				"dedup_cleanup":     "0 * * * *",
			},
			Attempts:      3,
			Backoff:       duration{2 * time.Second},
			Timeout:       duration{10 * time.Minute},
			CaptureWindow: duration{45 * time.Minute},
			DetectWindow:  duration{36 * time.Hour},
		},
		Server: ServerConfig{
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       120,
			RateLimitWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events:   []string{"actionable_edge", "daily_report", "job_failed"},
			DedupTTL: duration{24 * time.Hour},
		},
		Mode:     "full",
		LogLevel: "info",
		Timezone: "America/New_York",
	}
}

// Modes lists the accepted values for Config.Mode.
var Modes = []string{"score", "grade", "recalibrate", "server", "scheduler", "full"}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validStorage = map[string]bool{
	"postgres": true,
	"memory":   true,
}

var knownJobs = map[string]bool{
	"capture_lines":     true,
	"grade_results":     true,
	"detect_triggers":   true,
	"evaluate_triggers": true,
	"daily_report":      true,
	"recalibrate":       true,
	"dedup_cleanup":     true,
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// UsesServer reports whether the mode runs the HTTP API.
func (c *Config) UsesServer() bool { return c.Mode == "server" || c.Mode == "full" }

// UsesScheduler reports whether the mode runs the cron scheduler.
func (c *Config) UsesScheduler() bool { return c.Mode == "scheduler" || c.Mode == "full" }

// Validate checks Config for invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	modeOK := false
	for _, m := range Modes {
		if strings.EqualFold(c.Mode, m) {
			modeOK = true
		}
	}
	if !modeOK {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: %s)", c.Mode, strings.Join(Modes, ", ")))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err.Error())
	}

	// Storage
	if !validStorage[c.Storage] {
		errs = append(errs, fmt.Sprintf("unknown storage %q (valid: postgres, memory)", c.Storage))
	}
	if c.Storage == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Graph
	if c.Graph.URL == "" {
		errs = append(errs, "graph: url must not be empty")
	}
	if c.Graph.BreakerFailures < 1 {
		errs = append(errs, "graph: breaker_failures must be >= 1")
	}

	if c.Scoring.Concurrency < 1 {
		errs = append(errs, "scoring: concurrency must be >= 1")
	}
	if c.Consensus.MinSample < 1 {
		errs = append(errs, "consensus: min_sample must be >= 1")
	}
	if c.Weakness.TriggerMinSample < 1 || c.Weakness.TeamMinSample < 1 {
		errs = append(errs, "weakness: trigger_min_sample and team_min_sample must be >= 1")
	}

	// Jobs
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range c.Jobs.Schedules {
		if !knownJobs[name] {
			errs = append(errs, fmt.Sprintf("jobs: unknown job %q", name))
			continue
		}
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			errs = append(errs, fmt.Sprintf("jobs: schedule for %s: %v", name, err))
		}
	}
	if c.Jobs.Attempts < 1 {
		errs = append(errs, "jobs: attempts must be >= 1")
	}

	// Server
	if c.UsesServer() {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// RedactedConfig returns a copy of cfg with secrets replaced by "***", for
// logging the active configuration.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Graph.Password)
	redact(&out.Server.APIKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	out.Notify.Events = append([]string(nil), cfg.Notify.Events...)
	out.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)
	if cfg.Jobs.Schedules != nil {
		out.Jobs.Schedules = make(map[string]string, len(cfg.Jobs.Schedules))
		for k, v := range cfg.Jobs.Schedules {
			out.Jobs.Schedules[k] = v
		}
	}
	return out
}

const redacted = "***"

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
