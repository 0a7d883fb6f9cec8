package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/courtedge/internal/blob/s3"
	"github.com/alanyoungcy/courtedge/internal/cache/redis"
	"github.com/alanyoungcy/courtedge/internal/config"
	"github.com/alanyoungcy/courtedge/internal/consensus"
	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/grading"
	"github.com/alanyoungcy/courtedge/internal/graph"
	"github.com/alanyoungcy/courtedge/internal/notify"
	"github.com/alanyoungcy/courtedge/internal/performance"
	"github.com/alanyoungcy/courtedge/internal/scoring"
	"github.com/alanyoungcy/courtedge/internal/server/handler"
	"github.com/alanyoungcy/courtedge/internal/service"
	"github.com/alanyoungcy/courtedge/internal/store/memory"
	"github.com/alanyoungcy/courtedge/internal/store/postgres"
	"github.com/alanyoungcy/courtedge/internal/telemetry"
	"github.com/alanyoungcy/courtedge/internal/weakness"
)

// Stores bundles the persistence layer.
type Stores struct {
	Games          domain.GameStore
	Results        domain.GameResultStore
	Picks          domain.PickStore
	AnalystPicks   domain.AnalystPickStore
	AnalystWeights domain.AnalystWeightStore
	Predictions    domain.PredictionStore
	Audit          domain.AuditStore
}

// Dependencies bundles everything the modes need. It is built by Wire and
// torn down by the returned cleanup function.
type Dependencies struct {
	Stores Stores

	// Infrastructure. Bus, Limiter and Archiver are nil when their backend
	// is disabled.
	Locks    domain.LockManager
	Bus      domain.EventBus
	Limiter  domain.RateLimiter
	Archiver *s3blob.Archiver
	Metrics  *telemetry.Metrics
	Notifier *notify.Notifier
	Dedup    *notify.Dedup
	Location *time.Location

	// Engines.
	Scoring     *scoring.Engine
	Grading     *grading.Service
	Consensus   *consensus.Service
	Weakness    *weakness.Service
	Performance *performance.Service
	Daily       *service.DailyRunner

	// Health holds one probe per wired backend.
	Health map[string]handler.HealthCheck
}

// Wire builds every concrete dependency from cfg and returns them with a
// cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(format string, err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf(format, err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return fail("wire: %w", err)
	}
	deps := &Dependencies{
		Metrics:  telemetry.New(),
		Location: loc,
		Health:   make(map[string]handler.HealthCheck),
	}

	// --- Persistence ---
	switch cfg.Storage {
	case "memory":
		db := memory.New()
		deps.Stores = Stores{
			Games:          memory.NewGameStore(db),
			Results:        memory.NewGameResultStore(db),
			Picks:          memory.NewPickStore(db),
			AnalystPicks:   memory.NewAnalystPickStore(db),
			AnalystWeights: memory.NewAnalystWeightStore(db),
			Predictions:    memory.NewPredictionStore(db),
			Audit:          memory.NewAuditStore(db),
		}
		logger.WarnContext(ctx, "using in-memory storage; data is lost on exit")
	default:
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:         cfg.Postgres.DSN,
			Host:        cfg.Postgres.Host,
			Port:        cfg.Postgres.Port,
			Database:    cfg.Postgres.Database,
			User:        cfg.Postgres.User,
			Password:    cfg.Postgres.Password,
			SSLMode:     cfg.Postgres.SSLMode,
			MaxConns:    cfg.Postgres.PoolMaxConns,
			MinConns:    cfg.Postgres.PoolMinConns,
			ConnTimeout: cfg.Postgres.ConnTimeout.Duration,
		})
		if err != nil {
			return fail("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail("wire: postgres migrations: %w", err)
			}
		}
		s := pgClient.Stores()
		deps.Stores = Stores{
			Games:          s.Games,
			Results:        s.Results,
			Picks:          s.Picks,
			AnalystPicks:   s.AnalystPicks,
			AnalystWeights: s.AnalystWeights,
			Predictions:    s.Predictions,
			Audit:          s.Audit,
		}
		deps.Health["postgres"] = pgClient.Ping
	}

	// --- Graph metrics source ---
	graphClient := graph.NewClient(graph.Config{
		URL:             cfg.Graph.URL,
		Database:        cfg.Graph.Database,
		User:            cfg.Graph.User,
		Password:        cfg.Graph.Password,
		Timeout:         cfg.Graph.Timeout.Duration,
		BreakerFailures: uint32(cfg.Graph.BreakerFailures),
		BreakerCooldown: cfg.Graph.BreakerCooldown.Duration,
	}, logger)
	deps.Health["graph"] = graphClient.Ping
	var lookup graph.Source = graph.NewLookup(graphClient)

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Locks = redis.NewLockManager(redisClient)
		deps.Bus = redis.NewEventBus(redisClient)
		deps.Limiter = redis.NewRateLimiter(redisClient)
		lookup = graph.NewCachedLookup(lookup, redis.NewMetricsCache(redisClient, cfg.Redis.MetricsTTL.Duration), logger)
		deps.Health["redis"] = redisClient.Ping
	} else {
		deps.Locks = memory.NewLockManager()
	}

	// --- S3 report archive ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), s3blob.NewReader(s3Client), deps.Stores.Audit)
		deps.Health["s3"] = s3Client.Health
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Dedup = notify.NewDedup(cfg.Notify.DedupTTL.Duration)
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, deps.Dedup, logger)

	wireEngines(deps, cfg, lookup, logger)

	if cfg.Consensus.SeedOnBoot {
		seeded, err := deps.Consensus.EnsureSeeded(ctx)
		if err != nil {
			return fail("wire: seed analyst weights: %w", err)
		}
		if seeded {
			logger.InfoContext(ctx, "seeded analyst weights")
		}
	}
	return deps, cleanup, nil
}

// wireEngines builds the domain services over the wired infrastructure.
func wireEngines(deps *Dependencies, cfg *config.Config, lookup graph.Source, logger *slog.Logger) {
	st := deps.Stores

	deps.Scoring = scoring.NewEngine(st.Games, lookup, logger,
		scoring.WithConcurrency(cfg.Scoring.Concurrency),
		scoring.WithObserver(deps.Metrics),
	)

	deps.Consensus = consensus.NewService(st.AnalystWeights, st.AnalystPicks, st.Picks, st.Audit, deps.Bus,
		consensus.Config{MinSample: cfg.Consensus.MinSample, Window: cfg.Consensus.Window.Duration},
		logger,
	)

	deps.Grading = grading.NewService(st.Games, st.Results, st.Picks, st.Audit, deps.Locks, deps.Bus, logger)
	deps.Grading.SetEvaluator(deps.Consensus)
	deps.Grading.SetObserver(deps.Metrics)

	deps.Weakness = weakness.NewService(st.Games, st.Results, st.Predictions, lookup, deps.Bus,
		weakness.Config{
			TriggerMinSample: cfg.Weakness.TriggerMinSample,
			TeamMinSample:    cfg.Weakness.TeamMinSample,
			Source:           cfg.Weakness.Source,
		},
		logger,
	)
	deps.Weakness.SetObserver(deps.Metrics)

	deps.Performance = performance.NewService(st.Picks, st.Results, logger)

	var archiver domain.ReportArchiver
	if deps.Archiver != nil {
		archiver = deps.Archiver
	}
	deps.Daily = service.NewDailyRunner(deps.Scoring, st.Picks, archiver, deps.Bus, deps.Notifier, logger)
}
