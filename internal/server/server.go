// Package server exposes the engine over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
	"github.com/alanyoungcy/courtedge/internal/server/handler"
	"github.com/alanyoungcy/courtedge/internal/server/middleware"
	"github.com/alanyoungcy/courtedge/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	RateLimit       int
	RateLimitWindow time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handlers aggregates the HTTP handlers to register. Nil entries leave
// their routes unregistered.
type Handlers struct {
	Health      *handler.HealthHandler
	Edges       *handler.EdgeHandler
	Grading     *handler.GradingHandler
	Consensus   *handler.ConsensusHandler
	Triggers    *handler.TriggerHandler
	Performance *handler.PerformanceHandler
	Reports     *handler.ReportHandler
	Jobs        *handler.JobHandler
	Metrics     http.Handler
}

// Deps carries the optional infrastructure used by the middleware chain.
type Deps struct {
	Hub      *ws.Hub
	Limiter  domain.RateLimiter
	Observer middleware.HTTPObserver
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// publicPaths skip API key auth.
var publicPaths = []string{"/api/health", "/metrics"}

// Routes registers every route on a new mux.
func Routes(h Handlers, hub *ws.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	if h.Health != nil {
		mux.HandleFunc("GET /api/health", h.Health.HealthCheck)
	}
	if h.Edges != nil {
		mux.HandleFunc("GET /api/edges", h.Edges.ListEdges)
		mux.HandleFunc("GET /api/games/{id}/edges", h.Edges.GameEdges)
	}
	if h.Grading != nil {
		mux.HandleFunc("POST /api/games/{id}/capture-lines", h.Grading.CaptureLines)
		mux.HandleFunc("POST /api/games/{id}/result", h.Grading.RecordResult)
		mux.HandleFunc("POST /api/picks/{id}/grade", h.Grading.GradePick)
		mux.HandleFunc("POST /api/picks/{id}/correct", h.Grading.CorrectPick)
		mux.HandleFunc("POST /api/grading/sync", h.Grading.Sync)
	}
	if h.Consensus != nil {
		mux.HandleFunc("POST /api/consensus", h.Consensus.Consensus)
		mux.HandleFunc("POST /api/picks/{id}/analyst-picks", h.Consensus.RecordAnalystPicks)
		mux.HandleFunc("GET /api/analysts/weights", h.Consensus.Weights)
		mux.HandleFunc("GET /api/analysts/accuracy", h.Consensus.Accuracy)
		mux.HandleFunc("POST /api/analysts/recalibrate", h.Consensus.Recalibrate)
	}
	if h.Triggers != nil {
		mux.HandleFunc("POST /api/games/{id}/triggers", h.Triggers.Detect)
		mux.HandleFunc("POST /api/games/{id}/triggers/evaluate", h.Triggers.Evaluate)
		mux.HandleFunc("GET /api/triggers/stats", h.Triggers.Stats)
		mux.HandleFunc("GET /api/teams/{abbr}/triggers", h.Triggers.TeamStats)
	}
	if h.Performance != nil {
		mux.HandleFunc("GET /api/performance", h.Performance.Performance)
		mux.HandleFunc("GET /api/teams/{abbr}/records", h.Performance.TeamRecords)
	}
	if h.Reports != nil {
		mux.HandleFunc("GET /api/reports", h.Reports.ListReports)
		mux.HandleFunc("GET /api/reports/{date}", h.Reports.DailyReport)
	}
	if h.Jobs != nil {
		mux.HandleFunc("GET /api/jobs", h.Jobs.ListJobs)
		mux.HandleFunc("POST /api/jobs/{name}/run", h.Jobs.RunJob)
	}
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}
	return mux
}

// NewServer creates a Server with every route registered and the
// middleware chain applied: CORS, logging, rate limit, auth.
func NewServer(cfg Config, handlers Handlers, deps Deps, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))

	var h http.Handler = Routes(handlers, deps.Hub)
	h = middleware.Auth(cfg.APIKey, publicPaths...)(h)
	h = middleware.RateLimit(deps.Limiter, cfg.RateLimit, cfg.RateLimitWindow, logger)(h)
	h = middleware.Logging(logger, deps.Observer, publicPaths...)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:           h,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{httpServer: srv, logger: logger}
}

// Handler returns the full middleware chain, for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
