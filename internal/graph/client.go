// Package graph reads team metrics and league ranks from a Neo4j graph over
// its HTTP transactional endpoint.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// Config holds connection and breaker settings for the graph client.
type Config struct {
	URL      string
	Database string
	User     string
	Password string
	Timeout  time.Duration
	// BreakerFailures consecutive failures open the breaker for
	// BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client executes Cypher statements against /db/{database}/tx/commit.
type Client struct {
	endpoint string
	user     string
	password string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewClient creates a Client. A zero Database defaults to "neo4j".
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	logger = logger.With(slog.String("component", "graph"))

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "neo4j",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Client{
		endpoint: strings.TrimRight(cfg.URL, "/") + "/db/" + cfg.Database + "/tx/commit",
		user:     cfg.User,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  breaker,
		logger:   logger,
	}
}

// Row is one result row keyed by column name.
type Row map[string]any

type statement struct {
	Statement  string         `json:"statement"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type txRequest struct {
	Statements []statement `json:"statements"`
}

type txResponse struct {
	Results []struct {
		Columns []string `json:"columns"`
		Data    []struct {
			Row []any `json:"row"`
		} `json:"data"`
	} `json:"results"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Query runs one statement and returns the rows of its result. Transport,
// HTTP and Cypher failures are all domain.ExternalError.
func (c *Client) Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, cypher, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.External("graph: query", err)
		}
		return nil, err
	}
	return out.([]Row), nil
}

// Ping runs a trivial statement for health probes.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, "RETURN 1 AS ok", nil)
	return err
}

func (c *Client) do(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	body, err := json.Marshal(txRequest{Statements: []statement{{Statement: cypher, Parameters: params}}})
	if err != nil {
		return nil, fmt.Errorf("graph: marshal statement: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("graph: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.External("graph: post", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.External("graph: post",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var tx txResponse
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, domain.External("graph: decode response", err)
	}
	if len(tx.Errors) > 0 {
		msgs := make([]string, 0, len(tx.Errors))
		for _, e := range tx.Errors {
			msgs = append(msgs, e.Code+": "+e.Message)
		}
		return nil, domain.External("graph: cypher", errors.New(strings.Join(msgs, "; ")))
	}
	if len(tx.Results) == 0 {
		return nil, nil
	}

	res := tx.Results[0]
	rows := make([]Row, 0, len(res.Data))
	for _, d := range res.Data {
		row := make(Row, len(res.Columns))
		for i, col := range res.Columns {
			if i < len(d.Row) {
				row[col] = d.Row[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// State reports the breaker state for health output.
func (c *Client) State() string {
	return c.breaker.State().String()
}
