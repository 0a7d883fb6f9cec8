// Package memory provides in-process implementations of the domain stores.
// They honor the same write-once guards and unique keys as the PostgreSQL
// stores and back the engines when no database is configured.
package memory

import (
	"sync"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// DB is the shared state behind every memory store, playing the role the
// connection pool plays for the PostgreSQL stores.
type DB struct {
	mu           sync.RWMutex
	games        map[string]domain.Game
	results      map[string]domain.GameResult // by game id
	picks        map[string]domain.Pick
	analystPicks map[string]domain.AnalystPick
	weights      map[domain.Analyst]domain.AnalystWeight
	predictions  map[string]domain.WeaknessPrediction
	audit        []domain.AuditEntry
}

// New creates an empty DB.
func New() *DB {
	return &DB{
		games:        make(map[string]domain.Game),
		results:      make(map[string]domain.GameResult),
		picks:        make(map[string]domain.Pick),
		analystPicks: make(map[string]domain.AnalystPick),
		weights:      make(map[domain.Analyst]domain.AnalystWeight),
		predictions:  make(map[string]domain.WeaknessPrediction),
	}
}
