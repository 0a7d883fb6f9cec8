package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  ClientConfig{DSN: "postgres://x@y/z", Host: "ignored"},
			want: "postgres://x@y/z",
		},
		{
			name: "defaults",
			cfg:  ClientConfig{Host: "db", Database: "courtedge", User: "ce", Password: "pw"},
			want: "postgres://ce:pw@db:5432/courtedge?sslmode=disable",
		},
		{
			name: "explicit port and ssl",
			cfg:  ClientConfig{Host: "db", Port: 6543, Database: "c", User: "u", Password: "p", SSLMode: "require"},
			want: "postgres://u:p@db:6543/c?sslmode=require",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DSN(tt.cfg))
		})
	}
}

func TestMigrations_GuardColumns(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/001_init.sql")
	require.NoError(t, err)
	sql := string(data)
	for _, want := range []string{
		"lines_captured_at",
		"result_captured_at",
		"result_recorded_at",
		"UNIQUE (pick_id, analyst)",
		"UNIQUE (game_id, team, trigger_type)",
	} {
		assert.True(t, strings.Contains(sql, want), want)
	}
}

func TestBuilder(t *testing.T) {
	q := newBuilder("SELECT 1 FROM picks WHERE TRUE")
	q.and("pick_type = %s", "spread")
	q.page(10, 20)
	assert.Equal(t, "SELECT 1 FROM picks WHERE TRUE AND pick_type = $1 LIMIT $2 OFFSET $3", q.String())
	assert.Equal(t, []any{"spread", 10, 20}, q.args)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "g.id, g.home_abbr", prefixed("g", "id,\n\thome_abbr"))
}
