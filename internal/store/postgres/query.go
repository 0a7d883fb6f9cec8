package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

// builder accumulates a WHERE clause with positional arguments.
type builder struct {
	sb   strings.Builder
	args []any
}

func newBuilder(base string, args ...any) *builder {
	b := &builder{args: args}
	b.sb.WriteString(base)
	return b
}

// and appends "AND <cond>" where cond contains a single %s placeholder for
// the next argument position.
func (b *builder) and(cond string, arg any) {
	b.args = append(b.args, arg)
	b.sb.WriteString(" AND ")
	b.sb.WriteString(fmt.Sprintf(cond, fmt.Sprintf("$%d", len(b.args))))
}

func (b *builder) window(col string, since, until *time.Time) {
	if since != nil {
		b.and(col+" >= %s", *since)
	}
	if until != nil {
		b.and(col+" <= %s", *until)
	}
}

func (b *builder) page(limit, offset int) {
	if limit > 0 {
		b.args = append(b.args, limit)
		fmt.Fprintf(&b.sb, " LIMIT $%d", len(b.args))
	}
	if offset > 0 {
		b.args = append(b.args, offset)
		fmt.Fprintf(&b.sb, " OFFSET $%d", len(b.args))
	}
}

func (b *builder) raw(s string) { b.sb.WriteString(s) }

func (b *builder) String() string { return b.sb.String() }

// notFound maps pgx.ErrNoRows to domain.ErrNotFound with context.
func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("postgres: %s %s: %w", what, id, domain.ErrNotFound)
	}
	return fmt.Errorf("postgres: get %s %s: %w", what, id, err)
}

// prefixed qualifies every column in a comma separated list with alias.
func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
