// Package handler implements the JSON API endpoints. Each handler declares
// the narrow service interface it needs.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPick):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrLockHeld), domain.IsNotReady(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case domain.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and writes the mapped status. Server-side failures get a
// generic message; client errors echo the cause.
func fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error, attrs ...slog.Attr) {
	status := statusFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	args := []any{slog.String("op", op), slog.String("error", err.Error())}
	for _, a := range attrs {
		args = append(args, a)
	}
	logger.Log(r.Context(), level, "handler: request failed", args...)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = op + " failed"
	}
	writeError(w, status, msg)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

// parseDate reads a YYYY-MM-DD query value; empty means today in loc.
func parseDate(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}

// parseWindow reads optional from/to dates. to is inclusive of its day.
func parseWindow(r *http.Request, loc *time.Location, fromKey, toKey string) (*time.Time, *time.Time, error) {
	q := r.URL.Query()
	var from, to *time.Time
	if v := q.Get(fromKey); v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if v := q.Get(toKey); v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			return nil, nil, err
		}
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

func parseModel(v string) (domain.Model, bool) {
	m := domain.Model(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range domain.Models {
		if m == known {
			return m, true
		}
	}
	return "", false
}

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}
