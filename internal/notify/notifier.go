// Package notify fans alerts out to chat channels. Notifications can be
// filtered by event type and deduplicated by key.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Event types understood by the notifier filter.
const (
	EventActionableEdge = "actionable_edge"
	EventDailyReport    = "daily_report"
	EventJobFailed      = "job_failed"
	EventTrigger        = "trigger_detected"
)

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches to every sender. Notify honours the event filter;
// NotifyOnce additionally drops keys already sent within the dedup TTL.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	dedup   *Dedup
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. An empty events list allows every event.
// A nil dedup disables NotifyOnce suppression.
func NewNotifier(senders []Sender, events []string, dedup *Dedup, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		dedup:   dedup,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether any sender is configured.
func (n *Notifier) Enabled() bool { return n != nil && len(n.senders) > 0 }

// Notify sends when event passes the filter.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if !n.allowed(event) {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// NotifyOnce sends like Notify unless key was already sent within the
// dedup TTL. It reports whether anything was dispatched.
func (n *Notifier) NotifyOnce(ctx context.Context, event, key, title, message string) (bool, error) {
	if !n.allowed(event) {
		return false, nil
	}
	if n.dedup != nil && n.dedup.IsDuplicate(event+":"+key) {
		n.logger.DebugContext(ctx, "duplicate notification suppressed",
			slog.String("event", event),
			slog.String("key", key),
		)
		return false, nil
	}
	return true, n.dispatch(ctx, title, message)
}

func (n *Notifier) allowed(event string) bool {
	return len(n.events) == 0 || n.events[event]
}

// dispatch tries every sender; one failure does not stop the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
