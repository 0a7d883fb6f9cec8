package domain

import "time"

// LifecycleState is the state of a write-once guard.
type LifecycleState uint8

const (
	Unstarted LifecycleState = iota
	Finalized
)

func (s LifecycleState) String() string {
	if s == Finalized {
		return "finalized"
	}
	return "unstarted"
}

// Lifecycle guards a record that may be written at most once. Once
// finalized it never returns to Unstarted.
type Lifecycle struct {
	State LifecycleState `json:"state"`
	At    time.Time      `json:"at,omitempty"`
}

// Finalized reports whether the guarded write already happened.
func (l Lifecycle) Finalized() bool { return l.State == Finalized }

// Finalize moves the lifecycle to Finalized at the given time. It returns
// false, leaving the receiver untouched, when it was already finalized.
func (l *Lifecycle) Finalize(at time.Time) bool {
	if l.State == Finalized {
		return false
	}
	l.State = Finalized
	l.At = at
	return true
}

// LifecycleAt rebuilds a Lifecycle from a nullable timestamp column.
func LifecycleAt(t *time.Time) Lifecycle {
	if t == nil || t.IsZero() {
		return Lifecycle{}
	}
	return Lifecycle{State: Finalized, At: *t}
}

// Timestamp returns the finalize time, or nil while unstarted.
func (l Lifecycle) Timestamp() *time.Time {
	if l.State != Finalized {
		return nil
	}
	at := l.At
	return &at
}
