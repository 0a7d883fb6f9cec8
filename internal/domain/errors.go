package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidPick   = errors.New("invalid pick parameters")
	ErrLockHeld      = errors.New("lock already held")
)

// ExternalError marks a failure in a collaborator (database, cache, graph
// store, object storage). Batch jobs retry these; engine logic errors are
// never wrapped in it.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// External wraps err as an ExternalError for op. A nil err stays nil and an
// error that already carries an ExternalError is returned unchanged.
func External(op string, err error) error {
	if err == nil {
		return nil
	}
	var ext *ExternalError
	if errors.As(err, &ext) {
		return err
	}
	return &ExternalError{Op: op, Err: err}
}

// IsRetryable reports whether err originates from a collaborator failure.
func IsRetryable(err error) bool {
	var ext *ExternalError
	return errors.As(err, &ext)
}

// NotReadyError reports that an operation was attempted before its
// prerequisites existed, e.g. grading a game with no final score.
type NotReadyError struct {
	Entity  string // "game", "pick", "prediction"
	ID      string
	Missing string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s %s not ready: %s", e.Entity, e.ID, e.Missing)
}

// NotReady builds a NotReadyError.
func NotReady(entity, id, missing string) error {
	return &NotReadyError{Entity: entity, ID: id, Missing: missing}
}

// IsNotReady reports whether err is a NotReadyError.
func IsNotReady(err error) bool {
	var nr *NotReadyError
	return errors.As(err, &nr)
}
