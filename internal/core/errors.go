package core

import (
	"errors"
	"fmt"
)

// Sentinel validation errors shared across the domain types.
var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
)

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string // "actor", "expense", "budget", "category", "team"
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// UnauthorizedError reports an actor acting outside its resolved scope.
type UnauthorizedError struct {
	ActorID int64
	Role    Role
	Action  string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("actor %d (%s) is not allowed to %s", e.ActorID, e.Role, e.Action)
}

// InvalidTransitionError reports a lifecycle edge that does not exist in the
// transition table. It carries both states so callers can render an
// actionable message.
type InvalidTransitionError struct {
	ExpenseID int64
	From      Status
	To        Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("expense %d: invalid transition %s -> %s", e.ExpenseID, e.From, e.To)
}

// ConflictError reports a compare-and-swap status write that lost a race with
// a concurrent transition. It is the only error worth retrying: re-fetch the
// expense and re-attempt.
type ConflictError struct {
	ExpenseID int64
	Expected  Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("expense %d: concurrent update, status is no longer %s", e.ExpenseID, e.Expected)
}

// InvalidInputError reports pre-validated input that still violates a domain
// rule (non-positive amount, inverted date range, threshold out of bounds).
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is, or wraps, a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
