package core

import (
	"fmt"
	"strings"
	"time"
)

// Status is an expense lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

// ParseStatus converts a stored status string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusPaid:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown expense status %q", s)
}

// transitions is the complete lifecycle graph. Any (from, to) pair absent
// here is an invalid transition, no exceptions and no timers.
var transitions = map[Status][]Status{
	StatusDraft:    {StatusPending},
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusPaid},
	StatusRejected: {StatusDraft},
	StatusPaid:     {},
}

// CanTransitionTo reports whether the lifecycle graph contains the edge
// from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Editable reports whether the owner may still mutate amount, category and
// description. Only draft and rejected expenses are editable; everything is
// frozen once submitted.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusRejected
}

// CountsTowardSpend reports whether the expense contributes to budget
// utilization.
func (s Status) CountsTowardSpend() bool {
	return s == StatusApproved || s == StatusPaid
}

// Expense is a single expense record. ApproverID and ApprovedAt are both set
// or both unset: set together exactly when the expense enters approved or
// rejected, cleared together when a rejected expense is reopened.
type Expense struct {
	ID          int64
	OwnerID     int64
	CategoryID  int64
	Amount      Money
	Date        Date
	Description string
	Status      Status
	ApproverID  *int64
	ApprovedAt  *time.Time
	TeamID      *int64
}

func (e Expense) Validate() error {
	if e.OwnerID == 0 {
		return &InvalidInputError{Field: "owner_id", Reason: "required"}
	}
	if e.CategoryID == 0 {
		return &InvalidInputError{Field: "category_id", Reason: "required"}
	}
	if e.Amount.Cents <= 0 {
		return &InvalidInputError{Field: "amount", Reason: "must be positive"}
	}
	if err := e.Date.Validate(); err != nil {
		return &InvalidInputError{Field: "date", Reason: err.Error()}
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return &InvalidInputError{Field: "description", Reason: "too long (max 200 characters)"}
	}
	// Approver fields travel together
	if (e.ApproverID == nil) != (e.ApprovedAt == nil) {
		return &InvalidInputError{Field: "approver", Reason: "approver_id and approved_at must be set together"}
	}
	return nil
}
