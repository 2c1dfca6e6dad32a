package core

import "fmt"

// Period is the budget window granularity.
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParsePeriod converts a stored period string into a Period.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodMonthly, PeriodYearly:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown budget period %q", s)
}

// Alert tiers track the highest utilization level already notified, so a
// budget alert fires once per threshold crossing instead of on every
// re-evaluation.
const (
	AlertTierNone      = 0 // below the alert threshold
	AlertTierThreshold = 1 // utilization reached alert_threshold
	AlertTierOver      = 2 // spend exceeded the budget amount
)

// Budget caps spend for an owner, optionally narrowed to one category
// (CategoryID nil means an overall budget). Budgets are deactivated rather
// than deleted so historical analytics stay reproducible.
type Budget struct {
	ID             int64
	OwnerID        int64
	CategoryID     *int64
	Amount         Money
	Period         Period
	StartDate      Date
	EndDate        Date
	AlertThreshold float64 // percentage of Amount, in [0, 100]
	IsActive       bool
	LastAlertTier  int
}

func (b Budget) Validate() error {
	if b.OwnerID == 0 {
		return &InvalidInputError{Field: "owner_id", Reason: "required"}
	}
	if b.Amount.Cents < 0 {
		return &InvalidInputError{Field: "amount", Reason: "must not be negative"}
	}
	if _, err := ParsePeriod(string(b.Period)); err != nil {
		return &InvalidInputError{Field: "period", Reason: err.Error()}
	}
	if err := b.StartDate.Validate(); err != nil {
		return &InvalidInputError{Field: "start_date", Reason: err.Error()}
	}
	if err := b.EndDate.Validate(); err != nil {
		return &InvalidInputError{Field: "end_date", Reason: err.Error()}
	}
	if b.EndDate.Before(b.StartDate) {
		return &InvalidInputError{Field: "start_date", Reason: "must not be after end_date"}
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return &InvalidInputError{Field: "alert_threshold", Reason: "must be between 0 and 100"}
	}
	return nil
}

// Overlaps reports whether the budget window intersects [from, to].
func (b Budget) Overlaps(from, to Date) bool {
	return !b.StartDate.After(to) && !b.EndDate.Before(from)
}

// MatchesExpense reports whether an expense falls inside this budget's
// owner, category and date scope.
func (b Budget) MatchesExpense(e Expense) bool {
	if e.OwnerID != b.OwnerID {
		return false
	}
	if b.CategoryID != nil && *b.CategoryID != e.CategoryID {
		return false
	}
	return e.Date.Within(b.StartDate, b.EndDate)
}
