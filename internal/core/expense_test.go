package core

import (
	"testing"
	"time"
)

// TestTransitionGraph walks every (from, to) pair and checks that exactly
// the documented edges exist.
func TestTransitionGraph(t *testing.T) {
	all := []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusPaid}
	allowed := map[Status]map[Status]bool{
		StatusDraft:    {StatusPending: true},
		StatusPending:  {StatusApproved: true, StatusRejected: true},
		StatusApproved: {StatusPaid: true},
		StatusRejected: {StatusDraft: true},
		StatusPaid:     {},
	}

	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to)
			want := allowed[from][to]
			if got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatusEditable(t *testing.T) {
	cases := []struct {
		status Status
		want   bool
	}{
		{StatusDraft, true},
		{StatusRejected, true},
		{StatusPending, false},
		{StatusApproved, false},
		{StatusPaid, false},
	}
	for _, tc := range cases {
		if got := tc.status.Editable(); got != tc.want {
			t.Errorf("%s.Editable() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestStatusCountsTowardSpend(t *testing.T) {
	for _, s := range []Status{StatusApproved, StatusPaid} {
		if !s.CountsTowardSpend() {
			t.Errorf("%s should count toward spend", s)
		}
	}
	for _, s := range []Status{StatusDraft, StatusPending, StatusRejected} {
		if s.CountsTowardSpend() {
			t.Errorf("%s should not count toward spend", s)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		OwnerID:     1,
		CategoryID:  2,
		Amount:      Money{Cents: 1500},
		Date:        NewDate(2025, 3, 10),
		Description: "taxi to client site",
		Status:      StatusDraft,
	}

	tests := []struct {
		name    string
		mutate  func(e *Expense)
		wantErr bool
	}{
		{"valid", func(e *Expense) {}, false},
		{"missing owner", func(e *Expense) { e.OwnerID = 0 }, true},
		{"missing category", func(e *Expense) { e.CategoryID = 0 }, true},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, true},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -5} }, true},
		{"zero date", func(e *Expense) { e.Date = Date{} }, true},
		{"empty description", func(e *Expense) { e.Description = "   " }, true},
		{"approver without timestamp", func(e *Expense) {
			id := int64(9)
			e.ApproverID = &id
		}, true},
		{"approver with timestamp", func(e *Expense) {
			id := int64(9)
			at := time.Now()
			e.ApproverID = &id
			e.ApprovedAt = &at
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
