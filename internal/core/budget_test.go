package core

import "testing"

func validBudget() Budget {
	return Budget{
		OwnerID:        1,
		Amount:         Money{Cents: 30000},
		Period:         PeriodMonthly,
		StartDate:      NewDate(2025, 3, 1),
		EndDate:        NewDate(2025, 3, 31),
		AlertThreshold: 80,
		IsActive:       true,
	}
}

func TestBudgetValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *Budget)
		wantErr bool
	}{
		{"valid", func(b *Budget) {}, false},
		{"zero amount allowed", func(b *Budget) { b.Amount = Money{} }, false},
		{"negative amount", func(b *Budget) { b.Amount = Money{Cents: -1} }, true},
		{"missing owner", func(b *Budget) { b.OwnerID = 0 }, true},
		{"bad period", func(b *Budget) { b.Period = "weekly" }, true},
		{"inverted range", func(b *Budget) {
			b.StartDate = NewDate(2025, 4, 1)
			b.EndDate = NewDate(2025, 3, 1)
		}, true},
		{"threshold below range", func(b *Budget) { b.AlertThreshold = -1 }, true},
		{"threshold above range", func(b *Budget) { b.AlertThreshold = 101 }, true},
		{"threshold boundary 0", func(b *Budget) { b.AlertThreshold = 0 }, false},
		{"threshold boundary 100", func(b *Budget) { b.AlertThreshold = 100 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBudget()
			tt.mutate(&b)
			err := b.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetOverlaps(t *testing.T) {
	b := validBudget() // 2025-03-01 .. 2025-03-31

	tests := []struct {
		name     string
		from, to Date
		want     bool
	}{
		{"inside", NewDate(2025, 3, 10), NewDate(2025, 3, 20), true},
		{"covers", NewDate(2025, 2, 1), NewDate(2025, 4, 30), true},
		{"touches start", NewDate(2025, 2, 1), NewDate(2025, 3, 1), true},
		{"touches end", NewDate(2025, 3, 31), NewDate(2025, 4, 15), true},
		{"before", NewDate(2025, 1, 1), NewDate(2025, 2, 28), false},
		{"after", NewDate(2025, 4, 1), NewDate(2025, 4, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Overlaps(tt.from, tt.to); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestBudgetMatchesExpense(t *testing.T) {
	cat := int64(7)
	b := validBudget()
	b.CategoryID = &cat

	base := Expense{
		OwnerID:    1,
		CategoryID: 7,
		Amount:     Money{Cents: 100},
		Date:       NewDate(2025, 3, 15),
		Status:     StatusApproved,
	}

	if !b.MatchesExpense(base) {
		t.Fatal("expected in-scope expense to match")
	}

	other := base
	other.OwnerID = 2
	if b.MatchesExpense(other) {
		t.Error("different owner must not match")
	}

	other = base
	other.CategoryID = 8
	if b.MatchesExpense(other) {
		t.Error("different category must not match")
	}

	other = base
	other.Date = NewDate(2025, 4, 1)
	if b.MatchesExpense(other) {
		t.Error("out-of-window date must not match")
	}

	// Overall budget (nil category) matches any category
	b.CategoryID = nil
	other = base
	other.CategoryID = 8
	if !b.MatchesExpense(other) {
		t.Error("overall budget should match any category")
	}
}
