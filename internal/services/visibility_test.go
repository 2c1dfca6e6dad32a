package services

import (
	"context"
	"testing"

	"expensehub/internal/core"
)

func TestResolveScopeUnknownActor(t *testing.T) {
	f := newFixture()
	_, err := f.vis.ResolveScope(context.Background(), 9999)
	if !core.IsNotFound(err) {
		t.Fatalf("expected NotFound for unknown actor, got %v", err)
	}
}

func TestScopeUser(t *testing.T) {
	f := newFixture()
	scope, err := f.vis.ResolveScope(context.Background(), f.alice)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !scope.AllowsExpense(f.alice, nil) {
		t.Error("user must see own expense")
	}
	if scope.AllowsExpense(f.bob, nil) {
		t.Error("user must not see teammate's expense")
	}
	if scope.AllowsExpense(f.bob, &f.teamID) {
		t.Error("user must not see team expense")
	}
	if scope.AllowsBudget(f.bob) {
		t.Error("user must not see another user's budget")
	}
	if !scope.AllowsBudget(f.alice) {
		t.Error("user must see own budget")
	}
}

func TestScopeManager(t *testing.T) {
	f := newFixture()
	scope, err := f.vis.ResolveScope(context.Background(), f.manager)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !scope.AllowsExpense(f.manager, nil) {
		t.Error("manager must see own expense")
	}
	if !scope.AllowsExpense(f.bob, &f.teamID) {
		t.Error("manager must see managed team's expense")
	}
	// Membership is the authoritative link: an unassigned record of a
	// roster member is still visible.
	if !scope.AllowsExpense(f.alice, nil) {
		t.Error("manager must see roster member's expense with nil team_id")
	}
	if scope.AllowsExpense(f.carol, nil) {
		t.Error("manager must not see a non-member's expense")
	}
	if scope.AllowsBudget(f.alice) {
		t.Error("manager must not see team member budgets")
	}
}

func TestScopeAdmin(t *testing.T) {
	f := newFixture()
	scope, err := f.vis.ResolveScope(context.Background(), f.admin)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for _, owner := range []int64{f.admin, f.manager, f.alice, f.carol} {
		if !scope.AllowsExpense(owner, nil) {
			t.Errorf("admin must see expense of owner %d", owner)
		}
		if !scope.AllowsBudget(owner) {
			t.Errorf("admin must see budget of owner %d", owner)
		}
	}
}

func TestScopeFilterExpenses(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	d := core.NewDate(2025, 5, 10)
	f.expense(f.alice, f.travelCat, 100, d, core.StatusApproved)
	f.expense(f.bob, f.travelCat, 200, d, core.StatusApproved)
	f.expense(f.carol, f.travelCat, 300, d, core.StatusApproved)

	scope, _ := f.vis.ResolveScope(ctx, f.manager)
	all, _ := f.store.ListExpensesByDateRange(ctx, d, d)

	visible := scope.FilterExpenses(all)
	if len(visible) != 2 {
		t.Fatalf("manager should see 2 of 3 expenses, got %d", len(visible))
	}
	for _, e := range visible {
		if e.OwnerID == f.carol {
			t.Error("carol's expense leaked into manager scope")
		}
	}
}
