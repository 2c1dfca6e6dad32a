package services

import (
	"context"
	"fmt"
	"sort"

	"expensehub/internal/core"
	"expensehub/internal/store"
)

// AnalyticsService aggregates visible expenses into category breakdowns,
// monthly trends and budget-vs-actual variance. Every division by zero in
// the output resolves to 0; that is contract, not accident.
type AnalyticsService struct {
	expenses   store.ExpenseStore
	budgets    store.BudgetStore
	categories store.CategoryStore
	visibility *VisibilityService
}

func NewAnalyticsService(expenses store.ExpenseStore, budgets store.BudgetStore, categories store.CategoryStore, visibility *VisibilityService) *AnalyticsService {
	return &AnalyticsService{
		expenses:   expenses,
		budgets:    budgets,
		categories: categories,
		visibility: visibility,
	}
}

// Aggregate builds the full summary for one actor over [from, to].
func (s *AnalyticsService) Aggregate(ctx context.Context, actorID int64, from, to core.Date) (core.AnalyticsSummary, error) {
	if to.Before(from) {
		return core.AnalyticsSummary{}, &core.InvalidInputError{Field: "date_range", Reason: "start must not be after end"}
	}

	scope, err := s.visibility.ResolveScope(ctx, actorID)
	if err != nil {
		return core.AnalyticsSummary{}, err
	}

	rows, err := s.expenses.ListExpensesByDateRange(ctx, from, to)
	if err != nil {
		return core.AnalyticsSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	visible := scope.FilterExpenses(rows)

	summary := core.AnalyticsSummary{ExpenseCount: len(visible)}
	for _, e := range visible {
		summary.TotalAmount = summary.TotalAmount.Add(e.Amount)
	}
	if summary.ExpenseCount > 0 {
		summary.AvgExpense = summary.TotalAmount.Units() / float64(summary.ExpenseCount)
	}

	summary.CategoryBreakdown, err = s.breakdown(ctx, visible, summary.TotalAmount)
	if err != nil {
		return core.AnalyticsSummary{}, err
	}
	summary.MonthlyTrend = trend(visible)

	summary.BudgetVsActual, err = s.budgetVsActual(ctx, scope, from, to, summary.TotalAmount)
	if err != nil {
		return core.AnalyticsSummary{}, err
	}
	return summary, nil
}

// breakdown groups visible expenses per category. Percentages are shares of
// the grand total and 0 when the total is 0; the entry set is unordered by
// contract, sorted by id here only for stable output.
func (s *AnalyticsService) breakdown(ctx context.Context, visible []core.Expense, total core.Money) ([]core.CategoryBreakdownEntry, error) {
	perCategory := make(map[int64]*core.CategoryBreakdownEntry)
	for _, e := range visible {
		entry, ok := perCategory[e.CategoryID]
		if !ok {
			entry = &core.CategoryBreakdownEntry{CategoryID: e.CategoryID}
			perCategory[e.CategoryID] = entry
		}
		entry.Amount = entry.Amount.Add(e.Amount)
		entry.Count++
	}
	if len(perCategory) == 0 {
		return []core.CategoryBreakdownEntry{}, nil
	}

	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := core.NewCategorySet(cats)

	out := make([]core.CategoryBreakdownEntry, 0, len(perCategory))
	for id, entry := range perCategory {
		if c, ok := names[id]; ok {
			entry.CategoryName = c.Name
		}
		if total.Cents > 0 {
			entry.Percentage = entry.Amount.Units() / total.Units() * 100
		}
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

// trend groups expenses by "YYYY-MM" key, ascending. Months without
// expenses are omitted, not zero-filled.
func trend(visible []core.Expense) []core.MonthPoint {
	perMonth := make(map[string]*core.MonthPoint)
	for _, e := range visible {
		key := e.Date.MonthKey()
		p, ok := perMonth[key]
		if !ok {
			p = &core.MonthPoint{Month: key}
			perMonth[key] = p
		}
		p.Amount = p.Amount.Add(e.Amount)
		p.Count++
	}

	keys := make([]string, 0, len(perMonth))
	for k := range perMonth {
		keys = append(keys, k)
	}
	// Lexicographic order of "YYYY-MM" keys is chronological order.
	sort.Strings(keys)

	out := make([]core.MonthPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, *perMonth[k])
	}
	return out
}

// budgetVsActual sums the visible active budgets whose window overlaps the
// range. Admins see every budget; managers and users only their own.
func (s *AnalyticsService) budgetVsActual(ctx context.Context, scope *Scope, from, to core.Date, actual core.Money) (core.BudgetVsActual, error) {
	var budgets []core.Budget
	var err error
	if scope.Role == core.RoleAdmin {
		budgets, err = s.budgets.ListActiveBudgets(ctx)
	} else {
		budgets, err = s.budgets.ListActiveBudgetsByOwner(ctx, scope.ActorID)
	}
	if err != nil {
		return core.BudgetVsActual{}, fmt.Errorf("list budgets: %w", err)
	}

	var budgeted core.Money
	for _, b := range budgets {
		if b.Overlaps(from, to) {
			budgeted = budgeted.Add(b.Amount)
		}
	}

	result := core.BudgetVsActual{
		BudgetAmount: budgeted,
		ActualAmount: actual,
		Variance:     actual.Sub(budgeted),
	}
	if budgeted.Cents > 0 {
		result.VariancePct = result.Variance.Units() / budgeted.Units() * 100
	}
	return result, nil
}
