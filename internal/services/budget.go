package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"expensehub/internal/core"
	"expensehub/internal/store"
)

// defaultReevalConcurrency bounds the budget fan-out after a lifecycle
// transition unless configured otherwise.
const defaultReevalConcurrency = 4

// Notifier is the outbound notification port. Implementations publish to the
// message bus or, in degraded setups, write straight to the store.
type Notifier interface {
	Enqueue(ctx context.Context, n core.Notification) error
}

// BudgetService evaluates budget utilization. Evaluation is always a full
// recomputation over the expense set, never an incremental delta: expense
// status changes retroactively (approve, reject, reopen) and only a pure
// projection stays correct under that.
type BudgetService struct {
	expenses    store.ExpenseStore
	budgets     store.BudgetStore
	notifier    Notifier
	concurrency int
}

func NewBudgetService(expenses store.ExpenseStore, budgets store.BudgetStore, notifier Notifier) *BudgetService {
	return &BudgetService{
		expenses:    expenses,
		budgets:     budgets,
		notifier:    notifier,
		concurrency: defaultReevalConcurrency,
	}
}

// SetConcurrency overrides the re-evaluation fan-out bound.
func (s *BudgetService) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// Evaluate computes the utilization of one budget as of a date. It performs
// no writes and is idempotent.
func (s *BudgetService) Evaluate(ctx context.Context, b core.Budget, asOf core.Date) (core.BudgetUtilization, error) {
	windowEnd := b.EndDate.Min(asOf)

	var spent core.Money
	if !windowEnd.Before(b.StartDate) {
		rows, err := s.expenses.ListExpensesByOwner(ctx, b.OwnerID, b.StartDate, windowEnd)
		if err != nil {
			return core.BudgetUtilization{}, fmt.Errorf("list expenses for budget %d: %w", b.ID, err)
		}
		for _, e := range rows {
			if !e.Status.CountsTowardSpend() {
				continue
			}
			if b.CategoryID != nil && *b.CategoryID != e.CategoryID {
				continue
			}
			spent = spent.Add(e.Amount)
		}
	}

	util := core.BudgetUtilization{
		BudgetID:  b.ID,
		Spent:     spent,
		Remaining: b.Amount.Sub(spent),
	}
	// Zero-amount budgets report zero utilization rather than dividing by zero.
	if b.Amount.Cents > 0 {
		util.UtilizationPct = spent.Units() / b.Amount.Units() * 100
	}
	util.AlertTriggered = util.UtilizationPct >= b.AlertThreshold
	util.IsOverBudget = spent.Cents > b.Amount.Cents
	return util, nil
}

// EvaluateBudgetID loads a budget and evaluates it. Unknown ids surface as
// core.NotFoundError.
func (s *BudgetService) EvaluateBudgetID(ctx context.Context, id int64, asOf core.Date) (core.BudgetUtilization, error) {
	b, err := s.budgets.GetBudget(ctx, id)
	if err != nil {
		return core.BudgetUtilization{}, fmt.Errorf("evaluate budget: %w", err)
	}
	return s.Evaluate(ctx, b, asOf)
}

// alertTier maps a utilization result onto the notification tier ladder.
func alertTier(u core.BudgetUtilization) int {
	switch {
	case u.IsOverBudget:
		return core.AlertTierOver
	case u.AlertTriggered:
		return core.AlertTierThreshold
	default:
		return core.AlertTierNone
	}
}

// ReevaluateForExpense re-runs evaluation for every active budget matching
// the expense's owner and category scope. It is invoked whenever a lifecycle
// transition moves the expense into or out of approved. A budget-alert
// notification fires only when the utilization tier rises above the last
// notified tier; dropping back lowers the tier silently.
func (s *BudgetService) ReevaluateForExpense(ctx context.Context, e core.Expense) error {
	budgets, err := s.budgets.ListActiveBudgetsByOwner(ctx, e.OwnerID)
	if err != nil {
		return fmt.Errorf("list budgets for owner %d: %w", e.OwnerID, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	// Evaluate as of today, not the expense's own date: a backdated
	// approval must still count every already-approved expense in the
	// window, or the stored alert tier regresses.
	asOf := core.DateOf(time.Now())

	for _, b := range budgets {
		if !b.MatchesExpense(e) {
			continue
		}
		b := b
		g.Go(func() error {
			return s.reevaluateOne(ctx, b, asOf)
		})
	}

	return g.Wait()
}

func (s *BudgetService) reevaluateOne(ctx context.Context, b core.Budget, asOf core.Date) error {
	util, err := s.Evaluate(ctx, b, asOf)
	if err != nil {
		return err
	}

	tier := alertTier(util)
	if tier == b.LastAlertTier {
		return nil
	}

	if err := s.budgets.SetBudgetAlertTier(ctx, b.ID, tier); err != nil {
		return fmt.Errorf("set alert tier for budget %d: %w", b.ID, err)
	}

	if tier > b.LastAlertTier && tier > core.AlertTierNone {
		s.notifyAlert(ctx, b, util, tier)
	}
	return nil
}

func (s *BudgetService) notifyAlert(ctx context.Context, b core.Budget, util core.BudgetUtilization, tier int) {
	title := "Budget alert"
	msg := fmt.Sprintf("Budget %d reached %.1f%% of its %s limit", b.ID, util.UtilizationPct, b.Amount)
	if tier == core.AlertTierOver {
		title = "Budget exceeded"
		msg = fmt.Sprintf("Budget %d is over its %s limit by %s", b.ID, b.Amount, util.Spent.Sub(b.Amount))
	}

	n := core.Notification{
		UserIDs: []int64{b.OwnerID},
		Type:    core.NotifyBudgetAlert,
		Title:   title,
		Message: msg,
		Metadata: map[string]string{
			"budget_id":       fmt.Sprintf("%d", b.ID),
			"utilization_pct": fmt.Sprintf("%.2f", util.UtilizationPct),
		},
	}
	// Fire-and-forget: a failed enqueue must not fail the evaluation.
	if err := s.notifier.Enqueue(ctx, n); err != nil {
		slog.ErrorContext(ctx, "Failed to enqueue budget alert",
			"budget_id", b.ID, "tier", tier, "error", err)
	}
}
