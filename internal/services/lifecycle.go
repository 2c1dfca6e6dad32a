package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expensehub/internal/core"
	"expensehub/internal/store"
)

// LifecycleService drives the expense state machine. Every transition is
// guard-checked against the core transition table, authorized against the
// actor's resolved scope, and written as a compare-and-swap on the status
// the guard saw; a losing concurrent attempt comes back as
// core.ConflictError instead of silently overwriting.
type LifecycleService struct {
	store      store.Store
	visibility *VisibilityService
	budgets    *BudgetService
	notifier   Notifier
}

func NewLifecycleService(st store.Store, visibility *VisibilityService, budgets *BudgetService, notifier Notifier) *LifecycleService {
	return &LifecycleService{
		store:      st,
		visibility: visibility,
		budgets:    budgets,
		notifier:   notifier,
	}
}

// CreateExpense validates and inserts a new draft owned by the actor. The
// category must exist and be active; inactive categories stay valid only on
// historical records.
func (s *LifecycleService) CreateExpense(ctx context.Context, actorID int64, e core.Expense) (core.Expense, error) {
	e.OwnerID = actorID
	e.Status = core.StatusDraft
	e.ApproverID = nil
	e.ApprovedAt = nil

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.checkCategoryActive(ctx, e.CategoryID); err != nil {
		return core.Expense{}, err
	}

	id, err := s.store.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense created",
		"expense_id", e.ID, "owner_id", e.OwnerID, "amount_cents", e.Amount.Cents)
	return e, nil
}

// UpdateExpense rewrites the owner-editable fields while the expense is in
// draft or rejected. Everything is immutable once pending.
func (s *LifecycleService) UpdateExpense(ctx context.Context, actorID int64, e core.Expense) (core.Expense, error) {
	cur, err := s.store.GetExpense(ctx, e.ID)
	if err != nil {
		return core.Expense{}, err
	}
	if cur.OwnerID != actorID {
		return core.Expense{}, s.unauthorized(ctx, actorID, "edit expense")
	}
	if !cur.Status.Editable() {
		return core.Expense{}, &core.InvalidInputError{
			Field:  "status",
			Reason: fmt.Sprintf("expense is %s and no longer editable", cur.Status),
		}
	}

	cur.Amount = e.Amount
	cur.CategoryID = e.CategoryID
	cur.Date = e.Date
	cur.Description = e.Description
	if err := cur.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.checkCategoryActive(ctx, cur.CategoryID); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.UpdateExpenseDraft(ctx, cur); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return cur, nil
}

// Submit moves draft -> pending and notifies the resolved approvers: the
// owner's team manager(s), or every admin when the owner has no team. A
// resubmission after rejection goes through the same path and reuses the
// approval_request notification type.
func (s *LifecycleService) Submit(ctx context.Context, actorID, expenseID int64) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, err
	}
	if e.OwnerID != actorID {
		return core.Expense{}, s.unauthorized(ctx, actorID, "submit expense")
	}
	if !e.Status.CanTransitionTo(core.StatusPending) {
		return core.Expense{}, &core.InvalidTransitionError{ExpenseID: e.ID, From: e.Status, To: core.StatusPending}
	}
	if e.Amount.Cents <= 0 {
		return core.Expense{}, &core.InvalidInputError{Field: "amount", Reason: "must be positive"}
	}
	if err := s.checkCategoryActive(ctx, e.CategoryID); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.UpdateExpenseStatus(ctx, e.ID, e.Status, core.StatusPending, nil, nil); err != nil {
		return core.Expense{}, err
	}
	e.Status = core.StatusPending

	approvers, err := s.resolveApprovers(ctx, e)
	if err != nil {
		// The transition already happened; a failed approver lookup only
		// costs the notification.
		slog.ErrorContext(ctx, "Failed to resolve approvers", "expense_id", e.ID, "error", err)
		return e, nil
	}
	s.enqueue(ctx, core.Notification{
		UserIDs: approvers,
		Type:    core.NotifyApprovalRequest,
		Title:   "Expense awaiting approval",
		Message: fmt.Sprintf("Expense %d (%s) was submitted for approval", e.ID, e.Amount),
		Metadata: map[string]string{
			"expense_id": fmt.Sprintf("%d", e.ID),
			"owner_id":   fmt.Sprintf("%d", e.OwnerID),
		},
	})
	return e, nil
}

// Approve moves pending -> approved, stamping the approver and re-evaluating
// every budget the expense now counts against.
func (s *LifecycleService) Approve(ctx context.Context, actorID, expenseID int64) (core.Expense, error) {
	return s.decide(ctx, actorID, expenseID, core.StatusApproved)
}

// Reject moves pending -> rejected, stamping the deciding approver.
func (s *LifecycleService) Reject(ctx context.Context, actorID, expenseID int64) (core.Expense, error) {
	return s.decide(ctx, actorID, expenseID, core.StatusRejected)
}

func (s *LifecycleService) decide(ctx context.Context, actorID, expenseID int64, target core.Status) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, err
	}

	scope, err := s.visibility.ResolveScope(ctx, actorID)
	if err != nil {
		return core.Expense{}, err
	}
	if !scope.Role.CanApprove() || !scope.AllowsExpense(e.OwnerID, e.TeamID) {
		return core.Expense{}, s.unauthorized(ctx, actorID, "decide on expense")
	}
	if !e.Status.CanTransitionTo(target) {
		return core.Expense{}, &core.InvalidTransitionError{ExpenseID: e.ID, From: e.Status, To: target}
	}

	now := time.Now().UTC()
	if err := s.store.UpdateExpenseStatus(ctx, e.ID, e.Status, target, &actorID, &now); err != nil {
		return core.Expense{}, err
	}
	e.Status = target
	e.ApproverID = &actorID
	e.ApprovedAt = &now

	slog.InfoContext(ctx, "Expense decided",
		"expense_id", e.ID, "status", string(target), "approver_id", actorID)

	// Approval changes approved spend; budgets must reflect it before the
	// next utilization read.
	if target == core.StatusApproved {
		if err := s.budgets.ReevaluateForExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Budget re-evaluation failed", "expense_id", e.ID, "error", err)
		}
	}

	notifType := core.NotifyExpenseApproved
	title := "Expense approved"
	if target == core.StatusRejected {
		notifType = core.NotifyExpenseRejected
		title = "Expense rejected"
	}
	s.enqueue(ctx, core.Notification{
		UserIDs: []int64{e.OwnerID},
		Type:    notifType,
		Title:   title,
		Message: fmt.Sprintf("Expense %d (%s) was %s", e.ID, e.Amount, target),
		Metadata: map[string]string{
			"expense_id":  fmt.Sprintf("%d", e.ID),
			"approver_id": fmt.Sprintf("%d", actorID),
		},
	})
	return e, nil
}

// MarkPaid moves approved -> paid. Admin only; approval fields are left
// untouched.
func (s *LifecycleService) MarkPaid(ctx context.Context, actorID, expenseID int64) (core.Expense, error) {
	actor, err := s.store.GetActor(ctx, actorID)
	if err != nil {
		return core.Expense{}, err
	}
	if actor.Role != core.RoleAdmin {
		return core.Expense{}, &core.UnauthorizedError{ActorID: actorID, Role: actor.Role, Action: "mark expense paid"}
	}

	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, err
	}
	if !e.Status.CanTransitionTo(core.StatusPaid) {
		return core.Expense{}, &core.InvalidTransitionError{ExpenseID: e.ID, From: e.Status, To: core.StatusPaid}
	}

	if err := s.store.UpdateExpenseStatus(ctx, e.ID, e.Status, core.StatusPaid, e.ApproverID, e.ApprovedAt); err != nil {
		return core.Expense{}, err
	}
	e.Status = core.StatusPaid
	return e, nil
}

// Reopen moves rejected -> draft for another editing round, clearing the
// approver fields together.
func (s *LifecycleService) Reopen(ctx context.Context, actorID, expenseID int64) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, err
	}
	if e.OwnerID != actorID {
		return core.Expense{}, s.unauthorized(ctx, actorID, "reopen expense")
	}
	if !e.Status.CanTransitionTo(core.StatusDraft) {
		return core.Expense{}, &core.InvalidTransitionError{ExpenseID: e.ID, From: e.Status, To: core.StatusDraft}
	}

	if err := s.store.UpdateExpenseStatus(ctx, e.ID, e.Status, core.StatusDraft, nil, nil); err != nil {
		return core.Expense{}, err
	}
	e.Status = core.StatusDraft
	e.ApproverID = nil
	e.ApprovedAt = nil
	return e, nil
}

// resolveApprovers returns the owner's team manager(s); owners outside any
// team fall back to the full admin set.
func (s *LifecycleService) resolveApprovers(ctx context.Context, e core.Expense) ([]int64, error) {
	teams, err := s.store.ListTeamsForMember(ctx, e.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list teams for owner %d: %w", e.OwnerID, err)
	}

	seen := make(map[int64]struct{})
	var approvers []int64
	for _, t := range teams {
		if _, ok := seen[t.ManagerID]; ok {
			continue
		}
		seen[t.ManagerID] = struct{}{}
		approvers = append(approvers, t.ManagerID)
	}
	if len(approvers) > 0 {
		return approvers, nil
	}

	admins, err := s.store.ListAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

func (s *LifecycleService) checkCategoryActive(ctx context.Context, categoryID int64) error {
	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if !cat.IsActive {
		return &core.InvalidInputError{Field: "category_id", Reason: "category is inactive"}
	}
	return nil
}

func (s *LifecycleService) unauthorized(ctx context.Context, actorID int64, action string) error {
	role := core.Role("")
	if actor, err := s.store.GetActor(ctx, actorID); err == nil {
		role = actor.Role
	}
	return &core.UnauthorizedError{ActorID: actorID, Role: role, Action: action}
}

func (s *LifecycleService) enqueue(ctx context.Context, n core.Notification) {
	if len(n.UserIDs) == 0 {
		return
	}
	// Fire-and-forget: the transition already committed, a notification
	// failure must not fail the request.
	if err := s.notifier.Enqueue(ctx, n); err != nil {
		slog.ErrorContext(ctx, "Failed to enqueue notification",
			"type", string(n.Type), "recipients", len(n.UserIDs), "error", err)
	}
}
