// Package store defines the data-access ports the core consumes. The SQLite
// repository (internal/storage) and the in-memory store (internal/store/
// memory) both satisfy them; the services never see a concrete backend.
package store

import (
	"context"
	"time"

	"expensehub/internal/core"
)

type (
	ActorStore interface {
		// GetActor returns the actor or a core.NotFoundError.
		GetActor(ctx context.Context, id int64) (core.Actor, error)
		InsertActor(ctx context.Context, a core.Actor) (int64, error)
		// ListAdminIDs returns the ids of all admin actors, the fallback
		// approver set for owners without a team manager.
		ListAdminIDs(ctx context.Context) ([]int64, error)
	}

	TeamStore interface {
		GetTeam(ctx context.Context, id int64) (core.Team, error)
		InsertTeam(ctx context.Context, t core.Team) (int64, error)
		// ListTeamsManagedBy returns every team whose manager is managerID,
		// rosters included. Called once per scope resolution, never per record.
		ListTeamsManagedBy(ctx context.Context, managerID int64) ([]core.Team, error)
		// ListTeamsForMember returns every team whose roster contains userID.
		ListTeamsForMember(ctx context.Context, userID int64) ([]core.Team, error)
	}

	CategoryStore interface {
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
		InsertCategory(ctx context.Context, c core.Category) (int64, error)
	}

	ExpenseStore interface {
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		InsertExpense(ctx context.Context, e core.Expense) (int64, error)
		// UpdateExpenseDraft rewrites the owner-editable fields (amount,
		// category, date, description) of a draft or rejected expense.
		UpdateExpenseDraft(ctx context.Context, e core.Expense) error
		// UpdateExpenseStatus is a compare-and-swap: the row is written only
		// if its status still equals from. A lost race yields
		// core.ConflictError; a missing row yields core.NotFoundError.
		// approverID and approvedAt are written as given (nil clears them).
		UpdateExpenseStatus(ctx context.Context, id int64, from, to core.Status, approverID *int64, approvedAt *time.Time) error
		// ListExpensesByOwner returns the owner's expenses with date in
		// [from, to] inclusive.
		ListExpensesByOwner(ctx context.Context, ownerID int64, from, to core.Date) ([]core.Expense, error)
		// ListExpensesByDateRange returns all expenses with date in
		// [from, to]; callers narrow the set with a scope predicate.
		ListExpensesByDateRange(ctx context.Context, from, to core.Date) ([]core.Expense, error)
	}

	BudgetStore interface {
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		InsertBudget(ctx context.Context, b core.Budget) (int64, error)
		// DeactivateBudget flips is_active off; budgets are never hard-deleted.
		DeactivateBudget(ctx context.Context, id int64) error
		ListActiveBudgetsByOwner(ctx context.Context, ownerID int64) ([]core.Budget, error)
		ListActiveBudgets(ctx context.Context) ([]core.Budget, error)
		// SetBudgetAlertTier records the highest utilization tier already
		// notified for alert de-duplication.
		SetBudgetAlertTier(ctx context.Context, id int64, tier int) error
	}

	NotificationStore interface {
		// InsertNotification persists one row per recipient in n.UserIDs.
		InsertNotification(ctx context.Context, n core.Notification) error
		ListNotificationsForUser(ctx context.Context, userID int64, limit int) ([]core.StoredNotification, error)
	}
)

// Store is the composite port the binaries wire up.
type Store interface {
	ActorStore
	TeamStore
	CategoryStore
	ExpenseStore
	BudgetStore
	NotificationStore
}
