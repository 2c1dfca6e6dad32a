package services

import (
	"context"
	"sync"

	"expensehub/internal/core"
	"expensehub/internal/store/memory"
)

// recordingNotifier captures enqueued notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []core.Notification
	fail  error
}

func (n *recordingNotifier) Enqueue(_ context.Context, notif core.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, notif)
	return nil
}

func (n *recordingNotifier) byType(t core.NotificationType) []core.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []core.Notification
	for _, s := range n.sent {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// fixture wires the services against a seeded in-memory store:
// admin (1), manager (2) of team "field" with members {3, 4}, plain users
// alice (3), bob (4), and loner carol (5) outside any team.
type fixture struct {
	store     *memory.Store
	notifier  *recordingNotifier
	vis       *VisibilityService
	budgets   *BudgetService
	lifecycle *LifecycleService
	analytics *AnalyticsService

	admin, manager, alice, bob, carol int64
	teamID                            int64
	travelCat, officeCat, mealsCat    int64
}

func newFixture() *fixture {
	st := memory.New()
	ctx := context.Background()

	f := &fixture{store: st, notifier: &recordingNotifier{}}

	f.admin = st.PutActor(core.Actor{Name: "root", Role: core.RoleAdmin}).ID
	f.manager = st.PutActor(core.Actor{Name: "meredith", Role: core.RoleManager}).ID
	f.alice = st.PutActor(core.Actor{Name: "alice", Role: core.RoleUser}).ID
	f.bob = st.PutActor(core.Actor{Name: "bob", Role: core.RoleUser}).ID
	f.carol = st.PutActor(core.Actor{Name: "carol", Role: core.RoleUser}).ID

	f.teamID = st.PutTeam(core.Team{
		Name:      "field",
		ManagerID: f.manager,
		MemberIDs: []int64{f.alice, f.bob},
	}).ID

	f.travelCat, _ = st.InsertCategory(ctx, core.Category{Name: "Travel", IsActive: true})
	f.officeCat, _ = st.InsertCategory(ctx, core.Category{Name: "Office", IsActive: true})
	f.mealsCat, _ = st.InsertCategory(ctx, core.Category{Name: "Meals", IsActive: true})

	f.vis = NewVisibilityService(st, st)
	f.budgets = NewBudgetService(st, st, f.notifier)
	f.lifecycle = NewLifecycleService(st, f.vis, f.budgets, f.notifier)
	f.analytics = NewAnalyticsService(st, st, st, f.vis)
	return f
}

// expense seeds an expense row directly in the store, bypassing the
// lifecycle, for read-path tests.
func (f *fixture) expense(ownerID, categoryID int64, cents int64, date core.Date, status core.Status) int64 {
	id, _ := f.store.InsertExpense(context.Background(), core.Expense{
		OwnerID:     ownerID,
		CategoryID:  categoryID,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: "seeded",
		Status:      status,
	})
	return id
}

func (f *fixture) budget(ownerID int64, categoryID *int64, cents int64, threshold float64, from, to core.Date) int64 {
	id, _ := f.store.InsertBudget(context.Background(), core.Budget{
		OwnerID:        ownerID,
		CategoryID:     categoryID,
		Amount:         core.Money{Cents: cents},
		Period:         core.PeriodMonthly,
		StartDate:      from,
		EndDate:        to,
		AlertThreshold: threshold,
		IsActive:       true,
	})
	return id
}

func catPtr(id int64) *int64 { return &id }
