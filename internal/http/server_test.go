package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"expensehub/internal/core"
	"expensehub/internal/services"
	"expensehub/internal/store/memory"
	"expensehub/internal/worker"
)

type testEnv struct {
	server *Server
	store  *memory.Store

	admin, manager, alice int64
	travelCat             int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	env := &testEnv{store: st}
	env.admin = st.PutActor(core.Actor{Name: "root", Role: core.RoleAdmin}).ID
	env.manager = st.PutActor(core.Actor{Name: "meredith", Role: core.RoleManager}).ID
	env.alice = st.PutActor(core.Actor{Name: "alice", Role: core.RoleUser}).ID
	st.PutTeam(core.Team{Name: "field", ManagerID: env.manager, MemberIDs: []int64{env.alice}})
	env.travelCat, _ = st.InsertCategory(ctx, core.Category{Name: "Travel", IsActive: true})

	notifier := worker.NewLocalNotifier(st)
	vis := services.NewVisibilityService(st, st)
	budgets := services.NewBudgetService(st, st, notifier)
	lifecycle := services.NewLifecycleService(st, vis, budgets, notifier)
	analytics := services.NewAnalyticsService(st, st, st, vis)

	env.server = NewServer(":0", st, vis, lifecycle, budgets, analytics, 1000)
	t.Cleanup(func() { env.server.rateLimiter.stop() })
	return env
}

func (env *testEnv) do(t *testing.T, actorID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if actorID != 0 {
		req.Header.Set("X-Actor-ID", fmt.Sprintf("%d", actorID))
	}
	rec := httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestMissingActorHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, 0, http.MethodGet, "/api/expenses", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUnknownActorHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, 9999, http.MethodGet, "/api/expenses", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestExpenseLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	// alice drafts an expense
	rec := env.do(t, env.alice, http.MethodPost, "/api/expenses", expenseRequest{
		CategoryID:  env.travelCat,
		Amount:      "120.50",
		Date:        core.NewDate(2025, 3, 10),
		Description: "client visit",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[expenseResponse](t, rec)
	if created.Status != "draft" || created.Amount != "120.50" || created.OwnerID != env.alice {
		t.Fatalf("created = %+v", created)
	}

	// submit moves it to pending
	rec = env.do(t, env.alice, http.MethodPost, fmt.Sprintf("/api/expenses/%d/submit", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[expenseResponse](t, rec); got.Status != "pending" {
		t.Fatalf("after submit: %+v", got)
	}

	// the manager approves
	rec = env.do(t, env.manager, http.MethodPost, fmt.Sprintf("/api/expenses/%d/approve", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status = %d, body %s", rec.Code, rec.Body.String())
	}
	approved := decodeBody[expenseResponse](t, rec)
	if approved.Status != "approved" || approved.ApproverID == nil || *approved.ApproverID != env.manager {
		t.Fatalf("after approve: %+v", approved)
	}

	// a second approve hits the lifecycle guard
	rec = env.do(t, env.manager, http.MethodPost, fmt.Sprintf("/api/expenses/%d/approve", created.ID), nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("re-approve: status = %d, want 422", rec.Code)
	}

	// only admins mark paid
	rec = env.do(t, env.manager, http.MethodPost, fmt.Sprintf("/api/expenses/%d/pay", created.ID), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("manager pay: status = %d, want 403", rec.Code)
	}
	rec = env.do(t, env.admin, http.MethodPost, fmt.Sprintf("/api/expenses/%d/pay", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin pay: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestGetExpenseOutsideScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	outsider := env.store.PutActor(core.Actor{Name: "carol", Role: core.RoleUser}).ID
	id, _ := env.store.InsertExpense(ctx, core.Expense{
		OwnerID:     env.alice,
		CategoryID:  env.travelCat,
		Amount:      core.Money{Cents: 1000},
		Date:        core.NewDate(2025, 3, 10),
		Description: "seeded",
		Status:      core.StatusDraft,
	})

	rec := env.do(t, outsider, http.MethodGet, fmt.Sprintf("/api/expenses/%d", id), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	rec = env.do(t, env.manager, http.MethodGet, fmt.Sprintf("/api/expenses/%d", id), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("manager read: status = %d, want 200", rec.Code)
	}
}

func TestGetExpenseNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.alice, http.MethodGet, "/api/expenses/424242", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCreateExpenseRejectsBadAmount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.alice, http.MethodPost, "/api/expenses", expenseRequest{
		CategoryID:  env.travelCat,
		Amount:      "12.3.4",
		Date:        core.NewDate(2025, 3, 10),
		Description: "broken",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBudgetUtilizationEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.store.InsertExpense(ctx, core.Expense{
		OwnerID:     env.alice,
		CategoryID:  env.travelCat,
		Amount:      core.Money{Cents: 8000},
		Date:        core.NewDate(2025, 3, 5),
		Description: "seeded",
		Status:      core.StatusApproved,
	})

	rec := env.do(t, env.alice, http.MethodPost, "/api/budgets", budgetRequest{
		CategoryID:     &env.travelCat,
		Amount:         "100.00",
		Period:         "monthly",
		StartDate:      core.NewDate(2025, 3, 1),
		EndDate:        core.NewDate(2025, 3, 31),
		AlertThreshold: 75,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: status = %d, body %s", rec.Code, rec.Body.String())
	}
	budget := decodeBody[budgetResponse](t, rec)

	rec = env.do(t, env.alice, http.MethodGet,
		fmt.Sprintf("/api/budgets/%d/utilization?as_of=2025-03-31", budget.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("utilization: status = %d, body %s", rec.Code, rec.Body.String())
	}
	util := decodeBody[utilizationResponse](t, rec)
	if util.Spent != "80.00" || util.UtilizationPct != 80 || !util.AlertTriggered || util.IsOverBudget {
		t.Errorf("utilization = %+v", util)
	}

	// another plain user cannot read it
	outsider := env.store.PutActor(core.Actor{Name: "carol", Role: core.RoleUser}).ID
	rec = env.do(t, outsider, http.MethodGet,
		fmt.Sprintf("/api/budgets/%d/utilization", budget.ID), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider utilization: status = %d, want 403", rec.Code)
	}
}

func TestAnalyticsSummaryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.store.InsertExpense(ctx, core.Expense{
		OwnerID:     env.alice,
		CategoryID:  env.travelCat,
		Amount:      core.Money{Cents: 15000},
		Date:        core.NewDate(2025, 3, 3),
		Description: "seeded",
		Status:      core.StatusApproved,
	})

	rec := env.do(t, env.admin, http.MethodGet, "/api/analytics/summary?from=2025-03-01&to=2025-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status = %d, body %s", rec.Code, rec.Body.String())
	}
	sum := decodeBody[summaryResponse](t, rec)
	if sum.TotalAmount != "150.00" || sum.ExpenseCount != 1 {
		t.Errorf("summary = %+v", sum)
	}

	rec = env.do(t, env.admin, http.MethodGet, "/api/analytics/summary?from=2025-04-01&to=2025-03-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range: status = %d, want 400", rec.Code)
	}
}

func TestCategoryAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)

	// non-admin rejected
	rec := env.do(t, env.alice, http.MethodPost, "/api/categories", categoryRequest{Name: "Meals"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user create category: status = %d, want 403", rec.Code)
	}

	rec = env.do(t, env.admin, http.MethodPost, "/api/categories", categoryRequest{Name: "Meals"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: status = %d, body %s", rec.Code, rec.Body.String())
	}
	parent := decodeBody[categoryResponse](t, rec)

	rec = env.do(t, env.admin, http.MethodPost, "/api/categories", categoryRequest{
		Name: "Client dinners", ParentID: &parent.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create child category: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// unknown parent rejected
	bogus := int64(9999)
	rec = env.do(t, env.admin, http.MethodPost, "/api/categories", categoryRequest{
		Name: "Orphan", ParentID: &bogus,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("orphan category: status = %d, want 404", rec.Code)
	}

	rec = env.do(t, env.alice, http.MethodGet, "/api/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list categories: status = %d", rec.Code)
	}
	cats := decodeBody[[]categoryResponse](t, rec)
	if len(cats) != 3 {
		t.Errorf("got %d categories, want 3", len(cats))
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// drive a submit so the manager gets an approval request
	rec := env.do(t, env.alice, http.MethodPost, "/api/expenses", expenseRequest{
		CategoryID:  env.travelCat,
		Amount:      "50.00",
		Date:        core.NewDate(2025, 3, 10),
		Description: "taxi",
	})
	created := decodeBody[expenseResponse](t, rec)
	env.do(t, env.alice, http.MethodPost, fmt.Sprintf("/api/expenses/%d/submit", created.ID), nil)

	rec = env.do(t, env.manager, http.MethodGet, "/api/notifications", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list notifications: status = %d", rec.Code)
	}
	rows := decodeBody[[]notificationResponse](t, rec)
	if len(rows) != 1 || rows[0].Type != string(core.NotifyApprovalRequest) {
		t.Errorf("manager notifications = %+v", rows)
	}
}
