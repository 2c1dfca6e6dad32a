package http

import (
	"time"

	"expensehub/internal/core"
)

// Amounts cross the wire as decimal strings ("120.50"); cents never leak
// into the API.

type expenseRequest struct {
	CategoryID  int64     `json:"category_id"`
	Amount      string    `json:"amount"`
	Date        core.Date `json:"date"`
	Description string    `json:"description"`
	TeamID      *int64    `json:"team_id,omitempty"`
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	amount, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, &core.InvalidInputError{Field: "amount", Reason: err.Error()}
	}
	return core.Expense{
		CategoryID:  req.CategoryID,
		Amount:      core.Money{Cents: amount},
		Date:        req.Date,
		Description: req.Description,
		TeamID:      req.TeamID,
	}, nil
}

type expenseResponse struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	CategoryID  int64      `json:"category_id"`
	Amount      string     `json:"amount"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	ApproverID  *int64     `json:"approver_id,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	TeamID      *int64     `json:"team_id,omitempty"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		CategoryID:  e.CategoryID,
		Amount:      e.Amount.String(),
		Date:        e.Date,
		Description: e.Description,
		Status:      string(e.Status),
		ApproverID:  e.ApproverID,
		ApprovedAt:  e.ApprovedAt,
		TeamID:      e.TeamID,
	}
}

func toExpenseResponses(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	return out
}

type budgetRequest struct {
	OwnerID        int64     `json:"owner_id,omitempty"`
	CategoryID     *int64    `json:"category_id,omitempty"`
	Amount         string    `json:"amount"`
	Period         string    `json:"period"`
	StartDate      core.Date `json:"start_date"`
	EndDate        core.Date `json:"end_date"`
	AlertThreshold float64   `json:"alert_threshold"`
}

func (req budgetRequest) toBudget() (core.Budget, error) {
	amount, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Budget{}, &core.InvalidInputError{Field: "amount", Reason: err.Error()}
	}
	return core.Budget{
		OwnerID:        req.OwnerID,
		CategoryID:     req.CategoryID,
		Amount:         core.Money{Cents: amount},
		Period:         core.Period(req.Period),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		AlertThreshold: req.AlertThreshold,
		IsActive:       true,
	}, nil
}

type budgetResponse struct {
	ID             int64     `json:"id"`
	OwnerID        int64     `json:"owner_id"`
	CategoryID     *int64    `json:"category_id,omitempty"`
	Amount         string    `json:"amount"`
	Period         string    `json:"period"`
	StartDate      core.Date `json:"start_date"`
	EndDate        core.Date `json:"end_date"`
	AlertThreshold float64   `json:"alert_threshold"`
	IsActive       bool      `json:"is_active"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:             b.ID,
		OwnerID:        b.OwnerID,
		CategoryID:     b.CategoryID,
		Amount:         b.Amount.String(),
		Period:         string(b.Period),
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		AlertThreshold: b.AlertThreshold,
		IsActive:       b.IsActive,
	}
}

type utilizationResponse struct {
	BudgetID       int64   `json:"budget_id"`
	Spent          string  `json:"spent"`
	Remaining      string  `json:"remaining"`
	UtilizationPct float64 `json:"utilization_pct"`
	AlertTriggered bool    `json:"alert_triggered"`
	IsOverBudget   bool    `json:"is_over_budget"`
}

func toUtilizationResponse(u core.BudgetUtilization) utilizationResponse {
	return utilizationResponse{
		BudgetID:       u.BudgetID,
		Spent:          u.Spent.String(),
		Remaining:      u.Remaining.String(),
		UtilizationPct: u.UtilizationPct,
		AlertTriggered: u.AlertTriggered,
		IsOverBudget:   u.IsOverBudget,
	}
}

type breakdownEntryResponse struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Amount       string  `json:"amount"`
	Count        int     `json:"count"`
	Percentage   float64 `json:"percentage"`
}

type monthPointResponse struct {
	Month  string `json:"month"`
	Amount string `json:"amount"`
	Count  int    `json:"count"`
}

type budgetVsActualResponse struct {
	BudgetAmount string  `json:"budget_amount"`
	ActualAmount string  `json:"actual_amount"`
	Variance     string  `json:"variance"`
	VariancePct  float64 `json:"variance_pct"`
}

type summaryResponse struct {
	TotalAmount       string                   `json:"total_amount"`
	ExpenseCount      int                      `json:"expense_count"`
	AvgExpense        float64                  `json:"avg_expense"`
	CategoryBreakdown []breakdownEntryResponse `json:"category_breakdown"`
	MonthlyTrend      []monthPointResponse     `json:"monthly_trend"`
	BudgetVsActual    budgetVsActualResponse   `json:"budget_vs_actual"`
}

func toSummaryResponse(s core.AnalyticsSummary) summaryResponse {
	breakdown := make([]breakdownEntryResponse, len(s.CategoryBreakdown))
	for i, e := range s.CategoryBreakdown {
		breakdown[i] = breakdownEntryResponse{
			CategoryID:   e.CategoryID,
			CategoryName: e.CategoryName,
			Amount:       e.Amount.String(),
			Count:        e.Count,
			Percentage:   e.Percentage,
		}
	}
	trend := make([]monthPointResponse, len(s.MonthlyTrend))
	for i, p := range s.MonthlyTrend {
		trend[i] = monthPointResponse{
			Month:  p.Month,
			Amount: p.Amount.String(),
			Count:  p.Count,
		}
	}
	return summaryResponse{
		TotalAmount:       s.TotalAmount.String(),
		ExpenseCount:      s.ExpenseCount,
		AvgExpense:        s.AvgExpense,
		CategoryBreakdown: breakdown,
		MonthlyTrend:      trend,
		BudgetVsActual: budgetVsActualResponse{
			BudgetAmount: s.BudgetVsActual.BudgetAmount.String(),
			ActualAmount: s.BudgetVsActual.ActualAmount.String(),
			Variance:     s.BudgetVsActual.Variance.String(),
			VariancePct:  s.BudgetVsActual.VariancePct,
		},
	}
}

type categoryRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type categoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
	IsActive bool   `json:"is_active"`
}

type actorRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type teamRequest struct {
	Name      string  `json:"name"`
	ManagerID int64   `json:"manager_id"`
	MemberIDs []int64 `json:"member_ids"`
}

type notificationResponse struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}
