package core

// BudgetUtilization is the result of evaluating one budget as of a date.
// It is a pure projection of the expense set; nothing here is accumulated.
type BudgetUtilization struct {
	BudgetID       int64
	Spent          Money
	Remaining      Money
	UtilizationPct float64
	AlertTriggered bool
	IsOverBudget   bool
}

// CategoryBreakdownEntry is one category's share of the aggregated total.
type CategoryBreakdownEntry struct {
	CategoryID   int64
	CategoryName string
	Amount       Money
	Count        int
	Percentage   float64
}

// MonthPoint is one month of the trend series, keyed "YYYY-MM". Months with
// no matching expenses are omitted, not zero-filled.
type MonthPoint struct {
	Month  string
	Amount Money
	Count  int
}

// BudgetVsActual compares visible active budgets overlapping the range with
// actual spend in the range.
type BudgetVsActual struct {
	BudgetAmount Money
	ActualAmount Money
	Variance     Money
	VariancePct  float64
}

// AnalyticsSummary is the full aggregation result for one actor and range.
type AnalyticsSummary struct {
	TotalAmount       Money
	ExpenseCount      int
	AvgExpense        float64
	CategoryBreakdown []CategoryBreakdownEntry
	MonthlyTrend      []MonthPoint
	BudgetVsActual    BudgetVsActual
}
