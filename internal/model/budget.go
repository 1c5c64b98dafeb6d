package model

// BudgetStatus classifies how much of a budget has been consumed.
type BudgetStatus string

// Budget status tiers, from healthy to exhausted.
const (
	StatusOK       BudgetStatus = "ok"
	StatusWarning  BudgetStatus = "warning"
	StatusCritical BudgetStatus = "critical"
)

// BudgetSummary is the derived budget state of one project. It is recomputed
// on demand and never persisted.
//
// Remaining is always InitialBudget - TotalSpent and goes negative on overrun.
type BudgetSummary struct {
	InitialBudget      float64      `json:"initial_budget"`
	BudgetCurrency     string       `json:"budget_currency"`
	TotalSpent         float64      `json:"total_spent"`
	Remaining          float64      `json:"remaining"`
	ConsumptionPercent float64      `json:"consumption_percent"`
	Status             BudgetStatus `json:"status"`
	ExpenseCount       int          `json:"expense_count"`
}

// Overrun reports whether spending exceeded the budget.
func (s BudgetSummary) Overrun() bool {
	return s.Remaining < 0
}

// CategoryTotal is the spend of one expense category in budget currency.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}
