// Package budget computes budget consumption for a project from its recorded
// expenses, converting every expense into the project's budget currency.
//
// Nothing in this package returns an error or panics. Unknown currency pairs
// convert at identity, a non-positive budget reports zero consumption,
// overruns surface as negative remaining amounts, and non-finite amounts
// saturate (see finite).
package budget

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/pburn/internal/currency"
	"github.com/theirongolddev/pburn/internal/model"
)

// Uncategorized labels expenses recorded without a category.
const Uncategorized = "uncategorized"

// Thresholds are the consumption percentages at which a budget changes tier.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds returns the stock 70% / 90% tiers.
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 70, Critical: 90}
}

// Classify maps a consumption percentage onto a status tier.
// Critical is checked first, so overlapping thresholds resolve upward.
func Classify(percent float64, t Thresholds) model.BudgetStatus {
	switch {
	case percent >= t.Critical:
		return model.StatusCritical
	case percent >= t.Warning:
		return model.StatusWarning
	default:
		return model.StatusOK
	}
}

// Normalize expresses one expense in budgetCurrency.
func Normalize(e model.Expense, budgetCurrency string, rates currency.RateTable) float64 {
	if e.ConvertedAmount != nil {
		return *e.ConvertedAmount
	}
	if e.Currency == budgetCurrency {
		return e.Amount
	}
	return e.Amount * rates.Resolve(e.Currency, budgetCurrency)
}

// Engine summarizes budgets. The zero value uses an empty rate table and
// zero thresholds; use NewEngine for the stock configuration.
type Engine struct {
	Rates      currency.RateTable
	Thresholds Thresholds
	// Logger receives a debug record per summary. Nil disables it.
	Logger *zap.Logger
}

// NewEngine returns an engine with the given rates and thresholds.
func NewEngine(rates currency.RateTable, t Thresholds) Engine {
	return Engine{Rates: rates, Thresholds: t}
}

// Summarize folds expenses into a budget summary. Expense order does not
// matter; amounts are accumulated in decimal so the result is exact at the
// tier boundaries.
func (e Engine) Summarize(initialBudget float64, budgetCurrency string, expenses []model.Expense) model.BudgetSummary {
	total := decimal.Zero
	saturated := 0
	for _, exp := range expenses {
		v := Normalize(exp, budgetCurrency, e.Rates)
		if v != finite(v) {
			saturated++
		}
		total = total.Add(decimal.NewFromFloat(finite(v)))
	}

	budget := decimal.NewFromFloat(finite(initialBudget))
	percent := decimal.Zero
	if budget.IsPositive() {
		percent = total.Div(budget).Mul(decimal.NewFromInt(100))
	}

	spent := toFloat(total)
	remaining := toFloat(budget.Sub(total))
	pct := toFloat(percent)

	s := model.BudgetSummary{
		InitialBudget:      initialBudget,
		BudgetCurrency:     budgetCurrency,
		TotalSpent:         spent,
		Remaining:          remaining,
		ConsumptionPercent: pct,
		Status:             Classify(pct, e.Thresholds),
		ExpenseCount:       len(expenses),
	}

	if e.Logger != nil && saturated > 0 {
		e.Logger.Warn("non-finite expense amounts saturated",
			zap.String("currency", budgetCurrency),
			zap.Int("expenses", saturated),
		)
	}
	if e.Logger != nil {
		e.Logger.Debug("budget summarized",
			zap.String("currency", budgetCurrency),
			zap.Int("expenses", len(expenses)),
			zap.Float64("spent", s.TotalSpent),
			zap.Float64("percent", s.ConsumptionPercent),
			zap.String("status", string(s.Status)),
		)
	}
	return s
}

// Breakdown totals expenses per category in budgetCurrency, largest first.
func (e Engine) Breakdown(budgetCurrency string, expenses []model.Expense) []model.CategoryTotal {
	type acc struct {
		total decimal.Decimal
		count int
	}
	byCat := make(map[string]*acc)
	for _, exp := range expenses {
		cat := exp.Category
		if cat == "" {
			cat = Uncategorized
		}
		a, ok := byCat[cat]
		if !ok {
			a = &acc{total: decimal.Zero}
			byCat[cat] = a
		}
		a.total = a.total.Add(decimal.NewFromFloat(finite(Normalize(exp, budgetCurrency, e.Rates))))
		a.count++
	}

	out := make([]model.CategoryTotal, 0, len(byCat))
	for cat, a := range byCat {
		amt := toFloat(a.total)
		out = append(out, model.CategoryTotal{Category: cat, Amount: amt, Count: a.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// UnresolvedCurrencies lists expense currencies that have no rate into
// budgetCurrency and will be counted at identity. Expenses carrying a
// converted amount are skipped since no lookup happens for them.
func (e Engine) UnresolvedCurrencies(budgetCurrency string, expenses []model.Expense) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, exp := range expenses {
		if exp.ConvertedAmount != nil || exp.Currency == budgetCurrency {
			continue
		}
		if e.Rates.Has(exp.Currency, budgetCurrency) {
			continue
		}
		if _, ok := seen[exp.Currency]; ok {
			continue
		}
		seen[exp.Currency] = struct{}{}
		out = append(out, exp.Currency)
	}
	sort.Strings(out)
	return out
}

// finite maps NaN to 0 and ±Inf to ±MaxFloat64. Conversion can overflow
// float64 even from finite inputs (1e308 EUR in JPY), and decimal cannot
// represent non-finite values.
func finite(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	default:
		return f
	}
}

// toFloat converts back to float64, saturating values beyond its range.
func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return finite(f)
}
