package store

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/pburn/internal/model"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func mustProject(t *testing.T, l *Ledger, name string) model.Project {
	t.Helper()
	p, err := l.CreateProject(model.Project{Name: name, Budget: 2000, Currency: "eur"})
	if err != nil {
		t.Fatalf("CreateProject(%s): %v", name, err)
	}
	return p
}

func TestCreateAndFindProject(t *testing.T) {
	l := openTestLedger(t)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	p, err := l.CreateProject(model.Project{Name: " Website ", Budget: 5000, Currency: "usd", EndDate: &end})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.ID == "" || p.Name != "Website" || p.Currency != "USD" {
		t.Fatalf("project not normalized: %+v", p)
	}

	byName, err := l.FindProject("website")
	if err != nil {
		t.Fatalf("FindProject by name: %v", err)
	}
	if byName.ID != p.ID {
		t.Fatalf("FindProject returned %s, want %s", byName.ID, p.ID)
	}
	if byName.EndDate == nil || !byName.EndDate.Equal(end) {
		t.Fatalf("EndDate = %v, want %v", byName.EndDate, end)
	}

	if _, err := l.FindProject("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindProject(nope) err = %v, want ErrNotFound", err)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	l := openTestLedger(t)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	tests := []model.Project{
		{Name: "", Budget: 1, Currency: "EUR"},
		{Name: "x", Budget: 1, Currency: ""},
		{Name: "x", Budget: -1, Currency: "EUR"},
		{Name: "x", Budget: math.Inf(1), Currency: "EUR"},
		{Name: "x", Budget: math.NaN(), Currency: "EUR"},
		{Name: "x", Budget: 1, Currency: "EUR", StartDate: &start, EndDate: &end},
	}
	for i, p := range tests {
		if _, err := l.CreateProject(p); !errors.Is(err, ErrInvalid) {
			t.Errorf("case %d: err = %v, want ErrInvalid", i, err)
		}
	}

	mustProject(t, l, "dup")
	if _, err := l.CreateProject(model.Project{Name: "dup", Currency: "EUR"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate name err = %v, want ErrDuplicate", err)
	}
}

func TestAddExpenseRoundTrip(t *testing.T) {
	l := openTestLedger(t)
	p := mustProject(t, l, "alpha")

	converted := 460.0
	rate := 0.92
	recorded := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	e, err := l.AddExpense(model.Expense{
		ProjectID:       p.ID,
		Amount:          500,
		Currency:        "usd",
		ConversionRate:  &rate,
		ConvertedAmount: &converted,
		Category:        "travel",
		RecordedAt:      recorded,
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if _, err := l.AddExpense(model.Expense{ProjectID: p.ID, Amount: 1000, Currency: "EUR"}); err != nil {
		t.Fatalf("AddExpense plain: %v", err)
	}

	got, err := l.ListExpenses(p.ID)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	first := got[0]
	if first.ID != e.ID || first.Currency != "USD" || first.Category != "travel" {
		t.Fatalf("first expense = %+v", first)
	}
	if first.ConvertedAmount == nil || *first.ConvertedAmount != 460 {
		t.Fatalf("ConvertedAmount = %v, want 460", first.ConvertedAmount)
	}
	if first.ConversionRate == nil || *first.ConversionRate != 0.92 {
		t.Fatalf("ConversionRate = %v, want 0.92", first.ConversionRate)
	}
	if got[1].ConvertedAmount != nil {
		t.Fatalf("plain expense ConvertedAmount = %v, want nil", *got[1].ConvertedAmount)
	}
	if !first.RecordedAt.Equal(recorded) {
		t.Fatalf("RecordedAt = %v, want %v", first.RecordedAt, recorded)
	}
}

func TestAddExpenseRejects(t *testing.T) {
	l := openTestLedger(t)
	p := mustProject(t, l, "alpha")
	zero := 0.0
	inf := math.Inf(1)
	nan := math.NaN()
	negative := -1.0

	tests := []struct {
		name string
		e    model.Expense
		want error
	}{
		{"zero amount", model.Expense{ProjectID: p.ID, Amount: 0, Currency: "EUR"}, ErrInvalid},
		{"negative amount", model.Expense{ProjectID: p.ID, Amount: -5, Currency: "EUR"}, ErrInvalid},
		{"no currency", model.Expense{ProjectID: p.ID, Amount: 5}, ErrInvalid},
		{"zero rate", model.Expense{ProjectID: p.ID, Amount: 5, Currency: "EUR", ConversionRate: &zero}, ErrInvalid},
		{"infinite amount", model.Expense{ProjectID: p.ID, Amount: inf, Currency: "EUR"}, ErrInvalid},
		{"NaN amount", model.Expense{ProjectID: p.ID, Amount: nan, Currency: "EUR"}, ErrInvalid},
		{"infinite rate", model.Expense{ProjectID: p.ID, Amount: 5, Currency: "EUR", ConversionRate: &inf}, ErrInvalid},
		{"NaN converted", model.Expense{ProjectID: p.ID, Amount: 5, Currency: "EUR", ConvertedAmount: &nan}, ErrInvalid},
		{"infinite converted", model.Expense{ProjectID: p.ID, Amount: 5, Currency: "EUR", ConvertedAmount: &inf}, ErrInvalid},
		{"negative converted", model.Expense{ProjectID: p.ID, Amount: 5, Currency: "EUR", ConvertedAmount: &negative}, ErrInvalid},
		{"unknown project", model.Expense{ProjectID: "missing", Amount: 5, Currency: "EUR"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.AddExpense(tt.e); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddExpenseDuplicateIDKeepsOriginal(t *testing.T) {
	l := openTestLedger(t)
	p := mustProject(t, l, "alpha")

	if _, err := l.AddExpense(model.Expense{ID: "e1", ProjectID: p.ID, Amount: 10, Currency: "EUR"}); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	_, err := l.AddExpense(model.Expense{ID: "e1", ProjectID: p.ID, Amount: 99, Currency: "EUR"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	got, _ := l.ListExpenses(p.ID)
	if len(got) != 1 || got[0].Amount != 10 {
		t.Fatalf("expenses = %+v, want the original single record", got)
	}
}

func TestDeleteCascadesAndReportsMissing(t *testing.T) {
	l := openTestLedger(t)
	a := mustProject(t, l, "alpha")
	b := mustProject(t, l, "beta")

	e, _ := l.AddExpense(model.Expense{ProjectID: a.ID, Amount: 10, Currency: "EUR"})
	_, _ = l.AddExpense(model.Expense{ProjectID: a.ID, Amount: 20, Currency: "EUR"})
	_, _ = l.AddExpense(model.Expense{ProjectID: b.ID, Amount: 30, Currency: "EUR"})

	if err := l.DeleteExpense(e.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := l.DeleteExpense(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeleteExpense err = %v, want ErrNotFound", err)
	}

	if err := l.DeleteProject(a.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	all, err := l.AllExpenses()
	if err != nil {
		t.Fatalf("AllExpenses: %v", err)
	}
	if len(all[a.ID]) != 0 || len(all[b.ID]) != 1 {
		t.Fatalf("AllExpenses after cascade = %v", all)
	}
	if n, _ := l.ExpenseCount(); n != 1 {
		t.Fatalf("ExpenseCount = %d, want 1", n)
	}
}

func TestListProjectsOrdered(t *testing.T) {
	l := openTestLedger(t)
	mustProject(t, l, "zeta")
	mustProject(t, l, "Alpha")
	mustProject(t, l, "mid")

	ps, err := l.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(ps) != 3 || ps[0].Name != "Alpha" || ps[2].Name != "zeta" {
		t.Fatalf("order = %v", ps)
	}
}
