// Package model defines the core data types for projects, expenses, and
// the budget and deadline state derived from them.
package model

import "time"

// Project is a budgeted unit of work.
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Budget    float64    `json:"budget"`
	Currency  string     `json:"currency"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expense is one recorded project cost. Expenses are immutable once stored;
// the only lifecycle operation after creation is deletion.
//
// When ConvertedAmount is set it was captured at recording time and is
// authoritative over any later conversion.
type Expense struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	ConversionRate  *float64  `json:"conversion_rate,omitempty"`
	ConvertedAmount *float64  `json:"converted_amount,omitempty"`
	Category        string    `json:"category,omitempty"`
	Description     string    `json:"description,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// ProjectReport bundles a project with everything derived from its expenses.
type ProjectReport struct {
	Project    Project         `json:"project"`
	Summary    BudgetSummary   `json:"summary"`
	Deadline   DeadlineAlert   `json:"deadline"`
	Categories []CategoryTotal `json:"categories,omitempty"`
}
