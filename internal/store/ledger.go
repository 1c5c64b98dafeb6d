// Package store provides the SQLite-backed ledger of projects and expenses.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/pburn/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Sentinel errors returned (wrapped) by ledger operations.
var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid record")
	ErrDuplicate = errors.New("duplicate record")
)

// Ledger stores projects and their expenses.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at the given path.
func Open(dbPath string) (*Ledger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// CreateProject stores a new project. An empty ID is replaced by a fresh uuid.
func (l *Ledger) CreateProject(p model.Project) (model.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Name == "" {
		return p, fmt.Errorf("%w: project name is required", ErrInvalid)
	}
	if p.Currency == "" {
		return p, fmt.Errorf("%w: project currency is required", ErrInvalid)
	}
	if p.Budget < 0 || !isFinite(p.Budget) {
		return p, fmt.Errorf("%w: budget must be a non-negative number", ErrInvalid)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return p, fmt.Errorf("%w: end date before start date", ErrInvalid)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := l.db.Exec(`INSERT INTO projects
		(project_id, name, budget, currency, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Budget, p.Currency,
		formatOptTime(p.StartDate), formatOptTime(p.EndDate), formatTime(p.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return p, fmt.Errorf("%w: project %q already exists", ErrDuplicate, p.Name)
		}
		return p, fmt.Errorf("inserting project: %w", err)
	}
	return p, nil
}

const projectColumns = `project_id, name, budget, currency, start_date, end_date, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (model.Project, error) {
	var p model.Project
	var start, end sql.NullString
	var created string
	if err := row.Scan(&p.ID, &p.Name, &p.Budget, &p.Currency, &start, &end, &created); err != nil {
		return p, err
	}
	p.StartDate = parseOptTime(start)
	p.EndDate = parseOptTime(end)
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return p, nil
}

// GetProject returns the project with the given ID.
func (l *Ledger) GetProject(id string) (model.Project, error) {
	row := l.db.QueryRow("SELECT "+projectColumns+" FROM projects WHERE project_id = ?", id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, err
}

// FindProject looks a project up by ID, then by case-insensitive name.
func (l *Ledger) FindProject(idOrName string) (model.Project, error) {
	p, err := l.GetProject(idOrName)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return p, err
	}
	row := l.db.QueryRow("SELECT "+projectColumns+" FROM projects WHERE name = ? COLLATE NOCASE", idOrName)
	p, err = scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("project %q: %w", idOrName, ErrNotFound)
	}
	return p, err
}

// ListProjects returns every project ordered by name.
func (l *Ledger) ListProjects() ([]model.Project, error) {
	rows, err := l.db.Query("SELECT " + projectColumns + " FROM projects ORDER BY name COLLATE NOCASE")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and, by cascade, its expenses.
func (l *Ledger) DeleteProject(id string) error {
	res, err := l.db.Exec("DELETE FROM projects WHERE project_id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "project", id)
}

// AddExpense records an expense against an existing project. An empty ID is
// replaced by a fresh uuid; an existing ID yields ErrDuplicate and leaves the
// stored record untouched.
func (l *Ledger) AddExpense(e model.Expense) (model.Expense, error) {
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if e.Amount <= 0 || !isFinite(e.Amount) {
		return e, fmt.Errorf("%w: amount must be a positive number", ErrInvalid)
	}
	if e.Currency == "" {
		return e, fmt.Errorf("%w: currency is required", ErrInvalid)
	}
	if e.ConversionRate != nil && (*e.ConversionRate <= 0 || !isFinite(*e.ConversionRate)) {
		return e, fmt.Errorf("%w: conversion rate must be a positive number", ErrInvalid)
	}
	if e.ConvertedAmount != nil && (*e.ConvertedAmount < 0 || !isFinite(*e.ConvertedAmount)) {
		return e, fmt.Errorf("%w: converted amount must be a non-negative number", ErrInvalid)
	}
	if _, err := l.GetProject(e.ProjectID); err != nil {
		return e, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}

	res, err := l.db.Exec(`INSERT OR IGNORE INTO expenses
		(expense_id, project_id, amount, currency, conversion_rate, converted_amount,
		 category, description, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.Amount, e.Currency,
		nullFloat(e.ConversionRate), nullFloat(e.ConvertedAmount),
		e.Category, e.Description, formatTime(e.RecordedAt),
	)
	if err != nil {
		return e, fmt.Errorf("inserting expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return e, fmt.Errorf("expense %s: %w", e.ID, ErrDuplicate)
	}
	return e, nil
}

const expenseColumns = `expense_id, project_id, amount, currency, conversion_rate,
	converted_amount, category, description, recorded_at`

func scanExpense(row scanner) (model.Expense, error) {
	var e model.Expense
	var rate, converted sql.NullFloat64
	var category, description sql.NullString
	var recorded string
	err := row.Scan(&e.ID, &e.ProjectID, &e.Amount, &e.Currency, &rate, &converted,
		&category, &description, &recorded)
	if err != nil {
		return e, err
	}
	if rate.Valid {
		e.ConversionRate = &rate.Float64
	}
	if converted.Valid {
		e.ConvertedAmount = &converted.Float64
	}
	e.Category = category.String
	e.Description = description.String
	e.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
	return e, nil
}

// ListExpenses returns a project's expenses, oldest first.
func (l *Ledger) ListExpenses(projectID string) ([]model.Expense, error) {
	rows, err := l.db.Query("SELECT "+expenseColumns+
		" FROM expenses WHERE project_id = ? ORDER BY recorded_at, expense_id", projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return collectExpenses(rows)
}

// AllExpenses returns every expense grouped by project ID.
func (l *Ledger) AllExpenses() (map[string][]model.Expense, error) {
	rows, err := l.db.Query("SELECT " + expenseColumns + " FROM expenses ORDER BY recorded_at, expense_id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	all, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}
	byProject := make(map[string][]model.Expense)
	for _, e := range all {
		byProject[e.ProjectID] = append(byProject[e.ProjectID], e)
	}
	return byProject, nil
}

func collectExpenses(rows *sql.Rows) ([]model.Expense, error) {
	var out []model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteExpense removes one expense. Expenses have no update path.
func (l *Ledger) DeleteExpense(id string) error {
	res, err := l.db.Exec("DELETE FROM expenses WHERE expense_id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "expense", id)
}

// ExpenseCount returns the number of stored expenses.
func (l *Ledger) ExpenseCount() (int, error) {
	var count int
	err := l.db.QueryRow("SELECT COUNT(*) FROM expenses").Scan(&count)
	return count, err
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseOptTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
