// Package source discovers and parses JSONL expense exports.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/pburn/internal/model"
)

// importNamespace seeds deterministic IDs for records exported without one.
var importNamespace = uuid.MustParse("6f1f7a52-3c0e-4c8e-9a53-2b1de0c4a8d1")

// ParseResult holds the output of parsing a single export file.
type ParseResult struct {
	Expenses    []ParsedExpense
	ParseErrors int
	Err         error
}

// ParsedExpense is an expense plus the project reference it was exported
// with. ProjectRef is an ID or a name; resolving it is the caller's job.
type ParsedExpense struct {
	ProjectRef string
	Expense    model.Expense
}

// ParseFile reads an export file. Malformed lines are counted and skipped.
// Records sharing an id are deduplicated, keeping the last one.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var (
		order       []string
		byID        = make(map[string]ParsedExpense)
		parseErrors int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		pe, err := ParseLine(line, df.Project)
		if err != nil {
			parseErrors++
			continue
		}
		if _, seen := byID[pe.Expense.ID]; !seen {
			order = append(order, pe.Expense.ID)
		}
		byID[pe.Expense.ID] = pe
	}
	if err := scanner.Err(); err != nil {
		return ParseResult{ParseErrors: parseErrors, Err: err}
	}

	out := make([]ParsedExpense, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return ParseResult{Expenses: out, ParseErrors: parseErrors}
}

// ParseLine decodes one export record. projectHint is used when the record
// names no project.
func ParseLine(line []byte, projectHint string) (ParsedExpense, error) {
	var raw RawExpense
	if err := json.Unmarshal(line, &raw); err != nil {
		return ParsedExpense{}, fmt.Errorf("decoding record: %w", err)
	}

	ref := raw.ProjectID
	if ref == "" {
		ref = raw.Project
	}
	if ref == "" {
		ref = projectHint
	}
	if ref == "" {
		return ParsedExpense{}, fmt.Errorf("record has no project")
	}
	if raw.Currency == "" {
		return ParsedExpense{}, fmt.Errorf("record has no currency")
	}
	if raw.Amount <= 0 {
		return ParsedExpense{}, fmt.Errorf("amount must be positive, got %v", float64(raw.Amount))
	}

	e := model.Expense{
		ID:          raw.ID,
		Amount:      float64(raw.Amount),
		Currency:    strings.ToUpper(raw.Currency),
		Category:    raw.Category,
		Description: raw.Description,
	}
	if raw.ConversionRate != nil {
		r := float64(*raw.ConversionRate)
		e.ConversionRate = &r
	}
	if raw.ConvertedAmount != nil {
		c := float64(*raw.ConvertedAmount)
		e.ConvertedAmount = &c
	}
	if raw.RecordedAt != "" {
		t, err := parseDate(raw.RecordedAt)
		if err != nil {
			return ParsedExpense{}, err
		}
		e.RecordedAt = t
	}
	if e.ID == "" {
		e.ID = uuid.NewSHA1(importNamespace, line).String()
	}

	return ParsedExpense{ProjectRef: ref, Expense: e}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid recorded_at %q", s)
	}
	return t, nil
}

// flexNum accepts 12.5, "12.5" and "12,5". Inf and NaN spellings are
// rejected.
type flexNum float64

func (n *flexNum) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("invalid number %s", b)
	}
	*n = flexNum(f)
	return nil
}
