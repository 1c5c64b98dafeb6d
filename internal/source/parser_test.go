package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeExport creates a temp JSONL file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, project string, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "export.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Project: project}
}

func TestParseFile_Fields(t *testing.T) {
	df := writeExport(t, "",
		`{"id":"e1","project":"website","amount":500,"currency":"usd","conversion_rate":0.92,"converted_amount":460,"category":"travel","recorded_at":"2025-06-01T10:00:00Z"}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Expenses) != 1 {
		t.Fatalf("len = %d, want 1", len(result.Expenses))
	}

	pe := result.Expenses[0]
	if pe.ProjectRef != "website" {
		t.Errorf("ProjectRef = %q, want website", pe.ProjectRef)
	}
	e := pe.Expense
	if e.ID != "e1" || e.Amount != 500 || e.Currency != "USD" || e.Category != "travel" {
		t.Errorf("expense = %+v", e)
	}
	if e.ConvertedAmount == nil || *e.ConvertedAmount != 460 {
		t.Errorf("ConvertedAmount = %v, want 460", e.ConvertedAmount)
	}
	if e.ConversionRate == nil || *e.ConversionRate != 0.92 {
		t.Errorf("ConversionRate = %v, want 0.92", e.ConversionRate)
	}
	want := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if !e.RecordedAt.Equal(want) {
		t.Errorf("RecordedAt = %v, want %v", e.RecordedAt, want)
	}
}

func TestParseFile_SkipsMalformed(t *testing.T) {
	df := writeExport(t, "hinted",
		`{"id":"ok1","amount":10,"currency":"EUR"}`,
		`not json`,
		`{"id":"neg","amount":-3,"currency":"EUR"}`,
		`{"id":"nocur","amount":3}`,
		`{"id":"baddate","amount":3,"currency":"EUR","recorded_at":"yesterday"}`,
		``,
		`# comment`,
		`{"id":"ok2","amount":"12,50","currency":"EUR","recorded_at":"2025-01-02"}`,
	)

	result := ParseFile(df)
	if result.ParseErrors != 4 {
		t.Errorf("ParseErrors = %d, want 4", result.ParseErrors)
	}
	if len(result.Expenses) != 2 {
		t.Fatalf("len = %d, want 2", len(result.Expenses))
	}
	if result.Expenses[0].ProjectRef != "hinted" {
		t.Errorf("ProjectRef = %q, want directory hint", result.Expenses[0].ProjectRef)
	}
	if got := result.Expenses[1].Expense.Amount; got != 12.5 {
		t.Errorf("quoted amount = %v, want 12.5", got)
	}
}

func TestParseFile_DedupKeepsLast(t *testing.T) {
	df := writeExport(t, "p",
		`{"id":"e1","amount":10,"currency":"EUR"}`,
		`{"id":"e2","amount":20,"currency":"EUR"}`,
		`{"id":"e1","amount":15,"currency":"EUR"}`,
	)

	result := ParseFile(df)
	if len(result.Expenses) != 2 {
		t.Fatalf("len = %d, want 2 (dedup)", len(result.Expenses))
	}
	if result.Expenses[0].Expense.ID != "e1" || result.Expenses[0].Expense.Amount != 15 {
		t.Errorf("first = %+v, want e1 with last amount 15", result.Expenses[0].Expense)
	}
}

func TestParseLine_DeterministicIDWithoutID(t *testing.T) {
	line := []byte(`{"project":"p","amount":10,"currency":"EUR"}`)
	a, err := ParseLine(line, "")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := ParseLine(line, "")
	if a.Expense.ID == "" || a.Expense.ID != b.Expense.ID {
		t.Fatalf("IDs %q / %q, want equal and non-empty", a.Expense.ID, b.Expense.ID)
	}
}

func TestParseLine_NoProject(t *testing.T) {
	if _, err := ParseLine([]byte(`{"amount":10,"currency":"EUR"}`), ""); err == nil {
		t.Fatal("expected error for record without project")
	}
}

func TestParseLine_RejectsNonFiniteNumbers(t *testing.T) {
	tests := []string{
		`{"project":"p","amount":"Inf","currency":"EUR"}`,
		`{"project":"p","amount":"-Infinity","currency":"EUR"}`,
		`{"project":"p","amount":"NaN","currency":"EUR"}`,
		`{"project":"p","amount":10,"currency":"EUR","converted_amount":"NaN"}`,
		`{"project":"p","amount":10,"currency":"EUR","conversion_rate":"+Inf"}`,
	}
	for _, line := range tests {
		if pe, err := ParseLine([]byte(line), ""); err == nil {
			t.Errorf("ParseLine(%s) = %+v, want error", line, pe.Expense)
		}
	}
}

func TestParseFile_CountsNonFiniteAsParseErrors(t *testing.T) {
	df := writeExport(t, "p",
		`{"id":"ok","amount":10,"currency":"EUR"}`,
		`{"id":"bad","amount":"Inf","currency":"EUR"}`,
	)
	res := ParseFile(df)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if len(res.Expenses) != 1 || res.ParseErrors != 1 {
		t.Fatalf("got %d expenses, %d parse errors; want 1 and 1", len(res.Expenses), res.ParseErrors)
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel string) {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("top.jsonl")
	mustWrite("website/march.jsonl")
	mustWrite("website/.partial.jsonl")
	mustWrite("notes.txt")

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %+v, want 2", files)
	}
	if files[0].Project != "" || filepath.Base(files[0].Path) != "top.jsonl" {
		t.Errorf("first = %+v", files[0])
	}
	if files[1].Project != "website" {
		t.Errorf("second project = %q, want website", files[1].Project)
	}

	missing, err := ScanDir(filepath.Join(dir, "absent"))
	if err != nil || missing != nil {
		t.Fatalf("ScanDir(absent) = %v, %v; want nil, nil", missing, err)
	}
}
