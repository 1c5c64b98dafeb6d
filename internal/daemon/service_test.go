package daemon

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/currency"
	"github.com/theirongolddev/pburn/internal/deadline"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/store"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeLedger struct {
	projects []model.Project
	expenses map[string][]model.Expense
}

func (f *fakeLedger) FindProject(ref string) (model.Project, error) {
	for _, p := range f.projects {
		if p.ID == ref || p.Name == ref {
			return p, nil
		}
	}
	return model.Project{}, store.ErrNotFound
}

func (f *fakeLedger) AddExpense(e model.Expense) (model.Expense, error) {
	f.expenses[e.ProjectID] = append(f.expenses[e.ProjectID], e)
	return e, nil
}

func (f *fakeLedger) ListProjects() ([]model.Project, error) { return f.projects, nil }

func (f *fakeLedger) AllExpenses() (map[string][]model.Expense, error) { return f.expenses, nil }

func newTestService(t *testing.T, l *fakeLedger) *Service {
	t.Helper()
	return New(Config{
		DBPath:       "test.db",
		Interval:     10 * time.Second,
		EventsBuffer: 50,
		Engine:       budget.NewEngine(currency.DefaultRates(), budget.DefaultThresholds()),
		Deadline:     deadline.DefaultThresholds(),
		Now:          func() time.Time { return fixedNow },
	}, l, nil, nil)
}

func report(id string, status model.BudgetStatus, sev model.Severity, overdue bool) model.ProjectReport {
	return model.ProjectReport{
		Project:  model.Project{ID: id, Name: id},
		Summary:  model.BudgetSummary{Status: status},
		Deadline: model.DeadlineAlert{Severity: sev, Overdue: overdue},
	}
}

func TestDiffReports(t *testing.T) {
	prev := []model.ProjectReport{
		report("a", model.StatusOK, model.SeverityInfo, false),
		report("b", model.StatusWarning, model.SeverityDanger, false),
		report("c", model.StatusOK, model.SeverityInfo, false),
	}
	curr := []model.ProjectReport{
		report("a", model.StatusWarning, model.SeverityInfo, false),
		report("b", model.StatusWarning, model.SeverityDanger, true),
		report("c", model.StatusOK, model.SeverityInfo, false),
		report("d", model.StatusCritical, model.SeverityInfo, false),
	}

	events := diffReports(prev, curr)

	type key struct{ typ, project string }
	got := make(map[key]*Change)
	for _, ev := range events {
		got[key{ev.Type, ev.Change.ProjectID}] = ev.Change
	}
	want := []key{
		{EventBudgetStatus, "a"},
		{EventDeadlineAlert, "b"},
		{EventBudgetStatus, "d"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for _, k := range want {
		if got[k] == nil {
			t.Fatalf("missing %s event for %s", k.typ, k.project)
		}
	}
	if c := got[key{EventBudgetStatus, "a"}]; c.PrevStatus != model.StatusOK || c.Status != model.StatusWarning {
		t.Fatalf("a transition = %s -> %s", c.PrevStatus, c.Status)
	}
	if c := got[key{EventBudgetStatus, "d"}]; c.PrevStatus != model.StatusOK {
		t.Fatalf("new project baseline = %q, want ok", c.PrevStatus)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	}, &fakeLedger{}, nil, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnceEmitsTransitions(t *testing.T) {
	soon := fixedNow.Add(4 * 24 * time.Hour)
	l := &fakeLedger{
		projects: []model.Project{{ID: "p1", Name: "website", Budget: 2000, Currency: "EUR", EndDate: &soon}},
		expenses: map[string][]model.Expense{
			"p1": {{ID: "e1", ProjectID: "p1", Amount: 1000, Currency: "EUR"}},
		},
	}
	s := newTestService(t, l)

	s.pollOnce()
	s.pollOnce()
	if st := s.snapshotStatus(); st.EventCount != 1 || st.PollCount != 2 {
		t.Fatalf("after idle polls: events=%d polls=%d, want 1 and 2", st.EventCount, st.PollCount)
	}
	if st := s.snapshotStatus(); st.Summary.OK != 1 || st.Summary.Projects != 1 {
		t.Fatalf("summary = %+v", st.Summary)
	}

	converted := 460.0
	l.expenses["p1"] = append(l.expenses["p1"], model.Expense{
		ID: "e2", ProjectID: "p1", Amount: 500, Currency: "USD", ConvertedAmount: &converted,
	})
	s.pollOnce()

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	if len(events) != 2 {
		t.Fatalf("events = %+v, want snapshot + budget_status", events)
	}
	ev := events[1]
	if ev.Type != EventBudgetStatus || ev.Change.Status != model.StatusWarning {
		t.Fatalf("second event = %+v", ev)
	}
	if ev.Change.ConsumptionPercent != 73 || ev.Change.Remaining != 540 {
		t.Fatalf("change = %+v, want 73%% / 540 remaining", ev.Change)
	}
	if ev.ID != 2 || ev.Snapshot.Warning != 1 {
		t.Fatalf("event id=%d snapshot=%+v", ev.ID, ev.Snapshot)
	}
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return resp.StatusCode, string(body)
}

func TestRouter(t *testing.T) {
	l := &fakeLedger{
		projects: []model.Project{
			{ID: "p1", Name: "website", Budget: 1000, Currency: "EUR"},
			{ID: "p2", Name: "mobile", Budget: 1000, Currency: "EUR"},
		},
		expenses: map[string][]model.Expense{
			"p1": {{ID: "e1", ProjectID: "p1", Amount: 950, Currency: "EUR"}},
		},
	}
	s := newTestService(t, l)
	s.pollOnce()

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	if code, body := get(t, srv, "/healthz"); code != http.StatusOK || body != "ok\n" {
		t.Fatalf("/healthz = %d %q", code, body)
	}

	code, body := get(t, srv, "/v1/status")
	if code != http.StatusOK {
		t.Fatalf("/v1/status = %d", code)
	}
	var st Status
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.Summary.Critical != 1 || st.Summary.OK != 1 || st.DBPath != "test.db" {
		t.Fatalf("status = %+v", st)
	}

	_, body = get(t, srv, "/v1/projects?status=critical")
	var reports []model.ProjectReport
	if err := json.Unmarshal([]byte(body), &reports); err != nil {
		t.Fatalf("decoding projects: %v", err)
	}
	if len(reports) != 1 || reports[0].Project.Name != "website" {
		t.Fatalf("critical projects = %+v", reports)
	}

	if code, _ := get(t, srv, "/v1/projects/mobile"); code != http.StatusOK {
		t.Fatalf("/v1/projects/mobile = %d", code)
	}
	if code, _ := get(t, srv, "/v1/projects/nope"); code != http.StatusNotFound {
		t.Fatalf("/v1/projects/nope = %d, want 404", code)
	}

	_, body = get(t, srv, "/v1/events")
	if !strings.Contains(body, `"type":"snapshot"`) {
		t.Fatalf("/v1/events = %s", body)
	}

	_, body = get(t, srv, "/metrics")
	if !strings.Contains(body, `pburn_budget_consumption_percent{project="website",status="critical"} 95`) {
		t.Fatalf("/metrics missing consumption gauge:\n%s", body)
	}
}
