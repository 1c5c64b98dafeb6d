// Package daemon provides the long-running budget monitor service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/deadline"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/observability"
	"github.com/theirongolddev/pburn/internal/pipeline"
)

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventBudgetStatus  = "budget_status"
	EventDeadlineAlert = "deadline_alert"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DBPath       string
	InboxDir     string
	Interval     time.Duration
	Addr         string
	EventsBuffer int

	Engine   budget.Engine
	Deadline deadline.Thresholds

	// Now is the clock used for deadline evaluation. Defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a compact portfolio state for status/event payloads.
type Snapshot struct {
	At       time.Time `json:"at"`
	Projects int       `json:"projects"`
	OK       int       `json:"ok"`
	Warning  int       `json:"warning"`
	Critical int       `json:"critical"`
	Overdue  int       `json:"overdue"`
	// DueSoon counts projects whose deadline severity is danger but not yet overdue.
	DueSoon int `json:"due_soon"`
}

// Change describes one project's transition between polls.
type Change struct {
	ProjectID          string              `json:"project_id"`
	Name               string              `json:"name"`
	PrevStatus         model.BudgetStatus  `json:"prev_status,omitempty"`
	Status             model.BudgetStatus  `json:"status"`
	ConsumptionPercent float64             `json:"consumption_percent"`
	Remaining          float64             `json:"remaining"`
	Currency           string              `json:"currency"`
	PrevSeverity       model.Severity      `json:"prev_severity,omitempty"`
	Deadline           model.DeadlineAlert `json:"deadline"`
}

// Event is emitted on the first poll and whenever a project changes tier.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Change    *Change   `json:"change,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DBPath          string    `json:"db_path"`
	InboxDir        string    `json:"inbox_dir,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	ledger  pipeline.Ledger
	logger  *zap.Logger
	metrics *observability.Metrics

	// pollMu serializes polls triggered by the ticker and the inbox watcher.
	pollMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	reports     []model.ProjectReport
	nextEventID int64
	events      []Event
	warnedPairs map[string]struct{}

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service reading from l.
func New(cfg Config, l pipeline.Ledger, logger *zap.Logger, metrics *observability.Metrics) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Engine.Thresholds == (budget.Thresholds{}) {
		cfg.Engine.Thresholds = budget.DefaultThresholds()
	}
	if cfg.Deadline == (deadline.Thresholds{}) {
		cfg.Deadline = deadline.DefaultThresholds()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	return &Service{
		cfg:         cfg,
		ledger:      l,
		logger:      logger,
		metrics:     metrics,
		startedAt:   cfg.Now(),
		warnedPairs: make(map[string]struct{}),
		subs:        make(map[int]chan Event),
	}
}

// Run starts the HTTP endpoints, the poll loop and, when an inbox directory
// is configured, the inbox watcher. It returns when ctx is canceled or any
// of them fails.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("daemon listening", zap.String("addr", s.cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce()
			}
		}
	})

	if s.cfg.InboxDir != "" {
		g.Go(func() error {
			return s.watchInbox(gctx)
		})
	}

	return g.Wait()
}

func (s *Service) pollOnce() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	start := time.Now()
	reports, err := s.loadReports()
	s.metrics.RecordPoll(time.Since(start).Seconds(), err)

	now := s.cfg.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.logger.Error("daemon poll failed", zap.Error(err))
		return
	}
	s.metrics.ObserveReports(reports)

	snap := snapshotFromReports(reports, now)

	var pending []Event

	s.mu.Lock()
	prev := s.reports
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.reports = reports
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		pending = append(pending, Event{Type: EventSnapshot, Snapshot: snap})
	} else {
		for _, ev := range diffReports(prev, reports) {
			ev.Snapshot = snap
			pending = append(pending, ev)
		}
	}
	for i := range pending {
		s.nextEventID++
		pending[i].ID = s.nextEventID
		pending[i].Timestamp = now
	}
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ev)
	}
}

func (s *Service) loadReports() ([]model.ProjectReport, error) {
	projects, err := s.ledger.ListProjects()
	if err != nil {
		return nil, err
	}
	expenses, err := s.ledger.AllExpenses()
	if err != nil {
		return nil, err
	}

	for _, p := range projects {
		for _, code := range s.cfg.Engine.UnresolvedCurrencies(p.Currency, expenses[p.ID]) {
			s.warnUnresolved(code, p.Currency)
		}
	}

	eng := s.cfg.Engine
	eng.Logger = s.logger
	return pipeline.BuildReports(projects, expenses, eng, s.cfg.Deadline, s.cfg.Now()), nil
}

// warnUnresolved logs a missing rate once per pair for the process lifetime.
func (s *Service) warnUnresolved(from, to string) {
	key := from + "->" + to
	s.mu.Lock()
	_, seen := s.warnedPairs[key]
	s.warnedPairs[key] = struct{}{}
	s.mu.Unlock()
	if !seen {
		s.logger.Warn("no exchange rate, counting at face value",
			zap.String("from", from),
			zap.String("to", to),
		)
	}
}

func snapshotFromReports(reports []model.ProjectReport, at time.Time) Snapshot {
	snap := Snapshot{At: at, Projects: len(reports)}
	for _, r := range reports {
		switch r.Summary.Status {
		case model.StatusCritical:
			snap.Critical++
		case model.StatusWarning:
			snap.Warning++
		default:
			snap.OK++
		}
		switch {
		case r.Deadline.Overdue:
			snap.Overdue++
		case r.Deadline.Severity == model.SeverityDanger:
			snap.DueSoon++
		}
	}
	return snap
}

// diffReports returns one budget_status event per project whose status
// moved and one deadline_alert event per project whose severity or overdue
// flag moved. Projects absent from prev are compared against an ok/info
// baseline so a new project already in trouble is still announced.
func diffReports(prev, curr []model.ProjectReport) []Event {
	before := make(map[string]model.ProjectReport, len(prev))
	for _, r := range prev {
		before[r.Project.ID] = r
	}

	var events []Event
	for _, r := range curr {
		p, ok := before[r.Project.ID]
		if !ok {
			p.Summary.Status = model.StatusOK
			p.Deadline.Severity = model.SeverityInfo
		}

		if p.Summary.Status != r.Summary.Status {
			events = append(events, Event{
				Type:   EventBudgetStatus,
				Change: changeFor(p, r),
			})
		}
		if p.Deadline.Severity != r.Deadline.Severity || p.Deadline.Overdue != r.Deadline.Overdue {
			events = append(events, Event{
				Type:   EventDeadlineAlert,
				Change: changeFor(p, r),
			})
		}
	}
	return events
}

func changeFor(prev, curr model.ProjectReport) *Change {
	return &Change{
		ProjectID:          curr.Project.ID,
		Name:               curr.Project.Name,
		PrevStatus:         prev.Summary.Status,
		Status:             curr.Summary.Status,
		ConsumptionPercent: curr.Summary.ConsumptionPercent,
		Remaining:          curr.Summary.Remaining,
		Currency:           curr.Summary.BudgetCurrency,
		PrevSeverity:       prev.Deadline.Severity,
		Deadline:           curr.Deadline,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.metrics.RecordEvent(ev.Type)
	if ev.Change != nil {
		s.logger.Info("project changed",
			zap.String("event", ev.Type),
			zap.String("project", ev.Change.Name),
			zap.String("status", string(ev.Change.Status)),
			zap.String("severity", string(ev.Change.Deadline.Severity)),
		)
	}

	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DBPath:          s.cfg.DBPath,
		InboxDir:        s.cfg.InboxDir,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) currentReports() []model.ProjectReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ProjectReport, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
