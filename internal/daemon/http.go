package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/observability"
	"github.com/theirongolddev/pburn/internal/pipeline"
)

// Router returns the daemon's HTTP API.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/projects", s.handleProjects)
		r.Get("/projects/{project}", s.handleProject)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// handleProjects serves the latest reports. ?status= filters by budget
// status and ?q= by project name.
func (s *Service) handleProjects(w http.ResponseWriter, r *http.Request) {
	reports := s.currentReports()
	if q := r.URL.Query().Get("q"); q != "" {
		reports = pipeline.FilterByName(reports, q)
	}
	if st := r.URL.Query().Get("status"); st != "" {
		reports = pipeline.FilterByStatus(reports, model.BudgetStatus(st))
	}
	if reports == nil {
		reports = []model.ProjectReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Service) handleProject(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "project")
	for _, rep := range s.currentReports() {
		if rep.Project.ID == ref || rep.Project.Name == ref {
			writeJSON(w, http.StatusOK, rep)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "project not found"})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
