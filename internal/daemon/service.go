// Package daemon provides the long-running background service that runs the
// recurring regeneration pass on a timer and serves ledger status over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
	"github.com/theirongolddev/fintrack/internal/store"
)

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventRegenerated   = "regenerated"
	EventBudgetWarning = "budget_warning"
	EventGoalCompleted = "goal_completed"
	EventRuleFailed    = "rule_failed"
)

// DefaultInterval is how often the regeneration pass runs.
const DefaultInterval = 24 * time.Hour

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Interval     time.Duration
	EventsBuffer int
	WarnPercent  float64
}

// BudgetSnapshot is one budget line in a status payload.
type BudgetSnapshot struct {
	Category   string   `json:"category"`
	Budget     float64  `json:"budget"`
	Spent      float64  `json:"spent"`
	Remaining  float64  `json:"remaining"`
	Percentage *float64 `json:"percentage"`
}

// GoalSnapshot is one goal line in a status payload.
type GoalSnapshot struct {
	ID          model.ID       `json:"id"`
	Type        model.GoalType `json:"type"`
	Description string         `json:"description"`
	Target      float64        `json:"target"`
	Current     float64        `json:"current"`
	Percentage  float64        `json:"percentage"`
	Completed   bool           `json:"completed"`
}

// Snapshot is the ledger state published in status and event payloads.
type Snapshot struct {
	At           time.Time        `json:"at"`
	AsOf         calendar.Date    `json:"as_of"`
	Transactions int              `json:"transactions"`
	Rules        int              `json:"rules"`
	MonthIncome  float64          `json:"month_income"`
	MonthExpense float64          `json:"month_expense"`
	MonthNet     float64          `json:"month_net"`
	Budgets      []BudgetSnapshot `json:"budgets"`
	Goals        []GoalSnapshot   `json:"goals"`
}

// RunInfo summarizes one regeneration pass.
type RunInfo struct {
	At             time.Time     `json:"at"`
	AsOf           calendar.Date `json:"as_of"`
	RulesProcessed int           `json:"rules_processed"`
	RulesFailed    int           `json:"rules_failed"`
	Generated      int           `json:"generated"`
	DurationMs     int64         `json:"duration_ms"`
}

// Event is emitted when a pass changes something worth telling subscribers.
// Only the payload field matching Type is set.
type Event struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Snapshot  *Snapshot       `json:"snapshot,omitempty"`
	Run       *RunInfo        `json:"run,omitempty"`
	Budget    *BudgetSnapshot `json:"budget,omitempty"`
	Goal      *GoalSnapshot   `json:"goal,omitempty"`
	RuleID    model.ID        `json:"rule_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastRunAt       time.Time `json:"last_run_at"`
	NextRunAt       time.Time `json:"next_run_at"`
	IntervalSec     int       `json:"interval_sec"`
	RunCount        int64     `json:"run_count"`
	LedgerPath      string    `json:"ledger_path"`
	Summary         Snapshot  `json:"summary"`
	LastRun         *RunInfo  `json:"last_run,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	ledger *ledger.Store
	mirror *store.Mirror
	log    *logrus.Entry
	now    func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	runCount    int64
	lastRun     *RunInfo
	lastError   string
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	// state from the previous pass, for edge-triggered events
	warned    map[string]bool
	completed map[model.ID]bool

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon over lg. mirror may be nil.
func New(cfg Config, lg *ledger.Store, mirror *store.Mirror, logger logrus.FieldLogger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8642"
	}
	if cfg.WarnPercent <= 0 {
		cfg.WarnPercent = 80
	}

	return &Service{
		cfg:       cfg,
		ledger:    lg,
		mirror:    mirror,
		log:       logging.Component(logger, "daemon"),
		now:       time.Now,
		startedAt: time.Now(),
		warned:    make(map[string]bool),
		completed: make(map[model.ID]bool),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Run serves the API and runs the regeneration pass immediately and then on
// every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("daemon listen: %w", err)
	}
	return s.serve(ctx, ln)
}

func (s *Service) serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.RunOnce()

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.RunOnce()
			}
		}
	})
	return g.Wait()
}

// RunOnce performs one regeneration pass, persists the result and publishes
// events for anything that changed.
func (s *Service) RunOnce() {
	at := s.now()
	asOf := calendar.FromTime(at)

	// The CLI writes the same file between ticks; start every pass from disk.
	var errs []error
	fresh := true
	if s.ledger.Path() != "" {
		if err := s.ledger.Reload(); err != nil {
			fresh = false
			errs = append(errs, fmt.Errorf("reloading ledger: %w", err))
		}
	}
	res := s.ledger.Regenerate(asOf)

	if fresh && s.ledger.Path() != "" && s.ledger.Dirty() {
		if err := s.ledger.Save(); err != nil {
			errs = append(errs, fmt.Errorf("saving ledger: %w", err))
		}
	}
	if s.mirror != nil {
		if err := s.mirror.SyncTransactions(s.ledger.Transactions()); err != nil {
			errs = append(errs, fmt.Errorf("syncing mirror: %w", err))
		}
		run := store.Run{
			RanAt:          at,
			AsOf:           asOf,
			Source:         "daemon",
			RulesProcessed: res.RulesProcessed,
			RulesFailed:    len(res.Failed),
			Generated:      res.Generated,
			Duration:       res.Duration,
		}
		if err := s.mirror.RecordRun(run); err != nil {
			errs = append(errs, err)
		}
	}
	runErr := errors.Join(errs...)
	if runErr != nil {
		s.log.WithError(runErr).Error("regeneration pass incomplete")
	}

	info := &RunInfo{
		At:             at,
		AsOf:           asOf,
		RulesProcessed: res.RulesProcessed,
		RulesFailed:    len(res.Failed),
		Generated:      res.Generated,
		DurationMs:     res.Duration.Milliseconds(),
	}
	snap := s.buildSnapshot(at, asOf)

	s.mu.Lock()
	first := s.runCount == 0
	s.runCount++
	s.lastRunAt = at
	s.lastRun = info
	s.snapshot = snap
	s.lastError = ""
	if runErr != nil {
		s.lastError = runErr.Error()
	}

	var pending []Event
	if first {
		pending = append(pending, Event{Type: EventSnapshot, Snapshot: &snap})
	}
	for _, f := range res.Failed {
		pending = append(pending, Event{Type: EventRuleFailed, RuleID: f.RuleID, Error: f.Err.Error()})
	}
	if res.Generated > 0 {
		pending = append(pending, Event{Type: EventRegenerated, Run: info, Snapshot: &snap})
	}
	pending = append(pending, s.transitions(snap)...)
	s.mu.Unlock()

	for _, ev := range pending {
		ev.Timestamp = at
		s.publishEvent(ev)
	}

	s.log.WithFields(logrus.Fields{
		"as_of":     asOf.String(),
		"generated": res.Generated,
		"failed":    len(res.Failed),
		"events":    len(pending),
	}).Info("regeneration pass complete")
}

// transitions diffs snap against the previous pass. A budget warns once when
// it reaches the warn percentage and again only after dropping below it. Must
// be called with mu held.
func (s *Service) transitions(snap Snapshot) []Event {
	var out []Event

	warned := make(map[string]bool, len(s.warned))
	for i, b := range snap.Budgets {
		if b.Percentage == nil || *b.Percentage < s.cfg.WarnPercent {
			continue
		}
		warned[b.Category] = true
		if !s.warned[b.Category] {
			out = append(out, Event{Type: EventBudgetWarning, Budget: &snap.Budgets[i]})
		}
	}
	s.warned = warned

	completed := make(map[model.ID]bool, len(s.completed))
	for i, g := range snap.Goals {
		if !g.Completed {
			continue
		}
		completed[g.ID] = true
		if !s.completed[g.ID] {
			out = append(out, Event{Type: EventGoalCompleted, Goal: &snap.Goals[i]})
		}
	}
	s.completed = completed
	return out
}

func (s *Service) buildSnapshot(at time.Time, asOf calendar.Date) Snapshot {
	txs := s.ledger.Transactions()
	month := pipeline.Aggregate(txs, asOf.StartOfMonth(), asOf.EndOfMonth())

	snap := Snapshot{
		At:           at,
		AsOf:         asOf,
		Transactions: len(txs),
		Rules:        len(s.ledger.Rules()),
		MonthIncome:  month.Income,
		MonthExpense: month.Expense,
		MonthNet:     month.Net,
		Budgets:      []BudgetSnapshot{},
		Goals:        []GoalSnapshot{},
	}
	for _, b := range s.ledger.BudgetStatus(asOf) {
		snap.Budgets = append(snap.Budgets, BudgetSnapshot{
			Category:   b.Category,
			Budget:     b.Budget,
			Spent:      b.Spent,
			Remaining:  b.Remaining,
			Percentage: b.Percentage,
		})
	}
	for _, r := range s.ledger.GoalReports() {
		snap.Goals = append(snap.Goals, GoalSnapshot{
			ID:          r.Goal.ID,
			Type:        r.Goal.Type,
			Description: r.Goal.Description,
			Target:      r.Goal.TargetAmount,
			Current:     r.Progress.Current,
			Percentage:  r.Progress.Percentage,
			Completed:   r.Progress.IsCompleted,
		})
	}
	return snap
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	ev.ID = s.nextEventID
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
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastRunAt:       s.lastRunAt,
		IntervalSec:     int(s.cfg.Interval.Seconds()),
		RunCount:        s.runCount,
		LedgerPath:      s.ledger.Path(),
		Summary:         s.snapshot,
		LastRun:         s.lastRun,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if !s.lastRunAt.IsZero() {
		st.NextRunAt = s.lastRunAt.Add(s.cfg.Interval)
	}
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
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

	snap := s.snapshotStatus().Summary
	writeSSE(w, Event{Type: EventSnapshot, Timestamp: s.now(), Snapshot: &snap})
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

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
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
