package escalation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/deskcore/sla-engine/internal/domain"
	"github.com/deskcore/sla-engine/internal/events"
	"github.com/deskcore/sla-engine/internal/observability"
)

// TicketSource supplies the candidate tickets for a tick: non-terminal
// status with at least one deadline set.
type TicketSource interface {
	ListActiveWithDeadlines(ctx context.Context) ([]domain.TicketSLAView, error)
}

// Notifier dispatches one escalation event to its recipients. Implementations
// must return an error rather than panic; a failed dispatch is retried on the
// next tick.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Config controls scheduler timing.
type Config struct {
	CronExpression string
	TickTimeout    time.Duration
}

// DefaultConfig returns the standard five-minute cadence.
func DefaultConfig() Config {
	return Config{
		CronExpression: "*/5 * * * *",
		TickTimeout:    2 * time.Minute,
	}
}

// Dependencies bundles scheduler collaborators.
type Dependencies struct {
	Source     TicketSource
	Evaluator  *Evaluator
	Tracker    Tracker
	Notifier   Notifier
	Lock       TickLock
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Scheduler periodically re-evaluates live tickets against their deadlines
// and dispatches at-most-once notifications per (ticket, level, track).
//
// Each instance owns its cron handle and tracker reference; independent
// instances can run side by side in tests. A tick never overlaps itself:
// in-process via the running flag, across replicas via the tick lock.
type Scheduler struct {
	cfg       Config
	source    TicketSource
	evaluator *Evaluator
	tracker   Tracker
	notifier  Notifier
	lock      TickLock
	events    events.Dispatcher
	logger    *zap.Logger
	metrics   *observability.Metrics

	now func() time.Time

	cron  *cron.Cron
	entry cron.EntryID

	mu      sync.Mutex
	ticking bool
}

// NewScheduler builds a stopped scheduler.
func NewScheduler(cfg Config, deps Dependencies) *Scheduler {
	if cfg.CronExpression == "" {
		cfg.CronExpression = DefaultConfig().CronExpression
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = DefaultConfig().TickTimeout
	}
	if deps.Lock == nil {
		deps.Lock = NewNoopLock()
	}
	if deps.Evaluator == nil {
		deps.Evaluator = NewEvaluator(DefaultApproachingWindow, DefaultWarningPercent)
	}
	return &Scheduler{
		cfg:       cfg,
		source:    deps.Source,
		evaluator: deps.Evaluator,
		tracker:   deps.Tracker,
		notifier:  deps.Notifier,
		lock:      deps.Lock,
		events:    deps.Dispatcher,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		now:       time.Now,
	}
}

// Start registers the cron entry and begins ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.logger.Warn("escalation scheduler already running")
		return nil
	}

	c := cron.New()
	entry, err := c.AddFunc(s.cfg.CronExpression, s.tick)
	if err != nil {
		return err
	}
	s.cron = c
	s.entry = entry
	c.Start()
	s.logger.Info("escalation scheduler started", zap.String("cron", s.cfg.CronExpression))
	return nil
}

// Stop halts future ticks. An in-flight tick is allowed to finish; the
// returned context is done once it has.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		done, cancel := context.WithCancel(context.Background())
		cancel()
		return done
	}
	ctx := s.cron.Stop()
	s.cron = nil
	s.logger.Info("escalation scheduler stopped")
	return ctx
}

// tick is the cron entry point. Overlapping triggers are skipped, not queued:
// an unbounded backlog of concurrent ticks over a growing ticket set is a
// resource hazard.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.ticking {
		s.mu.Unlock()
		s.metrics.RecordTick(true)
		s.logger.Warn("previous escalation tick still running, skipping")
		return
	}
	s.ticking = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.ticking = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TickTimeout)
	defer cancel()

	held, err := s.lock.Acquire(ctx)
	if err != nil {
		// Coordination backend trouble must not halt monitoring; fall back
		// to the in-process guard alone.
		s.logger.Warn("tick lock unavailable, proceeding without it", zap.Error(err))
	} else if !held {
		s.metrics.RecordTick(true)
		s.logger.Debug("tick lock held by another instance, skipping")
		return
	} else {
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				s.logger.Warn("failed to release tick lock", zap.Error(err))
			}
		}()
	}

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("escalation tick failed", zap.Error(err))
	}
}

// RunOnce executes a single evaluation pass: fetch, classify, dedup-gate,
// notify, commit. It returns the number of notifications dispatched. A fetch
// failure aborts the pass; any per-ticket failure is logged and the batch
// continues.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	tickets, err := s.source.ListActiveWithDeadlines(ctx)
	if err != nil {
		return 0, err
	}

	s.metrics.RecordTick(false)
	s.metrics.AddTicketsChecked(len(tickets))

	now := s.now()
	sent := 0
	for _, ticket := range tickets {
		for _, event := range s.evaluator.Evaluate(ticket, now) {
			if s.process(ctx, event) {
				sent++
			}
		}
	}

	if sent > 0 {
		s.logger.Info("escalation notifications dispatched",
			zap.Int("checked", len(tickets)),
			zap.Int("sent", sent))
	}
	return sent, nil
}

// process handles one event end to end and reports whether a notification
// went out. The dedup record is committed only after a successful dispatch,
// so a failure window re-sends rather than loses the alert.
func (s *Scheduler) process(ctx context.Context, event Event) bool {
	key := KeyFor(event)

	seen, err := s.tracker.Seen(ctx, key)
	if err != nil {
		s.logger.Warn("dedup lookup failed", zap.String("key", key.String()), zap.Error(err))
		return false
	}
	if seen {
		s.metrics.RecordNotification(observability.NotificationDeduped)
		return false
	}

	s.publish(ctx, events.EventEscalationRaised, event)

	if err := s.notifier.Notify(ctx, event); err != nil {
		s.metrics.RecordNotification(observability.NotificationFailed)
		s.logger.Error("failed to send escalation notification",
			zap.String("ticket_id", event.Ticket.TicketID),
			zap.String("level", string(event.Level)),
			zap.String("track", string(event.Track)),
			zap.Error(err))
		return false
	}

	if err := s.tracker.Record(ctx, key); err != nil {
		// The notification went out but the key was not stored; the next
		// tick may send a duplicate, which is preferred over a missed alert.
		s.logger.Warn("failed to record notification", zap.String("key", key.String()), zap.Error(err))
	}

	s.metrics.RecordNotification(observability.NotificationSent)
	s.publish(ctx, events.EventEscalationNotified, event)
	return true
}

func (s *Scheduler) publish(ctx context.Context, eventType events.EventType, event Event) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  event.Ticket.TicketID,
		Timestamp: s.now(),
		Payload: events.EscalationPayload{
			TicketNumber:   event.Ticket.Number,
			Level:          string(event.Level),
			Track:          string(event.Track),
			ElapsedPercent: event.ElapsedPercent,
			DueAt:          event.DueAt,
		},
	})
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
