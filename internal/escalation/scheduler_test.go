package escalation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskcore/sla-engine/internal/domain"
	"github.com/deskcore/sla-engine/internal/events"
	"github.com/deskcore/sla-engine/internal/observability"
)

type fakeSource struct {
	tickets []domain.TicketSLAView
	err     error
}

func (f *fakeSource) ListActiveWithDeadlines(context.Context) ([]domain.TicketSLAView, error) {
	return f.tickets, f.err
}

type fakeNotifier struct {
	failFor map[string]bool
	sent    []Event
}

func (f *fakeNotifier) Notify(_ context.Context, event Event) error {
	if f.failFor[event.Ticket.TicketID] {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, event)
	return nil
}

type fakeLock struct {
	held       bool
	acquireErr error
	released   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) { return f.held, f.acquireErr }
func (f *fakeLock) Release(context.Context) error         { f.released++; return nil }

// overdueTicket is unassigned with the response deadline an hour past and the
// resolution deadline far out, so each pass yields exactly one violation.
func overdueTicket(id string) domain.TicketSLAView {
	return domain.TicketSLAView{
		TicketID:      id,
		Number:        "INC-" + id,
		Priority:      domain.TicketPriorityP2,
		Status:        domain.TicketStatusNew,
		CreatedAt:     evalBase,
		ResponseDueAt: tp(evalBase.Add(time.Hour)),
		DueAt:         tp(evalBase.Add(100 * time.Hour)),
	}
}

func newTestScheduler(source *fakeSource, notifier *fakeNotifier, at time.Time) (*Scheduler, *observability.Metrics) {
	metrics := observability.NewMetrics()
	s := NewScheduler(DefaultConfig(), Dependencies{
		Source:    source,
		Evaluator: newTestEvaluator(),
		Tracker:   NewMemoryTracker(),
		Notifier:  notifier,
		Logger:    zap.NewNop(),
		Metrics:   metrics,
	})
	s.now = func() time.Time { return at }
	return s, metrics
}

func TestRunOnceDispatchesAndDedups(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{tickets: []domain.TicketSLAView{overdueTicket("t-1")}}
	notifier := &fakeNotifier{}
	s, metrics := newTestScheduler(source, notifier, evalBase.Add(2*time.Hour))

	sent, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, LevelViolation, notifier.sent[0].Level)
	assert.Equal(t, TrackResponse, notifier.sent[0].Track)

	// Same state on the next tick: the key has already fired.
	sent, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, notifier.sent, 1)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap["notifications_sent"])
	assert.Equal(t, int64(1), snap["notifications_deduped"])
	assert.Equal(t, int64(2), snap["ticks_run"])
	assert.Equal(t, int64(2), snap["tickets_checked"])
}

func TestRunOnceRetriesAfterNotifierFailure(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{tickets: []domain.TicketSLAView{overdueTicket("t-1")}}
	notifier := &fakeNotifier{failFor: map[string]bool{"t-1": true}}
	s, metrics := newTestScheduler(source, notifier, evalBase.Add(2*time.Hour))

	sent, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	// The dedup record is only committed after a successful dispatch, so the
	// next pass sends the notification that failed.
	notifier.failFor = nil
	sent, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap["notifications_failed"])
	assert.Equal(t, int64(1), snap["notifications_sent"])
}

func TestRunOnceSourceFailureAbortsPass(t *testing.T) {
	source := &fakeSource{err: errors.New("database unavailable")}
	s, metrics := newTestScheduler(source, &fakeNotifier{}, evalBase.Add(2*time.Hour))

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(0), metrics.Snapshot()["ticks_run"])
}

func TestRunOnceContinuesPastPerTicketFailure(t *testing.T) {
	source := &fakeSource{tickets: []domain.TicketSLAView{overdueTicket("t-1"), overdueTicket("t-2")}}
	notifier := &fakeNotifier{failFor: map[string]bool{"t-1": true}}
	s, _ := newTestScheduler(source, notifier, evalBase.Add(2*time.Hour))

	sent, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "t-2", notifier.sent[0].Ticket.TicketID)
}

func TestRunOnceEscalatesThroughLevels(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{tickets: []domain.TicketSLAView{overdueTicket("t-1")}}
	notifier := &fakeNotifier{}
	s, _ := newTestScheduler(source, notifier, evalBase.Add(50*time.Minute))

	// 83% of the response allowance consumed: warning.
	sent, err := s.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	assert.Equal(t, LevelWarning, notifier.sent[0].Level)

	// Past the deadline on a later tick: the violation is a distinct key and
	// fires even though the warning already has.
	s.now = func() time.Time { return evalBase.Add(2 * time.Hour) }
	sent, err = s.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	assert.Equal(t, LevelViolation, notifier.sent[1].Level)
}

func TestRunOncePublishesEvents(t *testing.T) {
	source := &fakeSource{tickets: []domain.TicketSLAView{overdueTicket("t-1")}}
	notifier := &fakeNotifier{}
	s, _ := newTestScheduler(source, notifier, evalBase.Add(2*time.Hour))

	dispatcher := events.NewInMemoryDispatcher()
	var published []events.EventType
	record := func(_ context.Context, event events.Event) error {
		published = append(published, event.Type)
		return nil
	}
	dispatcher.Subscribe(events.EventEscalationRaised, record)
	dispatcher.Subscribe(events.EventEscalationNotified, record)
	s.events = dispatcher

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []events.EventType{events.EventEscalationRaised, events.EventEscalationNotified}, published)
}

func TestTickSkipsWhenLockHeldElsewhere(t *testing.T) {
	source := &fakeSource{tickets: []domain.TicketSLAView{overdueTicket("t-1")}}
	notifier := &fakeNotifier{}
	s, metrics := newTestScheduler(source, notifier, evalBase.Add(2*time.Hour))
	s.lock = &fakeLock{held: false}

	s.tick()

	assert.Empty(t, notifier.sent)
	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap["ticks_skipped"])
	assert.Equal(t, int64(0), snap["ticks_run"])
}

func TestTickProceedsWhenLockBackendFails(t *testing.T) {
	source := &fakeSource{tickets: []domain.TicketSLAView{overdueTicket("t-1")}}
	notifier := &fakeNotifier{}
	s, _ := newTestScheduler(source, notifier, evalBase.Add(2*time.Hour))
	s.lock = &fakeLock{acquireErr: errors.New("redis down")}

	s.tick()

	assert.Len(t, notifier.sent, 1)
}

func TestTickReleasesLock(t *testing.T) {
	source := &fakeSource{}
	lock := &fakeLock{held: true}
	s, _ := newTestScheduler(source, &fakeNotifier{}, evalBase)
	s.lock = lock

	s.tick()

	assert.Equal(t, 1, lock.released)
}

func TestSchedulerStartRejectsInvalidCron(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{}, &fakeNotifier{}, evalBase)
	s.cfg.CronExpression = "every five minutes"

	assert.Error(t, s.Start())
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{}, &fakeNotifier{}, evalBase)

	ctx := s.Stop()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("stop context should be done immediately")
	}
}

func TestNoopLockAlwaysAcquires(t *testing.T) {
	lock := NewNoopLock()

	held, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, held)
	assert.NoError(t, lock.Release(context.Background()))
}
