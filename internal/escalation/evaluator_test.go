package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskcore/sla-engine/internal/domain"
)

var evalBase = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func tp(t time.Time) *time.Time { return &t }

func evalTicket() domain.TicketSLAView {
	return domain.TicketSLAView{
		TicketID:      "t-1",
		Number:        "INC-1001",
		Priority:      domain.TicketPriorityP2,
		Status:        domain.TicketStatusNew,
		CreatedAt:     evalBase,
		ResponseDueAt: tp(evalBase.Add(time.Hour)),
		DueAt:         tp(evalBase.Add(10 * time.Hour)),
	}
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(DefaultApproachingWindow, DefaultWarningPercent)
}

func TestEvaluateApproaching(t *testing.T) {
	// 50% of the response allowance consumed, 30 minutes left.
	events := newTestEvaluator().Evaluate(evalTicket(), evalBase.Add(30*time.Minute))

	require.Len(t, events, 1)
	assert.Equal(t, LevelApproaching, events[0].Level)
	assert.Equal(t, TrackResponse, events[0].Track)
	assert.InDelta(t, 50.0, events[0].ElapsedPercent, 0.01)
}

func TestEvaluateWarningOverridesApproaching(t *testing.T) {
	// 10 minutes remaining falls inside the approaching window, but 83% of
	// the allowance is gone: warning wins.
	events := newTestEvaluator().Evaluate(evalTicket(), evalBase.Add(50*time.Minute))

	require.Len(t, events, 1)
	assert.Equal(t, LevelWarning, events[0].Level)
	assert.Equal(t, TrackResponse, events[0].Track)
}

func TestEvaluateViolation(t *testing.T) {
	events := newTestEvaluator().Evaluate(evalTicket(), evalBase.Add(61*time.Minute))

	require.Len(t, events, 1)
	assert.Equal(t, LevelViolation, events[0].Level)
	assert.Greater(t, events[0].ElapsedPercent, 100.0)
	assert.Equal(t, *evalTicket().ResponseDueAt, events[0].DueAt)
}

func TestEvaluateAssignedStopsResponseClock(t *testing.T) {
	ticket := evalTicket()
	ticket.AssignedAt = tp(evalBase.Add(5 * time.Minute))

	events := newTestEvaluator().Evaluate(ticket, evalBase.Add(61*time.Minute))
	assert.Empty(t, events)
}

func TestEvaluateBothTracksCanFire(t *testing.T) {
	events := newTestEvaluator().Evaluate(evalTicket(), evalBase.Add(11*time.Hour))

	require.Len(t, events, 2)
	assert.Equal(t, TrackResponse, events[0].Track)
	assert.Equal(t, LevelViolation, events[0].Level)
	assert.Equal(t, TrackResolution, events[1].Track)
	assert.Equal(t, LevelViolation, events[1].Level)
}

func TestEvaluateResolutionTrackSurvivesAssignment(t *testing.T) {
	ticket := evalTicket()
	ticket.AssignedAt = tp(evalBase.Add(5 * time.Minute))

	// 8h of the 10h resolution allowance consumed.
	events := newTestEvaluator().Evaluate(ticket, evalBase.Add(8*time.Hour))
	require.Len(t, events, 1)
	assert.Equal(t, TrackResolution, events[0].Track)
	assert.Equal(t, LevelWarning, events[0].Level)
}

func TestEvaluateNothingDueYet(t *testing.T) {
	events := newTestEvaluator().Evaluate(evalTicket(), evalBase.Add(10*time.Minute))
	assert.Empty(t, events)
}

func TestEvaluateMissingDeadlines(t *testing.T) {
	ticket := evalTicket()
	ticket.ResponseDueAt = nil
	ticket.DueAt = nil

	events := newTestEvaluator().Evaluate(ticket, evalBase.Add(24*time.Hour))
	assert.Empty(t, events)
}

func TestEvaluateZeroAllowanceSkipped(t *testing.T) {
	ticket := evalTicket()
	ticket.ResponseDueAt = tp(evalBase)
	ticket.DueAt = nil

	events := newTestEvaluator().Evaluate(ticket, evalBase.Add(time.Hour))
	assert.Empty(t, events)
}

func TestNewEvaluatorSubstitutesDefaults(t *testing.T) {
	evaluator := NewEvaluator(0, -1)
	assert.Equal(t, DefaultApproachingWindow, evaluator.approachingWindow)
	assert.Equal(t, DefaultWarningPercent, evaluator.warningPercent)
}
