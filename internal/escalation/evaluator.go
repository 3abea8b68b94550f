package escalation

import (
	"time"

	"github.com/deskcore/sla-engine/internal/domain"
)

// Level classifies how close a ticket is to missing a deadline.
type Level string

const (
	LevelApproaching Level = "approaching"
	LevelWarning     Level = "warning"
	LevelViolation   Level = "violation"
)

// Track identifies which SLA clock an event refers to.
type Track string

const (
	TrackResponse   Track = "response"
	TrackResolution Track = "resolution"
)

// Label returns a human-readable track name for notification text.
func (t Track) Label() string {
	if t == TrackResponse {
		return "first response"
	}
	return "resolution"
}

// Event is produced per scheduler tick for a ticket nearing or past a
// deadline. Events are ephemeral; only the dedup key derived from them is
// persisted.
type Event struct {
	Ticket         domain.TicketSLAView
	Level          Level
	Track          Track
	ElapsedPercent float64
	DueAt          time.Time
}

// Defaults for evaluator thresholds.
const (
	DefaultApproachingWindow = 30 * time.Minute
	DefaultWarningPercent    = 75.0
)

// Evaluator classifies tickets against their deadlines. It is stateless and
// safe for concurrent use.
type Evaluator struct {
	approachingWindow time.Duration
	warningPercent    float64
}

// NewEvaluator builds an evaluator, substituting defaults for non-positive
// thresholds.
func NewEvaluator(approachingWindow time.Duration, warningPercent float64) *Evaluator {
	if approachingWindow <= 0 {
		approachingWindow = DefaultApproachingWindow
	}
	if warningPercent <= 0 {
		warningPercent = DefaultWarningPercent
	}
	return &Evaluator{approachingWindow: approachingWindow, warningPercent: warningPercent}
}

// Evaluate classifies both SLA tracks of a ticket as of now and returns at
// most one event per track. The response track is only monitored while the
// ticket is unassigned; once assigned, that clock has stopped.
func (e *Evaluator) Evaluate(ticket domain.TicketSLAView, now time.Time) []Event {
	var events []Event

	if ticket.AssignedAt == nil && ticket.ResponseDueAt != nil {
		if ev := e.evaluateTrack(ticket, TrackResponse, *ticket.ResponseDueAt, now); ev != nil {
			events = append(events, *ev)
		}
	}
	if ticket.DueAt != nil {
		if ev := e.evaluateTrack(ticket, TrackResolution, *ticket.DueAt, now); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

// evaluateTrack applies the level precedence: violation at or past the
// deadline, warning once the configured share of the allowance is consumed,
// approaching inside the final window. Exactly one level or none.
func (e *Evaluator) evaluateTrack(ticket domain.TicketSLAView, track Track, dueAt, now time.Time) *Event {
	total := dueAt.Sub(ticket.CreatedAt)
	if total <= 0 {
		return nil
	}

	elapsed := now.Sub(ticket.CreatedAt)
	elapsedPercent := float64(elapsed) / float64(total) * 100
	remaining := dueAt.Sub(now)

	var level Level
	switch {
	case elapsedPercent >= 100:
		level = LevelViolation
	case elapsedPercent >= e.warningPercent:
		level = LevelWarning
	case remaining > 0 && remaining <= e.approachingWindow:
		level = LevelApproaching
	default:
		return nil
	}

	return &Event{
		Ticket:         ticket,
		Level:          level,
		Track:          track,
		ElapsedPercent: elapsedPercent,
		DueAt:          dueAt,
	}
}
