package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEscalationRaised   EventType = "escalation_raised"
	EventEscalationNotified EventType = "escalation_notified"
)

// Event represents a domain event emitted by the escalation pipeline.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EscalationPayload describes the threshold crossing behind an escalation
// event.
type EscalationPayload struct {
	TicketNumber   string    `json:"ticket_number"`
	Level          string    `json:"level"`
	Track          string    `json:"track"`
	ElapsedPercent float64   `json:"elapsed_percent"`
	DueAt          time.Time `json:"due_at"`
}
