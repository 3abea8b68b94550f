package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew                 TicketStatus = "new"
	TicketStatusTriage              TicketStatus = "triage"
	TicketStatusAssigned            TicketStatus = "assigned"
	TicketStatusInProgress          TicketStatus = "in_progress"
	TicketStatusPendingCustomer     TicketStatus = "pending_customer"
	TicketStatusPendingApproval     TicketStatus = "pending_approval"
	TicketStatusPendingChangeWindow TicketStatus = "pending_change_window"
	TicketStatusResolved            TicketStatus = "resolved"
	TicketStatusClosed              TicketStatus = "closed"
	TicketStatusCanceled            TicketStatus = "canceled"
	TicketStatusReopened            TicketStatus = "reopened"
)

// Terminal reports whether the status ends SLA monitoring entirely.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCanceled
}

// TicketPriority enumerates SLA urgency levels.
type TicketPriority string

const (
	TicketPriorityP1 TicketPriority = "P1"
	TicketPriorityP2 TicketPriority = "P2"
	TicketPriorityP3 TicketPriority = "P3"
	TicketPriorityP4 TicketPriority = "P4"
)

// Valid reports whether the priority is one of the four supported levels.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityP1, TicketPriorityP2, TicketPriorityP3, TicketPriorityP4:
		return true
	}
	return false
}

// TicketSLAView is the narrow projection of a ticket this engine reads.
// The full ticket entity lives in the external ticket store; the engine
// never writes ticket rows.
type TicketSLAView struct {
	TicketID      string         `json:"ticket_id"`
	Number        string         `json:"ticket_number"`
	Subject       string         `json:"subject"`
	Priority      TicketPriority `json:"priority"`
	Status        TicketStatus   `json:"status"`
	AssigneeID    *string        `json:"assignee_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	AssignedAt    *time.Time     `json:"assigned_at,omitempty"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	ResponseDueAt *time.Time     `json:"response_due_at,omitempty"`
	DueAt         *time.Time     `json:"due_at,omitempty"`
}
