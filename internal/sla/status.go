package sla

import (
	"time"

	"github.com/deskcore/sla-engine/internal/domain"
)

// Status reports per-track SLA outcomes for one ticket. A nil track value
// means the track is not yet evaluable: the response track settles when the
// ticket is assigned, the resolution track when it is resolved.
type Status struct {
	ResponseMet   *bool `json:"responseMetSLA"`
	ResolutionMet *bool `json:"resolutionMetSLA"`
	Overdue       bool  `json:"isOverdue"`
}

// IsOverdue reports whether the ticket is currently past a deadline it has
// not satisfied, as of now.
//
// Closed and canceled tickets are never overdue. A resolved ticket can still
// be overdue on its response track when it was resolved without ever being
// assigned inside the response window.
func IsOverdue(ticket domain.TicketSLAView, now time.Time) bool {
	if ticket.Status.Terminal() {
		return false
	}

	responseMissed := ticket.AssignedAt == nil &&
		ticket.ResponseDueAt != nil &&
		now.After(*ticket.ResponseDueAt)

	if ticket.Status == domain.TicketStatusResolved {
		return responseMissed
	}

	if responseMissed {
		return true
	}
	return ticket.DueAt != nil && now.After(*ticket.DueAt)
}

// EvaluateStatus computes the tri-state SLA status for one ticket as of now.
func EvaluateStatus(ticket domain.TicketSLAView, now time.Time) Status {
	status := Status{Overdue: IsOverdue(ticket, now)}

	if ticket.AssignedAt != nil && ticket.ResponseDueAt != nil {
		met := !ticket.AssignedAt.After(*ticket.ResponseDueAt)
		status.ResponseMet = &met
	}
	if ticket.ResolvedAt != nil && ticket.DueAt != nil {
		met := !ticket.ResolvedAt.After(*ticket.DueAt)
		status.ResolutionMet = &met
	}
	return status
}
