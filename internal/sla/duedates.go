package sla

import (
	"time"

	"github.com/deskcore/sla-engine/internal/domain"
)

// DueDates carries the two deadline instants computed for a ticket.
type DueDates struct {
	ResponseDueAt   time.Time `json:"response_due_at"`
	ResolutionDueAt time.Time `json:"due_at"`
}

// Calculator derives SLA deadlines from a priority and a creation instant.
type Calculator struct {
	registry *Registry
	calendar *Calendar
}

// NewCalculator builds a calculator over the given registry and calendar.
func NewCalculator(registry *Registry, calendar *Calendar) *Calculator {
	return &Calculator{registry: registry, calendar: calendar}
}

// CalculateDueDates computes response and resolution deadlines for a ticket
// created at createdAt with the given priority. Both tracks are anchored at
// createdAt, never chained off each other. For around-the-clock policies the
// allowance is added with plain calendar arithmetic; otherwise it is consumed
// only inside the business window.
//
// Deadlines are a point-in-time commitment: callers recomputing after a
// priority change must pass the original creation instant.
func (c *Calculator) CalculateDueDates(priority domain.TicketPriority, createdAt time.Time) (DueDates, error) {
	policy, err := c.registry.Policy(priority)
	if err != nil {
		return DueDates{}, err
	}

	response := time.Duration(policy.ResponseMinutes) * time.Minute
	resolution := time.Duration(policy.ResolutionMinutes) * time.Minute

	if !policy.BusinessHoursOnly {
		return DueDates{
			ResponseDueAt:   createdAt.Add(response),
			ResolutionDueAt: createdAt.Add(resolution),
		}, nil
	}

	return DueDates{
		ResponseDueAt:   c.calendar.AddBusinessTime(createdAt, response),
		ResolutionDueAt: c.calendar.AddBusinessTime(createdAt, resolution),
	}, nil
}
