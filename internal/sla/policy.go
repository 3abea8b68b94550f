package sla

import (
	"errors"
	"fmt"

	"github.com/deskcore/sla-engine/internal/domain"
)

// ErrUnknownPriority indicates a lookup for a priority outside the supported
// set. A missing policy is a configuration defect and must surface, never be
// defaulted.
var ErrUnknownPriority = errors.New("unknown priority")

// Policy defines the committed response and resolution allowances for one
// priority level.
type Policy struct {
	Priority          domain.TicketPriority `json:"priority"`
	ResponseMinutes   int                   `json:"response_minutes"`
	ResolutionMinutes int                   `json:"resolution_minutes"`
	BusinessHoursOnly bool                  `json:"business_hours_only"`
}

// Registry holds the static priority-to-policy table.
//
// P1 runs around the clock; the remaining levels advance only inside
// business hours:
//
//	P1: response 15m  / resolution 2h
//	P2: response 1h   / resolution 8h
//	P3: response 4h   / resolution 72h (8 business days)
//	P4: response 24h  / resolution 120h
type Registry struct {
	policies map[domain.TicketPriority]Policy
}

// NewRegistry builds a registry with the default policy table.
func NewRegistry() *Registry {
	return &Registry{
		policies: map[domain.TicketPriority]Policy{
			domain.TicketPriorityP1: {
				Priority:          domain.TicketPriorityP1,
				ResponseMinutes:   15,
				ResolutionMinutes: 120,
				BusinessHoursOnly: false,
			},
			domain.TicketPriorityP2: {
				Priority:          domain.TicketPriorityP2,
				ResponseMinutes:   60,
				ResolutionMinutes: 480,
				BusinessHoursOnly: true,
			},
			domain.TicketPriorityP3: {
				Priority:          domain.TicketPriorityP3,
				ResponseMinutes:   240,
				ResolutionMinutes: 4320,
				BusinessHoursOnly: true,
			},
			domain.TicketPriorityP4: {
				Priority:          domain.TicketPriorityP4,
				ResponseMinutes:   1440,
				ResolutionMinutes: 7200,
				BusinessHoursOnly: true,
			},
		},
	}
}

// Policy returns the policy for the given priority.
func (r *Registry) Policy(priority domain.TicketPriority) (Policy, error) {
	policy, ok := r.policies[priority]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownPriority, priority)
	}
	return policy, nil
}

// AllPolicies returns a copy of the full policy table. Mutating the result
// does not affect the registry.
func (r *Registry) AllPolicies() map[domain.TicketPriority]Policy {
	out := make(map[domain.TicketPriority]Policy, len(r.policies))
	for priority, policy := range r.policies {
		out[priority] = policy
	}
	return out
}
