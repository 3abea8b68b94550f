package sla

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskcore/sla-engine/internal/domain"
)

func TestRegistryPolicyTable(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		priority          domain.TicketPriority
		responseMinutes   int
		resolutionMinutes int
		businessHoursOnly bool
	}{
		{domain.TicketPriorityP1, 15, 120, false},
		{domain.TicketPriorityP2, 60, 480, true},
		{domain.TicketPriorityP3, 240, 4320, true},
		{domain.TicketPriorityP4, 1440, 7200, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			policy, err := registry.Policy(tt.priority)
			require.NoError(t, err)
			assert.Equal(t, tt.priority, policy.Priority)
			assert.Equal(t, tt.responseMinutes, policy.ResponseMinutes)
			assert.Equal(t, tt.resolutionMinutes, policy.ResolutionMinutes)
			assert.Equal(t, tt.businessHoursOnly, policy.BusinessHoursOnly)
		})
	}
}

func TestRegistryResponseBeforeResolution(t *testing.T) {
	for priority, policy := range NewRegistry().AllPolicies() {
		assert.Less(t, policy.ResponseMinutes, policy.ResolutionMinutes, "policy %s", priority)
	}
}

func TestRegistryUnknownPriority(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Policy("P9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPriority)
}

func TestAllPoliciesReturnsCopy(t *testing.T) {
	registry := NewRegistry()

	all := registry.AllPolicies()
	all[domain.TicketPriorityP1] = Policy{Priority: domain.TicketPriorityP1, ResponseMinutes: 1}
	delete(all, domain.TicketPriorityP2)

	policy, err := registry.Policy(domain.TicketPriorityP1)
	require.NoError(t, err)
	assert.Equal(t, 15, policy.ResponseMinutes)

	_, err = registry.Policy(domain.TicketPriorityP2)
	assert.NoError(t, err)
}
