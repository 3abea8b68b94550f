package sla

import (
	"math"
	"time"

	"github.com/deskcore/sla-engine/internal/domain"
)

// PriorityMetrics is the per-priority compliance breakdown.
type PriorityMetrics struct {
	Total              int     `json:"total"`
	ResponseMetCount   int     `json:"responseMetCount"`
	ResponseMetRate    float64 `json:"responseMetRate"`
	ResolutionMetCount int     `json:"resolutionMetCount"`
	ResolutionMetRate  float64 `json:"resolutionMetRate"`
}

// Metrics aggregates SLA compliance over a ticket set. Rates are percentages
// rounded to two decimals and computed only over tickets whose track is
// evaluable; tickets awaiting assignment or resolution are excluded from the
// denominator rather than counted as failures.
type Metrics struct {
	Total              int                                      `json:"total"`
	ResponseMetCount   int                                      `json:"responseMetCount"`
	ResponseMetRate    float64                                  `json:"responseMetRate"`
	ResolutionMetCount int                                      `json:"resolutionMetCount"`
	ResolutionMetRate  float64                                  `json:"resolutionMetRate"`
	OverdueCount       int                                      `json:"overdueCount"`
	OverdueRate        float64                                  `json:"overdueRate"`
	ByPriority         map[domain.TicketPriority]PriorityMetrics `json:"byPriority"`
}

type tally struct {
	total               int
	responseMet         int
	responseEvaluated   int
	resolutionMet       int
	resolutionEvaluated int
}

// CalculateMetrics aggregates compliance rates for the given tickets as of
// now. The empty input yields all-zero counts and rates.
func CalculateMetrics(tickets []domain.TicketSLAView, now time.Time) Metrics {
	var overall tally
	overdueCount := 0

	perPriority := map[domain.TicketPriority]*tally{
		domain.TicketPriorityP1: {},
		domain.TicketPriorityP2: {},
		domain.TicketPriorityP3: {},
		domain.TicketPriorityP4: {},
	}

	for _, ticket := range tickets {
		status := EvaluateStatus(ticket, now)

		group, ok := perPriority[ticket.Priority]
		if !ok {
			group = &tally{}
			perPriority[ticket.Priority] = group
		}

		overall.total++
		group.total++

		if status.ResponseMet != nil {
			overall.responseEvaluated++
			group.responseEvaluated++
			if *status.ResponseMet {
				overall.responseMet++
				group.responseMet++
			}
		}
		if status.ResolutionMet != nil {
			overall.resolutionEvaluated++
			group.resolutionEvaluated++
			if *status.ResolutionMet {
				overall.resolutionMet++
				group.resolutionMet++
			}
		}
		if status.Overdue {
			overdueCount++
		}
	}

	byPriority := make(map[domain.TicketPriority]PriorityMetrics, len(perPriority))
	for priority, group := range perPriority {
		byPriority[priority] = PriorityMetrics{
			Total:              group.total,
			ResponseMetCount:   group.responseMet,
			ResponseMetRate:    rate(group.responseMet, group.responseEvaluated),
			ResolutionMetCount: group.resolutionMet,
			ResolutionMetRate:  rate(group.resolutionMet, group.resolutionEvaluated),
		}
	}

	return Metrics{
		Total:              overall.total,
		ResponseMetCount:   overall.responseMet,
		ResponseMetRate:    rate(overall.responseMet, overall.responseEvaluated),
		ResolutionMetCount: overall.resolutionMet,
		ResolutionMetRate:  rate(overall.resolutionMet, overall.resolutionEvaluated),
		OverdueCount:       overdueCount,
		OverdueRate:        rate(overdueCount, overall.total),
		ByPriority:         byPriority,
	}
}

// rate returns met/evaluated as a percentage rounded to two decimals, or 0
// when nothing was evaluable.
func rate(met, evaluated int) float64 {
	if evaluated == 0 {
		return 0
	}
	return math.Round(float64(met)/float64(evaluated)*100*100) / 100
}
