package handlers

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskcore/sla-engine/internal/domain"
	"github.com/deskcore/sla-engine/internal/repository"
	"github.com/deskcore/sla-engine/internal/sla"
	apperrors "github.com/deskcore/sla-engine/pkg/util/errorutil"
)

// SLAHandler exposes the reporting surface: policies, compliance metrics,
// per-ticket status and due-date previews. All operations are read-only.
type SLAHandler struct {
	registry   *sla.Registry
	calculator *sla.Calculator
	tickets    repository.TicketSLARepository
	logger     *zap.Logger
}

// NewSLAHandler returns a new handler instance.
func NewSLAHandler(registry *sla.Registry, calculator *sla.Calculator, tickets repository.TicketSLARepository, logger *zap.Logger) *SLAHandler {
	return &SLAHandler{registry: registry, calculator: calculator, tickets: tickets, logger: logger}
}

// Policies returns the full policy table.
func (h *SLAHandler) Policies(c *fiber.Ctx) error {
	all := h.registry.AllPolicies()
	policies := make([]sla.Policy, 0, len(all))
	for _, policy := range all {
		policies = append(policies, policy)
	}
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].Priority < policies[j].Priority
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"policies": policies},
	})
}

// Metrics aggregates compliance rates over tickets in an optional
// created-at range.
func (h *SLAHandler) Metrics(c *fiber.Ctx) error {
	filter := repository.ReportFilter{}

	if raw := c.Query("from_date"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid from_date", map[string]any{"from_date": raw})
		}
		filter.CreatedFrom = &from
	}
	if raw := c.Query("to_date"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid to_date", map[string]any{"to_date": raw})
		}
		filter.CreatedTo = &to
	}

	tickets, err := h.tickets.ListForReport(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}

	metrics := sla.CalculateMetrics(tickets, time.Now())
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"metrics": metrics},
	})
}

// TicketStatus reports one ticket's SLA state, remaining time per track and
// the governing policy.
func (h *SLAHandler) TicketStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	ticket, err := h.tickets.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return apperrors.MapError(err)
	}

	now := time.Now()
	status := sla.EvaluateStatus(*ticket, now)

	policy, err := h.registry.Policy(ticket.Priority)
	if err != nil {
		// A persisted ticket with a priority outside the registry is a
		// deployment defect; surface it rather than default.
		return apperrors.MapError(err)
	}

	data := fiber.Map{
		"ticket_id": ticket.TicketID,
		"priority":  ticket.Priority,
		"status":    ticket.Status,
		"sla": fiber.Map{
			"responseMetSLA":            status.ResponseMet,
			"resolutionMetSLA":          status.ResolutionMet,
			"isOverdue":                 status.Overdue,
			"response_due_at":           ticket.ResponseDueAt,
			"due_at":                    ticket.DueAt,
			"responseTimeRemainingMs":   remainingMs(ticket.ResponseDueAt, now),
			"resolutionTimeRemainingMs": remainingMs(ticket.DueAt, now),
		},
		"policy": policy,
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// DueDatePreviewRequest is the body for the due-date preview endpoint.
type DueDatePreviewRequest struct {
	Priority  domain.TicketPriority `json:"priority"`
	CreatedAt time.Time             `json:"created_at"`
}

// PreviewDueDates computes the deadlines a ticket would get. Callers
// handling a priority change pass the ticket's original creation instant so
// the recomputed deadlines stay anchored there.
func (h *SLAHandler) PreviewDueDates(c *fiber.Ctx) error {
	var req DueDatePreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if !req.Priority.Valid() {
		return apperrors.NewValidationError(
			fmt.Sprintf("invalid priority %q", req.Priority),
			map[string]any{"priority": req.Priority})
	}
	if req.CreatedAt.IsZero() {
		return apperrors.NewValidationError("created_at is required", nil)
	}

	dueDates, err := h.calculator.CalculateDueDates(req.Priority, req.CreatedAt)
	if err != nil {
		return apperrors.MapError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"priority":        req.Priority,
			"created_at":      req.CreatedAt,
			"response_due_at": dueDates.ResponseDueAt,
			"due_at":          dueDates.ResolutionDueAt,
		},
	})
}

func remainingMs(dueAt *time.Time, now time.Time) *int64 {
	if dueAt == nil {
		return nil
	}
	ms := dueAt.Sub(now).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
