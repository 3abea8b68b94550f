package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskcore/sla-engine/internal/domain"
)

// ReportFilter narrows the ticket set for metrics reporting.
type ReportFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TicketSLARepository reads the SLA projection of the externally owned
// tickets table. This engine never writes ticket rows.
type TicketSLARepository interface {
	// ListActiveWithDeadlines returns tickets still being monitored: not
	// closed, canceled or resolved, with at least one deadline set.
	ListActiveWithDeadlines(ctx context.Context) ([]domain.TicketSLAView, error)
	// ListForReport returns tickets for metrics aggregation; canceled
	// tickets are excluded.
	ListForReport(ctx context.Context, filter ReportFilter) ([]domain.TicketSLAView, error)
	GetByID(ctx context.Context, id string) (*domain.TicketSLAView, error)
}

const ticketSLAColumns = `ticket_id, ticket_number, subject, priority, status, assignee_id,
               created_at, assigned_at, resolved_at, response_due_at, due_at`

type ticketSLARepository struct {
	pool *pgxpool.Pool
}

// NewTicketSLARepository instantiates the repository.
func NewTicketSLARepository(pool *pgxpool.Pool) TicketSLARepository {
	return &ticketSLARepository{pool: pool}
}

func (r *ticketSLARepository) ListActiveWithDeadlines(ctx context.Context) ([]domain.TicketSLAView, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM tickets
        WHERE status NOT IN ($1, $2, $3)
          AND (response_due_at IS NOT NULL OR due_at IS NOT NULL)
        ORDER BY priority, due_at`, ticketSLAColumns)

	rows, err := r.pool.Query(ctx, query,
		domain.TicketStatusClosed,
		domain.TicketStatusCanceled,
		domain.TicketStatusResolved,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTicketViews(rows)
}

func (r *ticketSLARepository) ListForReport(ctx context.Context, filter ReportFilter) ([]domain.TicketSLAView, error) {
	clauses := []string{"status <> $1"}
	args := []any{domain.TicketStatusCanceled}

	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM tickets
        WHERE %s
        ORDER BY created_at`, ticketSLAColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTicketViews(rows)
}

func (r *ticketSLARepository) GetByID(ctx context.Context, id string) (*domain.TicketSLAView, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM tickets
        WHERE ticket_id = $1`, ticketSLAColumns)

	var ticket domain.TicketSLAView
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.TicketID,
		&ticket.Number,
		&ticket.Subject,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.AssignedAt,
		&ticket.ResolvedAt,
		&ticket.ResponseDueAt,
		&ticket.DueAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTicketViews(rows pgx.Rows) ([]domain.TicketSLAView, error) {
	var result []domain.TicketSLAView
	for rows.Next() {
		var ticket domain.TicketSLAView
		if err := rows.Scan(
			&ticket.TicketID,
			&ticket.Number,
			&ticket.Subject,
			&ticket.Priority,
			&ticket.Status,
			&ticket.AssigneeID,
			&ticket.CreatedAt,
			&ticket.AssignedAt,
			&ticket.ResolvedAt,
			&ticket.ResponseDueAt,
			&ticket.DueAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
