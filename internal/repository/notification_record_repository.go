package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRecordRepository is the durable dedup ledger. Rows are created
// once per (ticket, level, track) and never updated; the uniqueness
// constraint makes Insert safe to race from concurrent scheduler instances.
type NotificationRecordRepository interface {
	Exists(ctx context.Context, ticketID, level, track string) (bool, error)
	Insert(ctx context.Context, ticketID, level, track string) error
	Healthy(ctx context.Context) error
}

type notificationRecordRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRecordRepository instantiates the repository.
func NewNotificationRecordRepository(pool *pgxpool.Pool) NotificationRecordRepository {
	return &notificationRecordRepository{pool: pool}
}

func (r *notificationRecordRepository) Exists(ctx context.Context, ticketID, level, track string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM sla_notifications
            WHERE ticket_id = $1 AND notification_level = $2 AND notification_track = $3
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ticketID, level, track).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *notificationRecordRepository) Insert(ctx context.Context, ticketID, level, track string) error {
	// Conditional insert: two schedulers racing on the same key converge to
	// exactly one stored row.
	const query = `
        INSERT INTO sla_notifications (ticket_id, notification_level, notification_track)
        VALUES ($1, $2, $3)
        ON CONFLICT (ticket_id, notification_level, notification_track) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, ticketID, level, track)
	return err
}

func (r *notificationRecordRepository) Healthy(ctx context.Context) error {
	const query = `SELECT 1 FROM sla_notifications LIMIT 1`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}
