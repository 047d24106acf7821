package db

import (
	"context"
	"time"

	"bookbliss/internal/types"
)

// ScheduleRepository persists the notifier's schedule snapshot in the
// notification_schedules table. Each write replaces the full snapshot: the
// table is a shadow of the in-memory registry, not the source of truth, so a
// torn write is repaired by the next snapshot.
type ScheduleRepository struct {
	db DBTX
}

// NewScheduleRepository creates a new ScheduleRepository backed by the given
// database connection (pool or transaction). Pass a pgx.Tx to make the
// replace atomic.
func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Read returns all persisted schedule records ordered by order ID.
func (r *ScheduleRepository) Read(ctx context.Context) ([]types.ScheduleRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT order_id, recipient, status, update_count, last_sent_at
		 FROM notification_schedules
		 ORDER BY order_id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalSnapshot, "failed to read schedule snapshot", err)
	}
	defer rows.Close()

	records := []types.ScheduleRecord{}
	for rows.Next() {
		var rec types.ScheduleRecord
		if err := rows.Scan(&rec.OrderID, &rec.Recipient, &rec.Status, &rec.UpdateCount, &rec.LastSentAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalSnapshot, "failed to scan schedule row", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalSnapshot, "failed to iterate schedule rows", err)
	}
	return records, nil
}

// Write replaces the persisted snapshot with the given records.
func (r *ScheduleRepository) Write(ctx context.Context, records []types.ScheduleRecord) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM notification_schedules`); err != nil {
		return types.NewAppError(types.ErrCodeInternalSnapshot, "failed to clear schedule snapshot", err)
	}
	for _, rec := range records {
		_, err := r.db.Exec(ctx,
			`INSERT INTO notification_schedules (order_id, recipient, status, update_count, last_sent_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			rec.OrderID,
			rec.Recipient,
			rec.Status,
			rec.UpdateCount,
			rec.LastSentAt,
		)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalSnapshot, "failed to write schedule record", err)
		}
	}
	return nil
}

// nilIfZeroTime returns nil if the time is zero, otherwise returns a pointer
// to the time. Used to let the DB default (NOW()) apply when no time is set.
func nilIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
