package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

type eventRow struct {
	ReimbursementID int       `db:"reimb_id"`
	Action          string    `db:"action"`
	Status          int       `db:"reimb_status_id"`
	ActorID         int       `db:"actor_id"`
	OccurredAt      time.Time `db:"occurred_at"`
}

// EventRepository stores the reimbursement audit trail in PostgreSQL.
type EventRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewEventRepository(db *sqlx.DB, log zerolog.Logger) *EventRepository {
	return &EventRepository{db: db, log: log}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.ReimbursementEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const q = `INSERT INTO ers_reimbursement_events (reimb_id, action, reimb_status_id, actor_id, occurred_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, q,
		event.ReimbursementID, event.Action, int(event.Status), event.ActorID, event.OccurredAt.UTC())
	return err
}

func (r *EventRepository) ListEvents(ctx context.Context, reimbursementID int) ([]*domain.ReimbursementEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const q = `SELECT reimb_id, action, reimb_status_id, actor_id, occurred_at
FROM ers_reimbursement_events
WHERE reimb_id = $1
ORDER BY occurred_at, event_id`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, q, reimbursementID); err != nil {
		return nil, storageFault(r.log, err, "select events")
	}

	out := make([]*domain.ReimbursementEvent, len(rows))
	for i, row := range rows {
		out[i] = &domain.ReimbursementEvent{
			ReimbursementID: row.ReimbursementID,
			Action:          row.Action,
			Status:          domain.Status(row.Status),
			ActorID:         row.ActorID,
			OccurredAt:      row.OccurredAt.UTC(),
		}
	}
	return out, nil
}
