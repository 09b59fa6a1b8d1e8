package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

const selectReimbursements = `SELECT reimb_id, amount, submitted, resolved, description, author_id, resolver_id, reimb_status_id, reimb_type_id
FROM ers_reimbursements`

type reimbursementRow struct {
	ID          int        `db:"reimb_id"`
	Amount      float64    `db:"amount"`
	Submitted   time.Time  `db:"submitted"`
	Resolved    *time.Time `db:"resolved"`
	Description string     `db:"description"`
	Author      int        `db:"author_id"`
	Resolver    *int       `db:"resolver_id"`
	Status      int        `db:"reimb_status_id"`
	Type        int        `db:"reimb_type_id"`
}

func (r reimbursementRow) toDomain() *domain.Reimbursement {
	out := &domain.Reimbursement{
		ID:          r.ID,
		Amount:      r.Amount,
		Submitted:   r.Submitted.UTC(),
		Description: r.Description,
		Author:      r.Author,
		Resolver:    r.Resolver,
		Status:      domain.Status(r.Status),
		Type:        domain.ReimbursementType(r.Type),
	}
	if r.Resolved != nil {
		resolved := r.Resolved.UTC()
		out.Resolved = &resolved
	}
	return out
}

// ReimbursementRepository implements ports.ReimbursementRepository on PostgreSQL.
type ReimbursementRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewReimbursementRepository(db *sqlx.DB, log zerolog.Logger) *ReimbursementRepository {
	return &ReimbursementRepository{db: db, log: log}
}

func (r *ReimbursementRepository) GetAll(ctx context.Context) ([]*domain.Reimbursement, error) {
	return r.list(ctx, selectReimbursements+` ORDER BY reimb_id`)
}

func (r *ReimbursementRepository) GetByID(ctx context.Context, id int) (*domain.Reimbursement, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row reimbursementRow
	if err := r.db.GetContext(ctx, &row, selectReimbursements+` WHERE reimb_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, storageFault(r.log, err, "select reimbursement")
	}
	return row.toDomain(), true, nil
}

func (r *ReimbursementRepository) AddNew(ctx context.Context, rb *domain.Reimbursement) (*domain.Reimbursement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const q = `INSERT INTO ers_reimbursements (amount, submitted, resolved, description, author_id, resolver_id, reimb_status_id, reimb_type_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING reimb_id`

	var id int
	err := r.db.QueryRowxContext(ctx, q,
		rb.Amount, rb.Submitted, rb.Resolved, rb.Description, rb.Author, rb.Resolver, int(rb.Status), int(rb.Type),
	).Scan(&id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return nil, domain.NewError(domain.KindBadRequest, "author %d does not exist", rb.Author)
		}
		return nil, storageFault(r.log, err, "insert reimbursement")
	}

	created := *rb
	created.ID = id
	return &created, nil
}

func (r *ReimbursementRepository) Update(ctx context.Context, rb *domain.Reimbursement) (bool, error) {
	const q = `UPDATE ers_reimbursements
SET amount = $2, description = $3, author_id = $4, reimb_type_id = $5
WHERE reimb_id = $1 AND reimb_status_id = $6`

	return r.exec(ctx, "update reimbursement", q,
		rb.ID, rb.Amount, rb.Description, rb.Author, int(rb.Type), int(domain.StatusPending))
}

func (r *ReimbursementRepository) GetAllByAuthor(ctx context.Context, authorID int) ([]*domain.Reimbursement, error) {
	return r.list(ctx, selectReimbursements+` WHERE author_id = $1 ORDER BY reimb_id`, authorID)
}

func (r *ReimbursementRepository) FilterByType(ctx context.Context, t domain.ReimbursementType) ([]*domain.Reimbursement, error) {
	return r.list(ctx, selectReimbursements+` WHERE reimb_type_id = $1 ORDER BY reimb_id`, int(t))
}

func (r *ReimbursementRepository) FilterByStatus(ctx context.Context, s domain.Status) ([]*domain.Reimbursement, error) {
	return r.list(ctx, selectReimbursements+` WHERE reimb_status_id = $1 ORDER BY reimb_id`, int(s))
}

func (r *ReimbursementRepository) SetStatus(ctx context.Context, res domain.Resolution, resolvedAt time.Time) (bool, error) {
	const q = `UPDATE ers_reimbursements
SET reimb_status_id = $2, resolved = $3, resolver_id = $4
WHERE reimb_id = $1 AND reimb_status_id = $5`

	return r.exec(ctx, "resolve reimbursement", q,
		res.ID, int(res.Status), resolvedAt.UTC(), res.Resolver, int(domain.StatusPending))
}

// exec runs a conditional write and reports whether exactly one row matched.
func (r *ReimbursementRepository) exec(ctx context.Context, op, q string, args ...any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return false, domain.NewError(domain.KindBadRequest, "referenced user does not exist")
		}
		return false, storageFault(r.log, err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageFault(r.log, err, op)
	}
	return n == 1, nil
}

func (r *ReimbursementRepository) list(ctx context.Context, q string, args ...any) ([]*domain.Reimbursement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []reimbursementRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, storageFault(r.log, err, "select reimbursements")
	}

	out := make([]*domain.Reimbursement, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}
