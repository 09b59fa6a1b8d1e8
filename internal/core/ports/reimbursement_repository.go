package ports

import (
	"context"
	"time"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// ReimbursementRepository is the storage gateway for reimbursements.
type ReimbursementRepository interface {
	GetAll(ctx context.Context) ([]*domain.Reimbursement, error)
	GetByID(ctx context.Context, id int) (r *domain.Reimbursement, found bool, err error)
	// AddNew persists r as given and sets r.ID to the store-assigned id.
	AddNew(ctx context.Context, r *domain.Reimbursement) (*domain.Reimbursement, error)
	// Update sets amount, description, author and type on the record with
	// r.ID, only while it is still pending. It reports false when no pending
	// record matched.
	Update(ctx context.Context, r *domain.Reimbursement) (bool, error)
	GetAllByAuthor(ctx context.Context, authorID int) ([]*domain.Reimbursement, error)
	FilterByType(ctx context.Context, t domain.ReimbursementType) ([]*domain.Reimbursement, error)
	FilterByStatus(ctx context.Context, s domain.Status) ([]*domain.Reimbursement, error)
	// SetStatus atomically resolves a pending record: status, resolved time
	// and resolver. It reports false when no pending record matched.
	SetStatus(ctx context.Context, res domain.Resolution, resolvedAt time.Time) (bool, error)
}
