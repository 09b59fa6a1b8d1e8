package ports

import (
	"context"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// ReimbursementService defines the reimbursement lifecycle use cases.
type ReimbursementService interface {
	GetAllReimbursements(ctx context.Context) ([]*domain.Reimbursement, error)
	GetReimbursementByID(ctx context.Context, id int) (*domain.Reimbursement, error)
	GetAllMyReimbursements(ctx context.Context, authorID int) ([]*domain.Reimbursement, error)
	FilterReimbByType(ctx context.Context, t domain.ReimbursementType) ([]*domain.Reimbursement, error)
	FilterReimbByStatus(ctx context.Context, s domain.Status) ([]*domain.Reimbursement, error)
	AddNewReimbursement(ctx context.Context, candidate *domain.Reimbursement) (*domain.Reimbursement, error)
	UpdateReimbursement(ctx context.Context, candidate *domain.Reimbursement) (bool, error)
	SetReimbursementStatus(ctx context.Context, res *domain.Resolution) (bool, error)
	ListReimbursementEvents(ctx context.Context, id int) ([]*domain.ReimbursementEvent, error)
}
