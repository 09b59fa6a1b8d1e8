package ports

import (
	"context"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// EventRepository persists the reimbursement audit trail.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.ReimbursementEvent) error
	// ListEvents returns the events of one reimbursement, oldest first.
	ListEvents(ctx context.Context, reimbursementID int) ([]*domain.ReimbursementEvent, error)
}
