package ports

import (
	"context"
	"time"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// SessionStore keeps server-side sessions keyed by an opaque session id.
type SessionStore interface {
	Create(ctx context.Context, principal *domain.Principal, ttl time.Duration) (sessionID string, err error)
	Get(ctx context.Context, sessionID string) (principal *domain.Principal, found bool, err error)
	Delete(ctx context.Context, sessionID string) error
}
