package ports

import (
	"context"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// AuthService opens, resolves and closes authenticated sessions.
type AuthService interface {
	Login(ctx context.Context, username, password string) (token string, principal *domain.Principal, err error)
	// Resolve maps a session token to the principal of its live session.
	Resolve(ctx context.Context, token string) (principal *domain.Principal, sessionID string, err error)
	Logout(ctx context.Context, sessionID string) error
}
