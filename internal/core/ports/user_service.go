package ports

import (
	"context"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// QueryField is one key/value pair of a user lookup, in request order.
type QueryField struct {
	Key   string
	Value string
}

// UserService defines the user use cases. Returned users never carry a password.
type UserService interface {
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	GetUserByID(ctx context.Context, id int) (*domain.User, error)
	// GetUserByUniqueKey supports single-key lookups; only query[0] is used.
	GetUserByUniqueKey(ctx context.Context, query []QueryField) (*domain.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error)
	AddNewUser(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (bool, error)
	DeleteUserByID(ctx context.Context, id int) (bool, error)
}
