package ports

import (
	"context"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// UserRepository is the storage gateway for users.
//
// Lookups report absence through found=false, never through an error. Any
// storage fault is returned as a domain error of kind KindInternal.
type UserRepository interface {
	GetAll(ctx context.Context) ([]*domain.User, error)
	GetByID(ctx context.Context, id int) (user *domain.User, found bool, err error)
	// GetByUniqueKey looks a user up by one JSON attribute (e.g. "username").
	GetByUniqueKey(ctx context.Context, key, value string) (user *domain.User, found bool, err error)
	// GetByCredentials returns the user whose username and password match.
	GetByCredentials(ctx context.Context, username, password string) (user *domain.User, found bool, err error)
	// AddNew persists user and returns it with the store-assigned ID.
	AddNew(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (bool, error)
	// DeleteByID returns true when no user with id remains. Deleting a user
	// still referenced by reimbursements fails with KindConflict.
	DeleteByID(ctx context.Context, id int) (bool, error)
}
