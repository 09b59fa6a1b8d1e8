package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/pkg/password"
)

const selectUsers = `SELECT u.ers_user_id, u.username, u.password, u.first_name, u.last_name, u.email, r.role_name
FROM ers_users u
JOIN ers_user_roles r ON u.user_role_id = r.role_id`

// userColumns maps queryable JSON attributes to columns. Keys outside the map
// never reach the SQL text.
var userColumns = map[string]string{
	"id":         "u.ers_user_id",
	"username":   "u.username",
	"first_name": "u.first_name",
	"last_name":  "u.last_name",
	"email":      "u.email",
	"role":       "r.role_name",
}

type userRow struct {
	ID        int    `db:"ers_user_id"`
	Username  string `db:"username"`
	Password  string `db:"password"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
	Role      string `db:"role_name"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		Username:  r.Username,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Role:      r.Role,
	}
}

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewUserRepository(db *sqlx.DB, log zerolog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, selectUsers+` ORDER BY u.ers_user_id`); err != nil {
		return nil, storageFault(r.log, err, "select users")
	}

	users := make([]*domain.User, len(rows))
	for i, row := range rows {
		users[i] = row.toDomain()
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*domain.User, bool, error) {
	return r.getOne(ctx, selectUsers+` WHERE u.ers_user_id = $1`, id)
}

func (r *UserRepository) GetByUniqueKey(ctx context.Context, key, value string) (*domain.User, bool, error) {
	col, ok := userColumns[key]
	if !ok || key == "id" {
		return nil, false, nil
	}
	return r.getOne(ctx, selectUsers+` WHERE `+col+` = $1 ORDER BY u.ers_user_id LIMIT 1`, value)
}

func (r *UserRepository) GetByCredentials(ctx context.Context, username, pw string) (*domain.User, bool, error) {
	user, found, err := r.getOne(ctx, selectUsers+` WHERE u.username = $1`, username)
	if err != nil || !found {
		return nil, false, err
	}
	if !password.Verify(user.Password, pw) {
		return nil, false, nil
	}
	return user, true, nil
}

func (r *UserRepository) AddNew(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const q = `INSERT INTO ers_users (username, password, first_name, last_name, email, user_role_id)
VALUES ($1, $2, $3, $4, $5, (SELECT role_id FROM ers_user_roles WHERE role_name = $6))
RETURNING ers_user_id`

	var id int
	err := r.db.QueryRowxContext(ctx, q,
		user.Username, user.Password, user.FirstName, user.LastName, user.Email, user.Role,
	).Scan(&id)
	if err != nil {
		if cerr := constraintError(err, user.Role); cerr != nil {
			return nil, cerr
		}
		return nil, storageFault(r.log, err, "insert user")
	}

	created := *user
	created.ID = id
	return &created, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const q = `UPDATE ers_users
SET username = $2, password = $3, first_name = $4, last_name = $5, email = $6,
    user_role_id = (SELECT role_id FROM ers_user_roles WHERE role_name = $7)
WHERE ers_user_id = $1`

	res, err := r.db.ExecContext(ctx, q,
		user.ID, user.Username, user.Password, user.FirstName, user.LastName, user.Email, user.Role,
	)
	if err != nil {
		if cerr := constraintError(err, user.Role); cerr != nil {
			return false, cerr
		}
		return false, storageFault(r.log, err, "update user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageFault(r.log, err, "update user")
	}
	return n == 1, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM ers_users WHERE ers_user_id = $1`, id); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return false, domain.NewError(domain.KindConflict, "user %d is referenced by reimbursements", id)
		}
		return false, storageFault(r.log, err, "delete user")
	}
	return true, nil
}

func (r *UserRepository) getOne(ctx context.Context, q string, arg any) (*domain.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row userRow
	if err := r.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, storageFault(r.log, err, "select user")
	}
	return row.toDomain(), true, nil
}

// constraintError maps user write violations to domain errors. A role name
// missing from ers_user_roles resolves to a NULL role id.
func constraintError(err error, role string) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return domain.NewError(domain.KindResourcePersistence, "username or email is already taken")
	case codeNotNullViolation:
		return domain.NewError(domain.KindBadRequest, "role %q is not registered", role)
	}
	return nil
}
