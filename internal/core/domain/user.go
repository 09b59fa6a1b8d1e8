package domain

// Known roles. The set is open: stores may register further role names.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// User models an actor of the reimbursement system.
//
// Password is only populated on writes and on gateway reads that need the
// stored hash; services strip it before a User leaves the core.
type User struct {
	ID        int    `json:"id"                 validate:"required,gt=0"`
	Username  string `json:"username"           validate:"required"`
	Password  string `json:"password,omitempty" validate:"required"`
	FirstName string `json:"first_name"         validate:"required"`
	LastName  string `json:"last_name"          validate:"required"`
	Email     string `json:"email"              validate:"required,email"`
	Role      string `json:"role"               validate:"required"`
}

// WithoutPassword returns a copy of u with the password cleared.
func (u *User) WithoutPassword() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Password = ""
	return &clone
}

// Principal is the identity attached to an authenticated session.
type Principal struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// PrincipalOf builds the session identity of an authenticated user.
func PrincipalOf(u *User) *Principal {
	return &Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}
