package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
	"github.com/ers-app/reimbursement-api/internal/pkg/password"
)

type stubUserRepo struct {
	users  map[int]*domain.User
	nextID int
	calls  int
	err    error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[int]*domain.User), nextID: 1}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) GetAll(_ context.Context) ([]*domain.User, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id int) (*domain.User, bool, error) {
	r.calls++
	if r.err != nil {
		return nil, false, r.err
	}
	u, ok := r.users[id]
	return cloneUser(u), ok, nil
}

func (r *stubUserRepo) GetByUniqueKey(_ context.Context, key, value string) (*domain.User, bool, error) {
	r.calls++
	if r.err != nil {
		return nil, false, r.err
	}
	for _, u := range r.users {
		if (key == "username" && u.Username == value) || (key == "email" && u.Email == value) {
			return cloneUser(u), true, nil
		}
	}
	return nil, false, nil
}

func (r *stubUserRepo) GetByCredentials(_ context.Context, username, pw string) (*domain.User, bool, error) {
	r.calls++
	if r.err != nil {
		return nil, false, r.err
	}
	for _, u := range r.users {
		if u.Username == username && password.Verify(u.Password, pw) {
			return cloneUser(u), true, nil
		}
	}
	return nil, false, nil
}

func (r *stubUserRepo) AddNew(_ context.Context, user *domain.User) (*domain.User, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	u := cloneUser(user)
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (bool, error) {
	r.calls++
	if _, ok := r.users[user.ID]; !ok {
		return false, nil
	}
	r.users[user.ID] = cloneUser(user)
	return true, nil
}

func (r *stubUserRepo) DeleteByID(_ context.Context, id int) (bool, error) {
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	delete(r.users, id)
	return true, nil
}

func hashed(t *testing.T, plain string) string {
	t.Helper()
	h, err := password.Hash(plain, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func seedUser(t *testing.T) *domain.User {
	return &domain.User{
		ID:        1,
		Username:  "jdoe",
		Password:  hashed(t, "p4ss"),
		FirstName: "John",
		LastName:  "Doe",
		Email:     "jdoe@example.com",
		Role:      domain.RoleEmployee,
	}
}

func newUserSvc(repo *stubUserRepo) *UserService {
	return NewUserService(repo, bcrypt.MinCost, zerolog.Nop())
}

func TestUserService_GetAllUsers(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(seedUser(t)))

	users, err := svc.GetAllUsers(context.Background())
	if err != nil {
		t.Fatalf("GetAllUsers returned error: %v", err)
	}
	if len(users) != 1 || users[0].Password != "" {
		t.Fatalf("expected one user without password, got %+v", users)
	}
}

func TestUserService_GetAllUsers_Empty(t *testing.T) {
	svc := newUserSvc(newStubUserRepo())

	if _, err := svc.GetAllUsers(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_GetUserByID_InvalidIDSkipsStorage(t *testing.T) {
	repo := newStubUserRepo(seedUser(t))
	svc := newUserSvc(repo)

	for _, id := range []int{0, -2} {
		if _, err := svc.GetUserByID(context.Background(), id); !errors.Is(err, domain.ErrBadRequest) {
			t.Fatalf("id %d: expected ErrBadRequest, got %v", id, err)
		}
	}
	if repo.calls != 0 {
		t.Fatalf("expected no storage calls, got %d", repo.calls)
	}
}

func TestUserService_GetUserByID(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(seedUser(t)))

	u, err := svc.GetUserByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if u.Username != "jdoe" || u.Password != "" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := svc.GetUserByID(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_GetUserByUniqueKey(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(seedUser(t)))
	ctx := context.Background()

	u, err := svc.GetUserByUniqueKey(ctx, []ports.QueryField{{Key: "username", Value: "jdoe"}})
	if err != nil || u.ID != 1 {
		t.Fatalf("username lookup: user=%+v err=%v", u, err)
	}
	if u.Password != "" {
		t.Fatalf("expected password stripped")
	}

	u, err = svc.GetUserByUniqueKey(ctx, []ports.QueryField{{Key: "id", Value: "1"}})
	if err != nil || u.Username != "jdoe" {
		t.Fatalf("id lookup: user=%+v err=%v", u, err)
	}

	// only the first key is used
	u, err = svc.GetUserByUniqueKey(ctx, []ports.QueryField{{Key: "email", Value: "jdoe@example.com"}, {Key: "username", Value: "other"}})
	if err != nil || u.ID != 1 {
		t.Fatalf("first-key lookup: user=%+v err=%v", u, err)
	}

	if _, err := svc.GetUserByUniqueKey(ctx, []ports.QueryField{{Key: "username", Value: "ghost"}}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_GetUserByUniqueKey_BadRequest(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(seedUser(t)))
	ctx := context.Background()

	cases := map[string][]ports.QueryField{
		"empty query":    nil,
		"unknown key":    {{Key: "shoe_size", Value: "9"}},
		"password key":   {{Key: "password", Value: "p4ss"}},
		"bad second key": {{Key: "username", Value: "jdoe"}, {Key: "nope", Value: "x"}},
		"empty value":    {{Key: "username", Value: ""}},
		"non-numeric id": {{Key: "id", Value: "abc"}},
	}
	for name, q := range cases {
		if _, err := svc.GetUserByUniqueKey(ctx, q); !errors.Is(err, domain.ErrBadRequest) {
			t.Fatalf("%s: expected ErrBadRequest, got %v", name, err)
		}
	}
}

func TestUserService_AuthenticateUser(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(seedUser(t)))
	ctx := context.Background()

	u, err := svc.AuthenticateUser(ctx, "jdoe", "p4ss")
	if err != nil {
		t.Fatalf("AuthenticateUser returned error: %v", err)
	}
	if u.Password != "" {
		t.Fatalf("expected password stripped")
	}

	if _, err := svc.AuthenticateUser(ctx, "jdoe", "wrong"); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if _, err := svc.AuthenticateUser(ctx, "", "p4ss"); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestUserService_AddNewUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)

	in := &domain.User{Username: "asmith", Password: "pw", FirstName: "Ann", LastName: "Smith", Email: "ann@example.com", Role: domain.RoleManager}
	created, err := svc.AddNewUser(context.Background(), in)
	if err != nil {
		t.Fatalf("AddNewUser returned error: %v", err)
	}
	if created.ID != 1 || created.Password != "" {
		t.Fatalf("unexpected created user: %+v", created)
	}
	stored := repo.users[created.ID]
	if stored.Password == "pw" || !password.Verify(stored.Password, "pw") {
		t.Fatalf("expected stored password to be a hash of the input")
	}
	if in.Password != "pw" {
		t.Fatalf("caller's user must not be mutated")
	}
}

func TestUserService_AddNewUser_UnlistedRole(t *testing.T) {
	svc := newUserSvc(newStubUserRepo())

	in := &domain.User{Username: "kaudit", Password: "pw", FirstName: "Kim", LastName: "Audit", Email: "kim@example.com", Role: "auditor"}
	created, err := svc.AddNewUser(context.Background(), in)
	if err != nil {
		t.Fatalf("AddNewUser returned error: %v", err)
	}
	if created.Role != "auditor" {
		t.Fatalf("expected role auditor, got %q", created.Role)
	}
}

func TestUserService_AddNewUser_Taken(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(seedUser(t)))
	ctx := context.Background()

	dupName := &domain.User{Username: "jdoe", Password: "pw", FirstName: "J", LastName: "D", Email: "new@example.com", Role: domain.RoleEmployee}
	if _, err := svc.AddNewUser(ctx, dupName); !errors.Is(err, domain.ErrResourcePersistence) {
		t.Fatalf("expected ErrResourcePersistence for username, got %v", err)
	}

	dupEmail := &domain.User{Username: "fresh", Password: "pw", FirstName: "J", LastName: "D", Email: "jdoe@example.com", Role: domain.RoleEmployee}
	if _, err := svc.AddNewUser(ctx, dupEmail); !errors.Is(err, domain.ErrResourcePersistence) {
		t.Fatalf("expected ErrResourcePersistence for email, got %v", err)
	}
}

func TestUserService_AddNewUser_InvalidSkipsStorage(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo)

	if _, err := svc.AddNewUser(context.Background(), &domain.User{Username: "x"}); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if repo.calls != 0 {
		t.Fatalf("expected no storage calls, got %d", repo.calls)
	}
}

func TestUserService_AddNewUser_StorageFault(t *testing.T) {
	repo := newStubUserRepo()
	repo.err = domain.NewError(domain.KindInternal, "storage unavailable")
	svc := newUserSvc(repo)

	in := &domain.User{Username: "a", Password: "pw", FirstName: "A", LastName: "B", Email: "a@example.com", Role: domain.RoleEmployee}
	if _, err := svc.AddNewUser(context.Background(), in); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestUserService_UpdateUser(t *testing.T) {
	repo := newStubUserRepo(seedUser(t))
	svc := newUserSvc(repo)

	u := seedUser(t)
	u.Password = "n3w"
	u.FirstName = "Johnny"
	ok, err := svc.UpdateUser(context.Background(), u)
	if err != nil || !ok {
		t.Fatalf("UpdateUser: ok=%v err=%v", ok, err)
	}
	if !password.Verify(repo.users[1].Password, "n3w") {
		t.Fatalf("expected password re-hashed")
	}

	u.ID = 0
	if _, err := svc.UpdateUser(context.Background(), u); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest without id, got %v", err)
	}
}

func TestUserService_DeleteUserByID(t *testing.T) {
	repo := newStubUserRepo(seedUser(t))
	svc := newUserSvc(repo)

	ok, err := svc.DeleteUserByID(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("DeleteUserByID: ok=%v err=%v", ok, err)
	}
	if _, err := svc.GetUserByID(context.Background(), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}
	if _, err := svc.DeleteUserByID(context.Background(), 0); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}
