package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
	"github.com/ers-app/reimbursement-api/internal/core/validation"
	"github.com/ers-app/reimbursement-api/internal/pkg/password"
)

// keyPassword is a User attribute that can never be used as a lookup key.
const keyPassword = "password"

// UserService enforces the user business rules on top of the user gateway.
type UserService struct {
	repo     ports.UserRepository
	hashCost int
	log      zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hashCost int, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, hashCost: hashCost, log: log}
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domain.NewError(domain.KindNotFound, "there aren't any users")
	}

	out := make([]*domain.User, len(users))
	for i, u := range users {
		out[i] = u.WithoutPassword()
	}
	return out, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (*domain.User, error) {
	if !validation.IsValidID(id) {
		return nil, domain.NewError(domain.KindBadRequest, "the id is not valid")
	}

	user, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NewError(domain.KindNotFound, "there is no user with id %d", id)
	}
	return user.WithoutPassword(), nil
}

// GetUserByUniqueKey looks a user up by the first key of query. Every key must
// be a User attribute; an "id" key reuses GetUserByID.
func (s *UserService) GetUserByUniqueKey(ctx context.Context, query []ports.QueryField) (*domain.User, error) {
	if len(query) == 0 {
		return nil, domain.NewError(domain.KindBadRequest, "a query key is required")
	}
	for _, f := range query {
		if f.Key == keyPassword || !validation.IsPropertyOf(f.Key, domain.User{}) {
			return nil, domain.NewError(domain.KindBadRequest, "%q is not a queryable user attribute", f.Key)
		}
	}

	key, val := query[0].Key, query[0].Value
	if key == "id" {
		id, _ := strconv.Atoi(val)
		return s.GetUserByID(ctx, id)
	}

	if !validation.IsValidStrings(val) {
		return nil, domain.NewError(domain.KindBadRequest, "a value for %q is required", key)
	}

	user, found, err := s.repo.GetByUniqueKey(ctx, key, val)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NewError(domain.KindNotFound, "there is no user with %s %q", key, val)
	}
	return user.WithoutPassword(), nil
}

func (s *UserService) AuthenticateUser(ctx context.Context, username, pw string) (*domain.User, error) {
	if !validation.IsValidStrings(username, pw) {
		return nil, domain.NewError(domain.KindBadRequest, "username and password are required")
	}

	user, found, err := s.repo.GetByCredentials(ctx, username, pw)
	if err != nil {
		return nil, err
	}
	if !found {
		s.log.Info().Str("username", username).Msg("authentication rejected")
		return nil, domain.NewError(domain.KindAuthentication, "bad credentials provided")
	}
	return user.WithoutPassword(), nil
}

func (s *UserService) AddNewUser(ctx context.Context, newUser *domain.User) (*domain.User, error) {
	if err := validation.ValidateObject(newUser, "ID"); err != nil {
		return nil, domain.NewError(domain.KindBadRequest, "invalid user: %v", err)
	}

	available, err := s.isAvailable(ctx, "username", newUser.Username)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domain.NewError(domain.KindResourcePersistence, "username %q is already taken", newUser.Username)
	}

	available, err = s.isAvailable(ctx, "email", newUser.Email)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domain.NewError(domain.KindResourcePersistence, "email %q is already taken", newUser.Email)
	}

	candidate, err := s.withHashedPassword(newUser)
	if err != nil {
		return nil, err
	}
	candidate.ID = 0

	persisted, err := s.repo.AddNew(ctx, candidate)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", persisted.ID).Str("username", persisted.Username).Msg("user created")
	return persisted.WithoutPassword(), nil
}

func (s *UserService) UpdateUser(ctx context.Context, user *domain.User) (bool, error) {
	if err := validation.ValidateObject(user); err != nil {
		return false, domain.NewError(domain.KindBadRequest, "invalid user: %v", err)
	}

	candidate, err := s.withHashedPassword(user)
	if err != nil {
		return false, err
	}
	return s.repo.Update(ctx, candidate)
}

// DeleteUserByID reports success when the user is no longer retrievable,
// whether or not it existed.
func (s *UserService) DeleteUserByID(ctx context.Context, id int) (bool, error) {
	if !validation.IsValidID(id) {
		return false, domain.NewError(domain.KindBadRequest, "invalid id provided")
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return false, err
	}
	s.log.Info().Int("user_id", id).Msg("user deleted")
	return deleted, nil
}

// isAvailable reports whether no user holds value under key. Only a NotFound
// lookup means available; other failures propagate.
func (s *UserService) isAvailable(ctx context.Context, key, value string) (bool, error) {
	_, err := s.GetUserByUniqueKey(ctx, []ports.QueryField{{Key: key, Value: value}})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return true, nil
	case err != nil:
		return false, err
	default:
		return false, nil
	}
}

func (s *UserService) withHashedPassword(u *domain.User) (*domain.User, error) {
	hash, err := password.Hash(u.Password, s.hashCost)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		return nil, domain.NewError(domain.KindInternal, "could not process password")
	}
	clone := *u
	clone.Password = hash
	return &clone, nil
}
