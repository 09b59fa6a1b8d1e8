package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
)

// sessionClaims is the payload of a session token.
type sessionClaims struct {
	SessionID string `json:"sid"`
	UserID    int    `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements login, session resolution and logout.
type AuthService struct {
	users     ports.UserService
	sessions  ports.SessionStore
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewAuthService(users ports.UserService, sessions ports.SessionStore, jwtSecret string, ttl time.Duration, log zerolog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
		log:       log,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Principal, error) {
	user, err := s.users.AuthenticateUser(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	principal := domain.PrincipalOf(user)
	sid, err := s.sessions.Create(ctx, principal, s.ttl)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(sid, principal)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign session token")
		_ = s.sessions.Delete(ctx, sid)
		return "", nil, domain.NewError(domain.KindInternal, "could not open a session")
	}

	s.log.Info().Int("user_id", principal.ID).Str("role", principal.Role).Msg("session opened")
	return token, principal, nil
}

func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Principal, string, error) {
	if token == "" {
		return nil, "", domain.NewError(domain.KindAuthentication, "no session found")
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || claims.SessionID == "" {
		return nil, "", domain.NewError(domain.KindAuthentication, "invalid session token")
	}

	principal, found, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", domain.NewError(domain.KindAuthentication, "session expired")
	}
	return principal, claims.SessionID, nil
}

// Logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *AuthService) generateToken(sid string, p *domain.Principal) (string, error) {
	now := s.now()
	claims := sessionClaims{
		SessionID: sid,
		UserID:    p.ID,
		Username:  p.Username,
		Role:      p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}
