package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

const sessionPrefix = "session:"

// SessionStore keeps principals in Redis under "session:<uuid>" until their
// TTL expires.
type SessionStore struct {
	client redis.Cmdable
	log    zerolog.Logger
}

// NewSessionStore creates a SessionStore on top of the given Redis client.
func NewSessionStore(client redis.Cmdable, log zerolog.Logger) *SessionStore {
	return &SessionStore{client: client, log: log}
}

func (s *SessionStore) Create(ctx context.Context, p *domain.Principal, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", domain.NewError(domain.KindInternal, "could not encode session")
	}

	sid := uuid.NewString()
	if err := s.client.Set(ctx, key(sid), payload, ttl).Err(); err != nil {
		s.log.Error().Err(err).Msg("failed to store session")
		return "", domain.NewError(domain.KindInternal, "could not open a session")
	}
	return sid, nil
}

func (s *SessionStore) Get(ctx context.Context, sid string) (*domain.Principal, bool, error) {
	if _, err := uuid.Parse(sid); err != nil {
		return nil, false, nil
	}

	raw, err := s.client.Get(ctx, key(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read session")
		return nil, false, domain.NewError(domain.KindInternal, "could not read the session")
	}

	var p domain.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		s.log.Warn().Err(err).Str("sid", sid).Msg("discarding corrupt session")
		return nil, false, nil
	}
	return &p, true, nil
}

func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, key(sid)).Err(); err != nil {
		s.log.Error().Err(err).Msg("failed to delete session")
		return domain.NewError(domain.KindInternal, "could not close the session")
	}
	return nil
}

func key(sid string) string {
	return sessionPrefix + sid
}
