package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

// memCmdable keeps string keys in memory. Only the commands used by
// SessionStore are implemented.
type memCmdable struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
	fail error
}

func newMemCmdable() *memCmdable {
	return &memCmdable{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *memCmdable) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if m.fail != nil {
		return redis.NewStatusResult("", m.fail)
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	if m.fail != nil {
		return redis.NewStringResult("", m.fail)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	mem := newMemCmdable()
	store := NewSessionStore(mem, zerolog.Nop())
	ctx := context.Background()
	principal := &domain.Principal{ID: 3, Username: "jdoe", Role: domain.RoleEmployee}

	sid, err := store.Create(ctx, principal, time.Hour)
	require.NoError(t, err)
	_, err = uuid.Parse(sid)
	require.NoError(t, err, "session id must be a uuid")
	assert.Equal(t, time.Hour, mem.ttls["session:"+sid])

	got, found, err := store.Get(ctx, sid)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, principal, got)

	require.NoError(t, store.Delete(ctx, sid))
	require.NoError(t, store.Delete(ctx, sid), "delete is idempotent")

	_, found, err = store.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionStore_Get_Misses(t *testing.T) {
	mem := newMemCmdable()
	store := NewSessionStore(mem, zerolog.Nop())
	ctx := context.Background()

	_, found, err := store.Get(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, found)

	corrupt := uuid.NewString()
	mem.data["session:"+corrupt] = "{broken"
	_, found, err = store.Get(ctx, corrupt)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionStore_Faults(t *testing.T) {
	mem := newMemCmdable()
	mem.fail = errors.New("connection reset")
	store := NewSessionStore(mem, zerolog.Nop())
	ctx := context.Background()

	_, err := store.Create(ctx, &domain.Principal{ID: 1}, time.Minute)
	assert.ErrorIs(t, err, domain.ErrInternal)

	_, _, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.False(t, strings.Contains(err.Error(), "connection reset"), "driver errors must not leak")
}
