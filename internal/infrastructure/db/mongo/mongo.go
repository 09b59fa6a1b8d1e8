package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Store groups the MongoDB gateways over one database.
type Store struct {
	client         *mongo.Client
	Users          *UserRepository
	Reimbursements *ReimbursementRepository
	Events         *EventRepository
}

func NewStore(client *mongo.Client, db *mongo.Database, log zerolog.Logger) *Store {
	log = log.With().Str("store", "mongo").Logger()
	return &Store{
		client:         client,
		Users:          NewUserRepository(db, log),
		Reimbursements: NewReimbursementRepository(db, log),
		Events:         NewEventRepository(db, log),
	}
}

// EnsureIndexes creates the indexes of every collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return errors.Join(
		s.Users.EnsureIndexes(ctx),
		s.Reimbursements.EnsureIndexes(ctx),
		s.Events.EnsureIndexes(ctx),
	)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// storageFault logs the raw driver error and hides it behind KindInternal.
func storageFault(log zerolog.Logger, err error, op string) error {
	log.Error().Err(err).Str("op", op).Msg("mongo operation failed")
	return domain.NewError(domain.KindInternal, "the data store could not complete the request")
}

func uniqueIndex() *options.IndexOptions {
	return options.Index().SetUnique(true)
}
