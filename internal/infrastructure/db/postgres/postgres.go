// Package postgres implements the storage gateways on PostgreSQL through the
// pgx database/sql driver and sqlx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/infrastructure/db/postgres/migrations"
)

const defaultTimeout = 10 * time.Second

// SQLSTATE codes the gateways translate into domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
)

type Config struct {
	DSN          string
	MaxOpenConns int
	Timeout      time.Duration
}

// Connect opens a pooled connection and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sqlx.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// Store groups the PostgreSQL gateways over one connection pool.
type Store struct {
	db             *sqlx.DB
	Users          *UserRepository
	Reimbursements *ReimbursementRepository
	Events         *EventRepository
}

func NewStore(db *sqlx.DB, log zerolog.Logger) *Store {
	log = log.With().Str("store", "postgres").Logger()
	return &Store{
		db:             db,
		Users:          NewUserRepository(db, log),
		Reimbursements: NewReimbursementRepository(db, log),
		Events:         NewEventRepository(db, log),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// storageFault logs the raw driver error and hides it behind KindInternal.
func storageFault(log zerolog.Logger, err error, op string) error {
	log.Error().Err(err).Str("op", op).Msg("postgres operation failed")
	return domain.NewError(domain.KindInternal, "the data store could not complete the request")
}
