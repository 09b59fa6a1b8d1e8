// @title           Employee Reimbursement API
// @version         1.0
// @description     Users submit reimbursements, managers resolve them and admins manage users.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ers-app/reimbursement-api/internal/api"
	"github.com/ers-app/reimbursement-api/internal/api/handler"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
	"github.com/ers-app/reimbursement-api/internal/core/service"
	"github.com/ers-app/reimbursement-api/internal/infrastructure/db/mongo"
	"github.com/ers-app/reimbursement-api/internal/infrastructure/db/postgres"
	"github.com/ers-app/reimbursement-api/internal/infrastructure/db/redis"
	"github.com/ers-app/reimbursement-api/internal/pkg/config"
	"github.com/ers-app/reimbursement-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// store is the gateway set shared by both storage drivers.
type store struct {
	users          ports.UserRepository
	reimbursements ports.ReimbursementRepository
	events         ports.EventRepository
	ping           func(context.Context) error
	close          func(context.Context) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ers-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "ers-api",
	})

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	redisClient, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	sessions := redis.NewSessionStore(redisClient, log)
	users := service.NewUserService(st.users, cfg.BcryptCost, log)
	reimbursements := service.NewReimbursementService(st.reimbursements, st.events, log)
	auth := service.NewAuthService(users, sessions, cfg.JWTSecret, cfg.SessionTTL, log)

	router := api.NewRouter(api.Dependencies{
		Users:          users,
		Reimbursements: reimbursements,
		Auth:           auth,
		Health: map[string]handler.Pinger{
			cfg.StoreDriver: handler.PingFunc(st.ping),
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		},
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}
	log.Info().Msg("server exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, postgres.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		s := postgres.NewStore(db, log)
		return &store{
			users:          s.Users,
			reimbursements: s.Reimbursements,
			events:         s.Events,
			ping:           s.Ping,
			close:          s.Close,
		}, nil

	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		s := mongo.NewStore(client, db, log)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return &store{
			users:          s.Users,
			reimbursements: s.Reimbursements,
			events:         s.Events,
			ping:           s.Ping,
			close:          s.Close,
		}, nil
	}
}
