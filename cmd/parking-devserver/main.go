// Command parking-devserver runs the parking reservation API locally. It keeps
// data in memory unless MONGO_URI is set.
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

	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/api"
	"github.com/parkspace/parking-client/internal/api/backend"
	"github.com/parkspace/parking-client/internal/api/handler"
	mongodb "github.com/parkspace/parking-client/internal/infrastructure/db/mongo"
	"github.com/parkspace/parking-client/internal/pkg/config"
	"github.com/parkspace/parking-client/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "parking-devserver:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "parking-devserver",
	})

	secret, err := cfg.RequireJWTSecret()
	if err != nil {
		return err
	}

	users, slots, ready, closeStore, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	e := api.NewRouter(api.Deps{
		Auth:  backend.NewAuthService(users, secret, cfg.Server.TokenTTL),
		Slots: backend.NewSlotService(slots),
		Ready: ready,
		Log:   logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("base_path", api.BasePath).Msg("server listening")
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, log zerolog.Logger) (
	backend.UserRepository, backend.SlotRepository, map[string]handler.Pinger, func(), error,
) {
	if cfg.Mongo.URI == "" {
		log.Warn().Msg("MONGO_URI not set; data is kept in memory")
		return backend.NewMemoryUsers(), backend.NewMemorySlots(), nil, func() {}, nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}

	users := mongodb.NewUserRepository(db)
	slots := mongodb.NewSlotRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, nil, nil, err
	}
	if err := slots.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, nil, nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")

	ready := map[string]handler.Pinger{
		"mongo": handler.PingFunc(func(ctx context.Context) error { return mongodb.Ping(ctx, db) }),
	}
	return users, slots, ready, closeFn, nil
}
