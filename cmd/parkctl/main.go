// Command parkctl is the command line client of the parking reservation API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkspace/parking-client/internal/core/ports"
	"github.com/parkspace/parking-client/internal/core/service"
	redisdb "github.com/parkspace/parking-client/internal/infrastructure/db/redis"
	"github.com/parkspace/parking-client/internal/infrastructure/parkingapi"
	"github.com/parkspace/parking-client/internal/infrastructure/sessionstore"
	"github.com/parkspace/parking-client/internal/pkg/config"
	"github.com/parkspace/parking-client/internal/pkg/metrics"
	"github.com/parkspace/parking-client/pkg/logger"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "parkctl: unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "parkctl:", err)
		return exitError
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Output:  stderr,
		Service: "parkctl",
	})

	a, cleanup, err := newApp(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, "parkctl:", err)
		return exitError
	}
	defer cleanup()
	a.stdin, a.stdout, a.stderr = stdin, stdout, stderr

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		fmt.Fprintln(stderr, "error:", describe(err))
		return exitError
	}
	return exitOK
}

// app holds the wired client for one invocation.
type app struct {
	flow   *service.Flow
	log    zerolog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	provider := service.NewSessionProvider()
	client, err := parkingapi.New(parkingapi.Config{
		BaseURL: cfg.Client.APIURL,
		Timeout: cfg.Client.APITimeout,
	}, provider, log)
	if err != nil {
		return nil, cleanup, err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, closeStore)

	if cfg.Client.MetricsAddr != "" {
		closers = append(closers, serveMetrics(cfg.Client.MetricsAddr, log))
	}

	sessions := service.NewSessionService(client, store, provider, cfg.RoleSource(), logger.Component("session"))
	slots := service.NewSlotService(client, provider, cfg.Client.RefreshTimeout, logger.Component("slots"))

	return &app{
		flow: service.NewFlow(sessions, slots, log),
		log:  log,
	}, cleanup, nil
}

func openStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, func(), error) {
	switch cfg.Client.SessionStore {
	case config.StoreMemory:
		return sessionstore.NewMemory(), func() {}, nil
	case config.StoreRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisdb.NewSessionStore(rdb, cfg.Redis.KeyPrefix), func() { _ = rdb.Close() }, nil
	default:
		path := cfg.Client.SessionFile
		if path == "" {
			p, err := sessionstore.DefaultPath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		return sessionstore.NewFile(path), func() {}, nil
	}
}

// serveMetrics exposes client metrics for the lifetime of the process.
func serveMetrics(addr string, log zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
