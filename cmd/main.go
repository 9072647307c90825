// jobmate-listing-service
//
// Job listing and bookmark state for the JobMate clients.
// Fetches paginated job listings from the upstream listing API and keeps
// the user's bookmarked jobs in durable storage with a backup copy:
//   - fetchJobs(page) / loadMoreJobs  : page 1 replaces, later pages append
//   - toggleBookmark(job)             : add/remove, persisted to primary + backup
//   - clearBookmarks                  : confirmed bulk removal
//   - verifyAndRepairBookmarks        : restore primary from backup
//
// Publishes EVENT_BOOKMARK_ADDED to Redis for Gateway SSE forward when
// REDIS_URL is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"jobmate/listing-service/internal/bookmark"
	"jobmate/listing-service/internal/config"
	"jobmate/listing-service/internal/db"
	"jobmate/listing-service/internal/grpcserver"
	"jobmate/listing-service/internal/httpapi"
	"jobmate/listing-service/internal/jobstate"
	"jobmate/listing-service/internal/kvstore"
	"jobmate/listing-service/internal/listing"
	"jobmate/listing-service/internal/scheduler"
)

const (
	service = "listing-service"
	version = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("listing-service exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", service))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Storage ─────────────────────────────────────────────────────────────
	kv, notifier, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	// ── State ───────────────────────────────────────────────────────────────
	state := jobstate.New(
		listing.WithRedFlags(listing.NewHTTPSource(cfg.BaseURL, cfg.HTTPTimeout), cfg.RedFlags),
		kv,
		bookmark.Options{
			PrimaryKey:  cfg.PrimaryKey,
			BackupKey:   cfg.BackupKey,
			ClearBackup: cfg.ClearBackup,
			Notifier:    notifier,
		},
	)

	// ── Servers ─────────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      httpapi.NewHandler(state, service, version).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * cfg.HTTPTimeout,
	}

	grpcSrv := grpcserver.New()
	grpcSrv.MarkReadyWhen(ctx, state.Ready())
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	sched := scheduler.New(state, cfg.RefreshIntervalMinutes, cfg.VerifySpec)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Load failures leave an empty set and are already logged.
		_ = state.Start(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("http listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("grpc listening", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := sched.Start(gctx); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	// ── Graceful shutdown ────────────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown error", "err", err)
		}
		grpcSrv.Stop()
		return nil
	})

	err = g.Wait()
	slog.Info("stopped")
	return err
}

// openStorage connects the configured bookmark backend. Redis, when
// configured, also carries bookmark notifications whatever the backend.
func openStorage(ctx context.Context, cfg *config.Config) (kvstore.Store, bookmark.Notifier, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var notifier bookmark.Notifier = bookmark.LogNotifier{}
	var redisStore *kvstore.RedisStore
	if cfg.RedisURL != "" {
		slog.Info("connecting to redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.Storage == kvstore.BackendRedis {
				return nil, nil, closeAll, fmt.Errorf("redis: %w", err)
			}
			slog.Warn("redis unavailable, notifications go to the log", "err", err)
		} else {
			closers = append(closers, func() { rdb.Close() })
			notifier = bookmark.NewRedisNotifier(rdb)
			redisStore = kvstore.NewRedisStore(rdb)
			slog.Info("redis connected")
		}
	}

	switch cfg.Storage {
	case kvstore.BackendRedis:
		return redisStore, notifier, closeAll, nil

	case kvstore.BackendPostgres:
		slog.Info("connecting to postgres")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, func() {}, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		store := kvstore.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			closeAll()
			return nil, nil, func() {}, fmt.Errorf("postgres migrate: %w", err)
		}
		slog.Info("postgres connected")
		return store, notifier, closeAll, nil

	case kvstore.BackendSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			closeAll()
			return nil, nil, func() {}, fmt.Errorf("sqlite: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		store, err := kvstore.NewSQLiteStore(ctx, conn)
		if err != nil {
			closeAll()
			return nil, nil, func() {}, fmt.Errorf("sqlite migrate: %w", err)
		}
		slog.Info("sqlite opened", "path", cfg.SQLitePath)
		return store, notifier, closeAll, nil

	default:
		slog.Warn("using in-memory bookmark storage; bookmarks will not survive a restart")
		return kvstore.NewMemoryStore(), notifier, closeAll, nil
	}
}
