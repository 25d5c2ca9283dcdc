package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/wildkids/internal/auth"
	"github.com/playperu/wildkids/internal/config"
	"github.com/playperu/wildkids/internal/content"
	"github.com/playperu/wildkids/internal/database"
	"github.com/playperu/wildkids/internal/games"
	"github.com/playperu/wildkids/internal/handler/health"
	"github.com/playperu/wildkids/internal/handler/live"
	"github.com/playperu/wildkids/internal/migrations"
	"github.com/playperu/wildkids/internal/notify"
	"github.com/playperu/wildkids/internal/server"
	"github.com/playperu/wildkids/internal/session"
	"github.com/playperu/wildkids/internal/store"
	"github.com/playperu/wildkids/internal/tracker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Redis ---
	// The site keeps working on the on-device store while Redis is away.
	rdb, err := openRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, signed-in progress stays local until it returns", "error", err)
	} else {
		logger.Info("connected to redis")
	}

	// --- Domain ---
	lib, err := content.Load()
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	st := store.New(
		store.NewLocal(db),
		store.NewRedisRemote(rdb, cfg.RedisPrefix, logger),
		logger,
		cfg.RemoteTimeout,
	)
	broker := server.NewBroker()
	presenter := notify.NewPresenter(broker, cfg.NotifyStagger, logger)
	tr := tracker.New(st, presenter, logger)
	recorder := server.NewRecorder(tr, broker, logger)
	plays := games.NewManager(lib.Levels(), recorder, logger, cfg.PlayTTL)
	sessions := session.NewRegistry()
	tokens := auth.NewTokens(cfg.AuthSecret, cfg.TokenTTL, rdb, cfg.RedisPrefix, logger)

	// --- HTTP Server ---
	deps := server.Deps{
		Store:    st,
		Tracker:  tr,
		Recorder: recorder,
		Games:    plays,
		Content:  lib,
		Accounts: auth.NewAccounts(rdb, cfg.RedisPrefix),
		Tokens:   tokens,
		Sessions: sessions,
		Broker:   broker,
		SPADir:   cfg.SPADir,
	}
	srv := server.New(cfg.HTTPAddr, logger, deps, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, map[string]health.Check{
			"sqlite": {Checker: dbChecker{db}},
			"redis":  {Checker: redisChecker{rdb}, Optional: true},
		}).Routes())
		r.Mount("/api/live", live.NewHandler(logger, tokens, st, sessions, tr).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		err := srv.Shutdown(context.Background())
		presenter.Close()
		return err
	})

	g.Go(func() error {
		return sweepPlays(gctx, plays, cfg.PlayTTL, logger)
	})

	return g.Wait()
}

// sweepPlays drops idle plays until ctx is done.
func sweepPlays(ctx context.Context, plays *games.Manager, ttl time.Duration, logger *slog.Logger) error {
	tick := time.NewTicker(max(ttl/4, time.Minute))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tick.C:
			if n := plays.Sweep(now); n > 0 {
				logger.Info("swept idle plays", "count", n, "remaining", plays.Len())
			}
		}
	}
}

// openRedis builds the client without requiring the server to be up.
func openRedis(rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
