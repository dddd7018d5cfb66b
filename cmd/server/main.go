// cmd/server/main.go
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

	"github.com/jason-s-yu/manaclash/internal/auth"
	"github.com/jason-s-yu/manaclash/internal/cache"
	"github.com/jason-s-yu/manaclash/internal/catalog"
	"github.com/jason-s-yu/manaclash/internal/config"
	"github.com/jason-s-yu/manaclash/internal/database"
	"github.com/jason-s-yu/manaclash/internal/database/sqlite"
	"github.com/jason-s-yu/manaclash/internal/handlers"
	"github.com/jason-s-yu/manaclash/internal/service"
	"github.com/jason-s-yu/manaclash/internal/store"
	"github.com/jason-s-yu/manaclash/internal/telemetry"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "manaclash-server", cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	if err := auth.Init(cfg.TokenExpireTime); err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.StoreBackend == config.BackendRedis || cfg.HistorianEnabled {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	st, closeStore, err := openStore(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := handlers.NewHub(logger)
	opts := []service.Option{
		service.WithMaxRetries(cfg.CommitMaxRetries),
		service.WithNotifier(hub),
	}
	if cfg.HistorianEnabled {
		opts = append(opts, service.WithActionSink(cache.NewPublisher(rdb, cfg.HistorianQueueName)))
	}
	svc := service.New(st, cat, logger, opts...)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewRouter(logger, svc, cat, hub),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithFields(logrus.Fields{
		"addr":      srv.Addr,
		"store":     cfg.StoreBackend,
		"historian": cfg.HistorianEnabled,
	}).Info("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// openStore builds the MatchStore for the configured backend.
func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (store.MatchStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		return cache.NewMatchStore(rdb, "match"), func() {}, nil
	case config.BackendPostgres:
		pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return database.NewMatchStore(pool), pool.Close, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}
