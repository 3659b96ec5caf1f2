package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"czar-party/internal/config"
	"czar-party/internal/db"
	"czar-party/internal/game"
	"czar-party/internal/imagegen"
	"czar-party/internal/lock"
	"czar-party/internal/logger"
	"czar-party/internal/metrics"
	"czar-party/internal/server"
	"czar-party/internal/store"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logg, err := logger.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatalw("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, logg *zap.SugaredLogger) error {
	if cfg.JWTSecret == "" {
		if !cfg.Development() {
			return errors.New("JWT_SECRET is not set")
		}
		logg.Warn("JWT_SECRET is not set; all authenticated requests will be rejected")
	}

	st, err := openStore(cfg, logg)
	if err != nil {
		return err
	}
	locker, err := openLocker(ctx, cfg, logg)
	if err != nil {
		return err
	}
	generator, err := openGenerator(cfg, logg)
	if err != nil {
		return err
	}

	m := metrics.New(cfg.MetricsNamespace)
	svc := game.New(st, generator, game.Options{
		Locker:           locker,
		Logger:           logg,
		Metrics:          m,
		ImageConcurrency: cfg.ImageConcurrency,
		ImageTimeout:     cfg.ImageTimeout(),
	})
	if cfg.SeedCards {
		if _, err := svc.Cards.Seed(ctx, db.SeedCards); err != nil {
			return err
		}
	}

	srv := server.New(svc, cfg, server.WithLogger(logg), server.WithMetrics(m))
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Infow("czar-party server listening", "addr", httpServer.Addr, "env", cfg.AppEnv)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Warnw("http shutdown", "error", err)
	}
	svc.Wait()
	return nil
}

func openStore(cfg config.Config, logg *zap.SugaredLogger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logg.Warn("DATABASE_URL is not set; using in-memory store")
		return store.NewMemory(), nil
	}
	conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		return nil, err
	}
	return store.NewGorm(conn), nil
}

func openLocker(ctx context.Context, cfg config.Config, logg *zap.SugaredLogger) (lock.Locker, error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocal(), nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}
	logg.Infow("using redis room locks", "addr", cfg.RedisAddr)
	return lock.NewRedis(client, cfg.LockTTL()), nil
}

func openGenerator(cfg config.Config, logg *zap.SugaredLogger) (imagegen.Generator, error) {
	if cfg.OpenAIAPIKey == "" {
		logg.Warn("OPENAI_API_KEY is not set; using placeholder images")
		return imagegen.NewPlaceholder(), nil
	}
	generator, err := imagegen.NewOpenAI(imagegen.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIImageModel,
		Size:    cfg.OpenAIImageSize,
		Timeout: cfg.ImageTimeout(),
	})
	if err != nil {
		return nil, err
	}
	return generator, nil
}
