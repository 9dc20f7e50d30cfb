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

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hongminglow/reveal-be/internal/auth"
	"github.com/hongminglow/reveal-be/internal/config"
	"github.com/hongminglow/reveal-be/internal/logger"
	"github.com/hongminglow/reveal-be/internal/metrics"
	"github.com/hongminglow/reveal-be/internal/publisher"
	"github.com/hongminglow/reveal-be/internal/server"
	"github.com/hongminglow/reveal-be/internal/storage/postgres"
)

const serviceName = "reveal-api"

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(serviceName, cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx := c.Context
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	var rdb *redis.Client
	var sessions auth.Sessions
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		sessions = auth.NewRedisSessions(rdb, cfg.SessionTTL)
	default:
		sessions = auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	}

	var pub publisher.Publisher = publisher.Nop{}
	if cfg.PublishingEnabled() {
		kafkaPub := publisher.NewKafka(cfg.KafkaBrokers, cfg.TopicBetPlaced, cfg.TopicEventRevealed)
		defer kafkaPub.Close()
		pub = kafkaPub
	} else {
		log.Info("KAFKA_BROKERS not set; domain events will not be published")
	}

	m := metrics.New()
	metricsSrv := m.NewServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	})

	srv := server.New(cfg, server.Deps{
		Store:     store,
		Sessions:  sessions,
		Publisher: pub,
		Metrics:   m,
		Logger:    log,
	})

	go func() {
		log.Info("metrics listening", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	go func() {
		log.Info("reveal backend listening", zap.String("addr", cfg.HTTPAddress()), zap.String("sessions", cfg.SessionBackend))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("graceful shutdown error", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(ctxShutdown); err != nil {
		log.Error("metrics shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := postgres.NewStore(c.Context, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	store.Close()
	fmt.Fprintln(c.App.Writer, "schema up to date")
	return nil
}
