package builder

import (
	"context"
	"fmt"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// setupDatabase creates a new database connection pool and waits for the server to answer
func setupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Configure pool settings from config
	poolConfig.MaxConns = int32(cfg.DatabaseCfg.MaxConns)
	poolConfig.MinConns = int32(cfg.DatabaseCfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.DatabaseCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DatabaseCfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.DatabaseCfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	retryOpts := append(cfg.DatabaseCfg.ConnectRetry.ToRetryOptions(),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not reachable yet, retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err := retry.Do(func() error { return pool.Ping(ctx) }, retryOpts...); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool established",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
		zap.Duration("max_conn_lifetime", poolConfig.MaxConnLifetime),
		zap.Duration("max_conn_idle_time", poolConfig.MaxConnIdleTime),
		zap.Duration("health_check_period", poolConfig.HealthCheckPeriod),
	)

	return pool, nil
}
