package builder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/repository"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// stateBackend is the selected conversation state storage.
// purger is nil for backends that expire records on their own.
type stateBackend struct {
	storage state.Storage
	purger  state.Purger
	close   func()
}

// awsConfigLoader loads the default AWS config at most once
type awsConfigLoader struct {
	once sync.Once
	cfg  aws.Config
	err  error
}

func (l *awsConfigLoader) load(ctx context.Context) (aws.Config, error) {
	l.once.Do(func() {
		l.cfg, l.err = awsconfig.LoadDefaultConfig(ctx)
	})
	if l.err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", l.err)
	}
	return l.cfg, nil
}

func setupStateStorage(ctx context.Context, cfg *config.Config, awsLoader *awsConfigLoader, logger *zap.Logger) (*stateBackend, error) {
	logger.Info("setting up conversation state storage",
		zap.String("backend", cfg.StateCfg.Backend),
		zap.Duration("ttl", cfg.StateCfg.TTL),
	)

	switch cfg.StateCfg.Backend {
	case config.StateBackendPostgres:
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		store := repository.NewStatePostgres(db, cfg.StateCfg.TTL)
		return &stateBackend{storage: store, purger: store, close: db.Close}, nil

	case config.StateBackendDynamoDB:
		awsCfg, err := awsLoader.load(ctx)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewStateDynamo(dynamodb.NewFromConfig(awsCfg), cfg.StateCfg.DynamoTable, cfg.StateCfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("create dynamodb state store: %w", err)
		}
		return &stateBackend{storage: store, close: func() {}}, nil

	default:
		return &stateBackend{storage: repository.NewStateMemory(cfg.StateCfg.TTL), close: func() {}}, nil
	}
}

// runStateJanitor purges expired states every interval until ctx is done
func runStateJanitor(ctx context.Context, purger state.Purger, interval time.Duration, logger *zap.Logger) {
	if purger == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := purger.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge expired conversation states", zap.Error(err))
				continue
			}
			if purged > 0 {
				logger.Info("purged expired conversation states", zap.Int64("count", purged))
			}
		}
	}
}
