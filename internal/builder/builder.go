package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/api"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/api/webhook"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/integration/paramstore"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/integration/workflow"
	pkglogger "github.com/UnsureAboli/telegram-n8n-video-bot/internal/pkg/logger"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/bot"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/handlers"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// core holds the components shared by the server and Lambda entry points
type core struct {
	api      *tgbotapi.BotAPI
	client   *bot.Client
	pipeline *telegram.Pipeline
	states   *stateBackend
}

func buildCore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*core, error) {
	awsLoader := &awsConfigLoader{}

	if cfg.SecretsCfg.Source == config.SecretsSourceSSM {
		awsCfg, err := awsLoader.load(ctx)
		if err != nil {
			return nil, err
		}
		store, err := paramstore.New(ssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("create parameter store client: %w", err)
		}
		if err := resolveSecrets(ctx, cfg, store, logger); err != nil {
			return nil, err
		}
	}

	states, err := setupStateStorage(ctx, cfg, awsLoader, logger)
	if err != nil {
		return nil, fmt.Errorf("setup state storage: %w", err)
	}

	// Initialize workflow connector (with mock support)
	var dispatcher handlers.Dispatcher
	if cfg.EnableMocks {
		logger.Info("Using mock workflow connector")
		dispatcher = workflow.NewMockConnector(logger)
	} else {
		logger.Info("Using real workflow connector", zap.String("url", cfg.WorkflowCfg.Url))
		dispatcher = workflow.NewConnector(cfg.WorkflowCfg, logger)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramCfg.BotToken)
	if err != nil {
		states.close()
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}
	botAPI.Debug = cfg.LogLevel == "debug"
	logger.Info("authorized on telegram", zap.String("username", botAPI.Self.UserName))

	client := bot.NewClient(botAPI, cfg.TelegramCfg.SendRetry)
	pipeline := telegram.NewPipeline(&cfg.TelegramCfg, client, dispatcher, state.NewManager(states.storage), logger)

	return &core{
		api:      botAPI,
		client:   client,
		pipeline: pipeline,
		states:   states,
	}, nil
}

// Build creates the long-running application: HTTP server plus webhook registration or long polling
func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := pkglogger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.Bool("use_webhook", cfg.TelegramCfg.UseWebhook),
	)

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	webhookHandler := webhook.NewHandler(c.pipeline.Handle, cfg.TelegramCfg.WebhookSecret)
	router := api.SetupRouter(webhookHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	app := &App{
		server:          server,
		pipeline:        c.pipeline,
		purger:          c.states.purger,
		purgeInterval:   cfg.StateCfg.PurgeInterval,
		closeStorage:    c.states.close,
		shutdownTimeout: time.Duration(cfg.TelegramCfg.ShutdownTimeout) * time.Second,
		logger:          logger,
	}

	switch {
	case !cfg.TelegramCfg.UseWebhook:
		app.poller = telegram.NewPoller(&cfg.TelegramCfg, c.api, c.pipeline, logger)
	case cfg.TelegramCfg.WebhookURL != "":
		if err := c.client.RegisterWebhook(ctx, cfg.TelegramCfg.WebhookURL, cfg.TelegramCfg.WebhookSecret); err != nil {
			c.states.close()
			return nil, fmt.Errorf("register webhook: %w", err)
		}
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return app, nil
}

// BuildLambda creates the webhook handler for the Lambda runtime.
// Configuration comes from the process environment only and the webhook is expected to be registered out of band.
func BuildLambda(ctx context.Context) (*webhook.Handler, *zap.Logger, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := pkglogger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.StateCfg.Backend == config.StateBackendMemory {
		logger.Warn("memory state backend does not survive across Lambda instances")
	}

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	go c.pipeline.RunCleanup(context.Background())
	go runStateJanitor(context.Background(), c.states.purger, cfg.StateCfg.PurgeInterval, logger)

	logger.Info("Lambda handler built successfully")
	return webhook.NewHandler(c.pipeline.Handle, cfg.TelegramCfg.WebhookSecret), logger, nil
}
