package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	pkgRetry "github.com/UnsureAboli/telegram-n8n-video-bot/internal/pkg/retry"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// State store backends
const (
	StateBackendMemory   = "memory"
	StateBackendPostgres = "postgres"
	StateBackendDynamoDB = "dynamodb"
)

// Secret sources
const (
	SecretsSourceEnv = "env"
	SecretsSourceSSM = "ssm"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	TelegramCfg TelegramConfig          `envPrefix:"TELEGRAM_"`
	WorkflowCfg WorkflowConnectorConfig `envPrefix:"WORKFLOW_"`
	StateCfg    StateConfig             `envPrefix:"STATE_"`
	DatabaseCfg DatabaseConfig          `envPrefix:"DB_"`
	SecretsCfg  SecretsConfig           `envPrefix:"SECRETS_"`

	// Database configuration (required for the postgres state backend only)
	DatabaseURL string `env:"DATABASE_URL"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	WebhookSecret      string `env:"WEBHOOK_SECRET"`
	WebhookURL         string `env:"WEBHOOK_URL"`
	UseWebhook         bool   `env:"USE_WEBHOOK" envDefault:"true"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds

	// Retries for outbound sends on flood control or network failure, and for webhook registration
	SendRetry pkgRetry.RetryConfig `envPrefix:"SEND_RETRY_"`
}

// WorkflowConnectorConfig describes the downstream automation workflow endpoint
type WorkflowConnectorConfig struct {
	HTTPClientConfig
	Endpoint string `env:"ENDPOINT" envDefault:""`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"25s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// StateConfig selects the conversation state backend and its retention window
type StateConfig struct {
	Backend       string        `env:"BACKEND" envDefault:"memory"`
	TTL           time.Duration `env:"TTL" envDefault:"24h"`
	PurgeInterval time.Duration `env:"PURGE_INTERVAL" envDefault:"10m"`
	DynamoTable   string        `env:"DYNAMODB_TABLE"`
}

// DatabaseConfig holds connection pool settings for the postgres backend
type DatabaseConfig struct {
	MaxConns          int                  `env:"MAX_CONNS" envDefault:"10"`
	MinConns          int                  `env:"MIN_CONNS" envDefault:"1"`
	MaxConnLifetime   time.Duration        `env:"MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime   time.Duration        `env:"MAX_CONN_IDLE_TIME" envDefault:"30m"`
	HealthCheckPeriod time.Duration        `env:"HEALTH_CHECK_PERIOD" envDefault:"1m"`
	ConnectRetry      pkgRetry.RetryConfig `envPrefix:"CONNECT_RETRY_"`
}

// SecretsConfig tells where the bot token, webhook secret and workflow token come from
type SecretsConfig struct {
	Source             string `env:"SOURCE" envDefault:"env"`
	BotTokenParam      string `env:"SSM_BOT_TOKEN_PARAM"`
	WebhookSecretParam string `env:"SSM_WEBHOOK_SECRET_PARAM"`
	WorkflowTokenParam string `env:"SSM_WORKFLOW_TOKEN_PARAM"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *envFlag

	return cfg, nil
}

// Parse reads the configuration from the process environment only.
// Used directly by the Lambda entry point, which has no flags or env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.StateCfg.Backend = strings.ToLower(strings.TrimSpace(cfg.StateCfg.Backend))
	cfg.SecretsCfg.Source = strings.ToLower(strings.TrimSpace(cfg.SecretsCfg.Source))

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	switch cfg.SecretsCfg.Source {
	case SecretsSourceEnv:
		if cfg.TelegramCfg.BotToken == "" {
			errors = append(errors, "TELEGRAM_BOT_TOKEN is required when SECRETS_SOURCE=env")
		}
	case SecretsSourceSSM:
		if cfg.SecretsCfg.BotTokenParam == "" {
			errors = append(errors, "SECRETS_SSM_BOT_TOKEN_PARAM is required when SECRETS_SOURCE=ssm")
		}
	default:
		errors = append(errors, fmt.Sprintf("SECRETS_SOURCE must be one of env, ssm, got %q", cfg.SecretsCfg.Source))
	}

	if !cfg.EnableMocks && cfg.WorkflowCfg.Url == "" {
		errors = append(errors, "WORKFLOW_SERVICE_URL is required unless ENABLE_MOCKS is set")
	}

	if cfg.TelegramCfg.RateLimitPerMinute < 0 || cfg.TelegramCfg.RateLimitPerMinute > 600 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 0 and 600, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 50 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 50, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	if cfg.TelegramCfg.SendRetry.Attempts < 1 {
		errors = append(errors, "TELEGRAM_SEND_RETRY_ATTEMPTS must be at least 1")
	}

	if cfg.StateCfg.TTL <= 0 {
		errors = append(errors, fmt.Sprintf("STATE_TTL must be positive, got %s", cfg.StateCfg.TTL))
	}

	if cfg.TelegramCfg.UseWebhook && cfg.TelegramCfg.WebhookURL != "" && !strings.HasPrefix(cfg.TelegramCfg.WebhookURL, "https://") {
		errors = append(errors, "TELEGRAM_WEBHOOK_URL must use https")
	}

	switch cfg.StateCfg.Backend {
	case StateBackendMemory:
	case StateBackendPostgres:
		if cfg.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when STATE_BACKEND=postgres")
		}
		if cfg.DatabaseCfg.MaxConns < 1 || cfg.DatabaseCfg.MaxConns > 200 {
			errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DatabaseCfg.MaxConns))
		}
		if cfg.DatabaseCfg.MinConns < 0 || cfg.DatabaseCfg.MinConns > cfg.DatabaseCfg.MaxConns {
			errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DatabaseCfg.MaxConns, cfg.DatabaseCfg.MinConns))
		}
		if cfg.DatabaseCfg.ConnectRetry.Attempts < 1 {
			errors = append(errors, "DB_CONNECT_RETRY_ATTEMPTS must be at least 1")
		}
	case StateBackendDynamoDB:
		if cfg.StateCfg.DynamoTable == "" {
			errors = append(errors, "STATE_DYNAMODB_TABLE is required when STATE_BACKEND=dynamodb")
		}
	default:
		errors = append(errors, fmt.Sprintf("STATE_BACKEND must be one of memory, postgres, dynamodb, got %q", cfg.StateCfg.Backend))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
