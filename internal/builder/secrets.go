package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"go.uber.org/zap"
)

// secretStore resolves named parameters. *paramstore.Client implements it.
type secretStore interface {
	GetParameters(ctx context.Context, names ...string) (map[string]string, error)
}

// resolveSecrets fills the bot token, webhook secret and workflow token from the parameter store.
// Values already set in the environment are overwritten only for parameters that are configured.
func resolveSecrets(ctx context.Context, cfg *config.Config, store secretStore, logger *zap.Logger) error {
	sc := cfg.SecretsCfg
	values, err := store.GetParameters(ctx, sc.BotTokenParam, sc.WebhookSecretParam, sc.WorkflowTokenParam)
	if err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}

	assign := func(dst *string, name string) {
		if name == "" {
			return
		}
		if v, ok := values[name]; ok {
			*dst = v
		}
	}
	assign(&cfg.TelegramCfg.BotToken, sc.BotTokenParam)
	assign(&cfg.TelegramCfg.WebhookSecret, sc.WebhookSecretParam)
	assign(&cfg.WorkflowCfg.Token, sc.WorkflowTokenParam)

	if cfg.TelegramCfg.BotToken == "" {
		return errors.New("resolve secrets: bot token parameter is empty")
	}

	logger.Info("secrets resolved from parameter store", zap.Int("parameters", len(values)))
	return nil
}
