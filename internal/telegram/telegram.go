package telegram

import (
	"context"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/bot"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/handlers"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is a long-running update source
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// Pipeline is the update processor wrapped in the middleware chain.
// Both the webhook endpoint and the poller feed updates through Handle.
type Pipeline struct {
	Handle  middleware.HandlerFunc
	limiter *middleware.RateLimiterMiddleware
}

// NewPipeline wires the processor behind rate limit, logging and recovery, in that order
func NewPipeline(
	cfg *config.TelegramConfig,
	client *bot.Client,
	dispatcher handlers.Dispatcher,
	states handlers.StateStore,
	logger *zap.Logger,
) *Pipeline {
	identity := bot.NewIdentityCache(client)
	processor := handlers.NewProcessor(client, dispatcher, identity, states)

	p := &Pipeline{}
	var mws []middleware.Middleware
	if cfg.RateLimitPerMinute > 0 {
		p.limiter = middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst, client).
			WithGroupFilter(addressedToBot(identity))
		mws = append(mws, p.limiter)
		logger.Info("rate limiting enabled",
			zap.Int("per_minute", cfg.RateLimitPerMinute),
			zap.Int("burst", cfg.RateLimitBurst),
		)
	}
	mws = append(mws,
		middleware.NewLoggingMiddleware(),
		middleware.NewRecoveryMiddleware(client),
	)

	p.Handle = middleware.Chain(processor.HandleUpdate, mws...)
	return p
}

// addressedToBot accepts group updates that mention the bot, the only ones the processor answers
func addressedToBot(identity handlers.IdentityResolver) middleware.UpdateFilter {
	return func(ctx context.Context, update tgbotapi.Update) bool {
		me, err := identity.Identity(ctx)
		if err != nil {
			return false
		}
		return handlers.IsMentioned(update.Message, me)
	}
}

// RunCleanup evicts idle rate limit buckets until ctx is done. No-op when rate limiting is off.
func (p *Pipeline) RunCleanup(ctx context.Context) {
	if p.limiter == nil {
		return
	}
	p.limiter.RunCleanup(ctx)
}

// NewPoller builds the long-polling update source over the pipeline
func NewPoller(cfg *config.TelegramConfig, api *tgbotapi.BotAPI, p *Pipeline, logger *zap.Logger) Bot {
	return bot.NewPoller(api, cfg, p.Handle, logger)
}
