package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// updatesAPI is the subset of *tgbotapi.BotAPI used for long polling
type updatesAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Poller receives updates via getUpdates and feeds them to the handler chain
type Poller struct {
	api         updatesAPI
	cfg         *config.TelegramConfig
	handle      middleware.HandlerFunc
	logger      *zap.Logger
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewPoller creates a long-polling update source
func NewPoller(api updatesAPI, cfg *config.TelegramConfig, handle middleware.HandlerFunc, logger *zap.Logger) *Poller {
	return &Poller{
		api:      api,
		cfg:      cfg,
		handle:   handle,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start removes any registered webhook and starts polling
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("starting telegram long polling")

	// getUpdates is refused while a webhook is set
	if _, err := p.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.cfg.UpdateTimeout
	u.AllowedUpdates = []string{"message"}

	p.updatesChan = p.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, p.logger)
	go p.processUpdates(ctx)

	p.logger.Info("telegram long polling started")
	return nil
}

// Stop stops polling and waits for in-flight updates up to the configured timeout
func (p *Poller) Stop() error {
	p.logger.Info("stopping telegram long polling")

	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.api.StopReceivingUpdates()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(p.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		p.logger.Info("all updates processed before shutdown")
	case <-time.After(shutdownTimeout):
		p.logger.Warn("shutdown timeout exceeded, some updates may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	return nil
}

func (p *Poller) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-p.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-p.updatesChan:
			if !ok {
				return
			}
			p.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer p.wg.Done()
				// errors are already logged and reported in chat by the chain
				_ = p.handle(ctx, u)
			}(update)
		}
	}
}
