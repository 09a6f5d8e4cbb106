package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"go.uber.org/zap"
)

// App represents the application with all its components
type App struct {
	server          *http.Server
	poller          telegram.Bot // nil in webhook mode
	pipeline        *telegram.Pipeline
	purger          state.Purger
	purgeInterval   time.Duration
	closeStorage    func()
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// Run starts the application and all its daemons
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.pipeline.RunCleanup(ctx)
	go runStateJanitor(ctx, a.purger, a.purgeInterval, a.logger)

	// Start HTTP server in goroutine
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	if a.poller != nil {
		if err := a.poller.Start(ctx); err != nil {
			a.logger.Error("Failed to start telegram polling", zap.Error(err))
			a.shutdown()
			return err
		}
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("Server error", zap.Error(err))
		a.shutdown()
		return err
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	// Graceful shutdown; in-flight updates keep ctx until shutdown returns
	return a.shutdown()
}

// shutdown stops accepting updates, waits for in-flight ones and releases storage
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.logger.Info("Shutting down gracefully")

	var errs []error
	if a.poller != nil {
		if err := a.poller.Stop(); err != nil {
			a.logger.Error("Telegram poller shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
		errs = append(errs, err)
	}

	a.logger.Info("Closing state storage")
	if a.closeStorage != nil {
		a.closeStorage()
	}

	a.logger.Info("Application stopped gracefully")
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
