package middleware

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// LoggingMiddleware logs all incoming updates and attaches update fields to the context logger
type LoggingMiddleware struct{}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware() *LoggingMiddleware {
	return &LoggingMiddleware{}
}

// Handle logs the update
func (m *LoggingMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next HandlerFunc) error {
	start := time.Now()
	userID, chatID := updateOrigin(update)

	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.Int("update_id", update.UpdateID),
		zap.Int64("user_id", userID),
	))

	ctxzap.Info(ctx, "telegram update received",
		zap.Int64("chat_id", chatID),
		zap.String("type", messageType(update.Message)),
	)

	err := next(ctx, update)

	fields := []zap.Field{
		zap.Int64("chat_id", chatID),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		ctxzap.Warn(ctx, "telegram update failed", append(fields, zap.Error(err))...)
		return err
	}

	ctxzap.Info(ctx, "telegram update processed", fields...)
	return nil
}

func messageType(msg *tgbotapi.Message) string {
	switch {
	case msg == nil:
		return "none"
	case msg.Video != nil:
		return "video"
	case msg.Document != nil:
		return "document"
	case msg.Text != "":
		return "text"
	default:
		return "other"
	}
}
