package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a panic in update processing into an error
type RecoveryMiddleware struct {
	sender Sender
}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware(sender Sender) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		sender: sender,
	}
}

// Handle recovers from panics
func (m *RecoveryMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next HandlerFunc) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		ctxzap.Error(ctx, "panic recovered in telegram handler",
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
			zap.Int("update_id", update.UpdateID),
		)

		if _, chatID := updateOrigin(update); chatID != 0 && m.sender != nil {
			if sendErr := m.sender.Send(ctx, chatID, render.ErrGeneric); sendErr != nil {
				ctxzap.Error(ctx, "failed to send error message",
					zap.Error(sendErr),
					zap.Int64("chat_id", chatID),
				)
			}
		}

		err = fmt.Errorf("panic: %v", r)
	}()

	return next(ctx, update)
}
