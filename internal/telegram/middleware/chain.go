package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandlerFunc processes one update
type HandlerFunc func(ctx context.Context, update tgbotapi.Update) error

// Middleware wraps update processing
type Middleware interface {
	Handle(ctx context.Context, update tgbotapi.Update, next HandlerFunc) error
}

// Sender delivers a plain text message to a chat
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Chain wraps h so that the first middleware runs outermost
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		mw, next := mws[i], h
		h = func(ctx context.Context, update tgbotapi.Update) error {
			return mw.Handle(ctx, update, next)
		}
	}
	return h
}

// updateOrigin extracts the sender and chat of an update; zero values when there is no message
func updateOrigin(update tgbotapi.Update) (userID, chatID int64) {
	msg := update.Message
	if msg == nil {
		return 0, 0
	}
	if msg.From != nil {
		userID = msg.From.ID
	}
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	return userID, chatID
}
