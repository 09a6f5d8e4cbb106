package handlers

import (
	"context"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
)

// SendOptions tunes a single outgoing text message
type SendOptions struct {
	ReplyToMessageID int
	ParseMode        string
}

// Messenger is the subset of the Telegram Bot API the processor talks to
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) error
	SendTyping(ctx context.Context, chatID int64) error
	// FileMetadata resolves a file id via getFile. Failures are reported through OK=false, never as an error.
	FileMetadata(ctx context.Context, fileID string) *entity.FileMetadata
}

// Dispatcher delivers a submission to the publishing workflow.
// A non-2xx answer is a result with OK=false; an error means the workflow could not be reached.
type Dispatcher interface {
	Dispatch(ctx context.Context, submission *entity.Submission) (*entity.DispatchResult, error)
}

// IdentityResolver returns the bot's own account
type IdentityResolver interface {
	Identity(ctx context.Context) (*entity.BotIdentity, error)
}

// StateStore keeps wizard progress per private conversation. *state.Manager implements it.
type StateStore interface {
	Get(ctx context.Context, conversationID int64) (*state.ConversationState, error)
	Save(ctx context.Context, st *state.ConversationState) error
	Delete(ctx context.Context, conversationID int64) error
	Start(ctx context.Context, conversationID int64, step state.Step) (*state.ConversationState, error)
}
