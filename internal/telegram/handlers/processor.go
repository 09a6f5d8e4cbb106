package handlers

import (
	"context"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Processor turns one Telegram update into replies, state changes and workflow submissions
type Processor struct {
	messenger  Messenger
	dispatcher Dispatcher
	identity   IdentityResolver
	states     StateStore
	now        func() time.Time
	newID      func() string
}

// NewProcessor creates a new update processor
func NewProcessor(messenger Messenger, dispatcher Dispatcher, identity IdentityResolver, states StateStore) *Processor {
	return &Processor{
		messenger:  messenger,
		dispatcher: dispatcher,
		identity:   identity,
		states:     states,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// HandleUpdate processes a single update. Updates without a message are ignored.
// An unexpected failure is reported in chat and returned to the caller.
func (p *Processor) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}

	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("chat_type", msg.Chat.Type),
	))

	var err error
	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		err = p.handleGroup(ctx, msg)
	} else {
		err = p.handlePrivate(ctx, msg)
	}

	if err != nil {
		p.HandleError(ctx, msg.Chat.ID, err)
		return err
	}

	return nil
}

// reply sends text to chat. Delivery failures are logged and do not abort the flow.
func (p *Processor) reply(ctx context.Context, chatID int64, text string, opts SendOptions) {
	if err := p.messenger.SendText(ctx, chatID, text, opts); err != nil {
		ctxzap.Error(ctx, "failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// botIdentity resolves the bot account; nil when it is unavailable
func (p *Processor) botIdentity(ctx context.Context) *entity.BotIdentity {
	if p.identity == nil {
		return nil
	}

	bot, err := p.identity.Identity(ctx)
	if err != nil {
		ctxzap.Warn(ctx, "bot identity unavailable", zap.Error(err))
		return nil
	}
	return bot
}

// dispatch sends the submission and reports the outcome in chat. It reports whether the workflow accepted it.
// unreachable is the reply used when the workflow gives no answer at all; it tells the user how to retry in this flow.
func (p *Processor) dispatch(ctx context.Context, chatID int64, submission *entity.Submission, opts SendOptions, unreachable string) bool {
	result, err := p.dispatcher.Dispatch(ctx, submission)
	if err != nil {
		ctxzap.Error(ctx, "workflow unreachable",
			zap.Error(err),
			zap.String("submission_id", submission.SubmissionID),
		)
		p.reply(ctx, chatID, unreachable, opts)
		return false
	}

	if !result.OK {
		ctxzap.Warn(ctx, "workflow rejected submission",
			zap.Int("status_code", result.StatusCode),
			zap.String("submission_id", submission.SubmissionID),
		)
		p.reply(ctx, chatID, render.RenderDispatchError(result.StatusCode, result.Body), opts)
		return false
	}

	ctxzap.Info(ctx, "submission dispatched",
		zap.String("submission_id", submission.SubmissionID),
		zap.String("source", string(submission.Source)),
	)
	p.reply(ctx, chatID, render.MsgSubmitted, opts)
	return true
}
