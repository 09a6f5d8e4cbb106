package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/render"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/template"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Localized keywords accepted next to the slash commands
var (
	cancelWords  = []string{"cancel", "لغو"}
	confirmWords = []string{"confirm", "تایید", "تأیید"}
)

// command returns the lowercased bot command of msg without the leading slash, or ""
func command(msg *tgbotapi.Message) string {
	if !msg.IsCommand() {
		return ""
	}
	return strings.ToLower(msg.Command())
}

func isKeyword(msg *tgbotapi.Message, cmd string, words []string) bool {
	if command(msg) == cmd {
		return true
	}
	text := strings.TrimSpace(msg.Text)
	for _, w := range words {
		if strings.EqualFold(text, w) {
			return true
		}
	}
	return false
}

func isCancel(msg *tgbotapi.Message) bool  { return isKeyword(msg, "cancel", cancelWords) }
func isConfirm(msg *tgbotapi.Message) bool { return isKeyword(msg, "confirm", confirmWords) }

// handlePrivate runs the wizard. Global commands are checked before the per-step table.
func (p *Processor) handlePrivate(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	switch {
	case command(msg) == "start":
		if _, err := p.states.Start(ctx, chatID, state.StepAwaitingVideo); err != nil {
			return fmt.Errorf("start wizard: %w", err)
		}
		p.reply(ctx, chatID, render.MsgWelcome, SendOptions{})
		return nil

	case command(msg) == "help":
		var handle string
		if bot := p.botIdentity(ctx); bot != nil {
			handle = bot.Username
		}
		p.reply(ctx, chatID, render.RenderHelp(handle), SendOptions{})
		return nil

	case isCancel(msg):
		if err := p.states.Delete(ctx, chatID); err != nil {
			return fmt.Errorf("cancel wizard: %w", err)
		}
		p.reply(ctx, chatID, render.MsgCancelled, SendOptions{})
		return nil
	}

	st, err := p.states.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load wizard state: %w", err)
	}

	if st == nil {
		video := videoFromMessage(msg)
		if video == nil {
			p.reply(ctx, chatID, render.MsgNeedStart, SendOptions{})
			return nil
		}

		st = &state.ConversationState{
			ConversationID: chatID,
			Step:           state.StepAwaitingTitle,
			VideoRef:       video.FileID,
			Video:          video,
		}
		if err := p.states.Save(ctx, st); err != nil {
			return fmt.Errorf("save implicit wizard: %w", err)
		}
		p.reply(ctx, chatID, render.MsgAskTitle, SendOptions{})
		return nil
	}

	return p.handleStep(ctx, msg, st)
}

// handleStep applies one message to the wizard's current step.
// Rejected input leaves the stored state untouched.
func (p *Processor) handleStep(ctx context.Context, msg *tgbotapi.Message, st *state.ConversationState) error {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	if msg.IsCommand() {
		// Unhandled commands are never stored as field values
		text = ""
	}

	switch st.Step {
	case state.StepAwaitingVideo:
		video := videoFromMessage(msg)
		if video == nil {
			p.reply(ctx, chatID, render.MsgVideoOnly, SendOptions{})
			return nil
		}
		st.VideoRef = video.FileID
		st.Video = video
		return p.advance(ctx, st, render.MsgAskTitle)

	case state.StepAwaitingTitle:
		if text == "" {
			p.reply(ctx, chatID, render.ErrInvalidInput, SendOptions{})
			return nil
		}
		st.Title = template.Truncate(text, template.MaxTitleRunes)
		return p.advance(ctx, st, render.MsgAskDescription)

	case state.StepAwaitingDescription:
		if text == "" {
			p.reply(ctx, chatID, render.ErrInvalidInput, SendOptions{})
			return nil
		}
		st.Description = template.Truncate(text, template.MaxDescriptionRunes)
		return p.advance(ctx, st, render.MsgAskTags)

	case state.StepAwaitingTags:
		tags := template.SplitTags(text)
		if len(tags) == 0 {
			p.reply(ctx, chatID, render.ErrInvalidInput, SendOptions{})
			return nil
		}
		st.Tags = tags
		return p.advance(ctx, st, render.RenderSummary(st.Title, st.Description, st.Tags))

	case state.StepAwaitingConfirm:
		if !isConfirm(msg) {
			p.reply(ctx, chatID, render.MsgConfirmReminder, SendOptions{})
			return nil
		}
		return p.confirm(ctx, msg, st)

	default:
		ctxzap.Warn(ctx, "unknown wizard step, dropping state",
			zap.Error(entity.ErrCorruptState),
			zap.String("step", string(st.Step)),
		)
		if err := p.states.Delete(ctx, chatID); err != nil {
			return fmt.Errorf("delete corrupt state: %w", err)
		}
		p.reply(ctx, chatID, render.ErrUnknownState, SendOptions{})
		return nil
	}
}

// advance moves the wizard to its next step, saves it and sends the prompt for that step
func (p *Processor) advance(ctx context.Context, st *state.ConversationState, prompt string) error {
	if !st.Advance() {
		return fmt.Errorf("wizard cannot advance from %q", st.Step)
	}
	if err := p.states.Save(ctx, st); err != nil {
		return fmt.Errorf("save wizard state: %w", err)
	}
	p.reply(ctx, st.ConversationID, prompt, SendOptions{})
	return nil
}

// confirm dispatches a finished wizard. The stored file id is sent as is, without a getFile lookup.
// On failure the state stays so the user can confirm again.
func (p *Processor) confirm(ctx context.Context, msg *tgbotapi.Message, st *state.ConversationState) error {
	chatID := msg.Chat.ID

	if !st.Complete() {
		ctxzap.Warn(ctx, "confirm on incomplete state, dropping state", zap.Error(entity.ErrIncompleteSet))
		if err := p.states.Delete(ctx, chatID); err != nil {
			return fmt.Errorf("delete incomplete state: %w", err)
		}
		p.reply(ctx, chatID, render.ErrIncompleteState, SendOptions{})
		return nil
	}

	if err := p.messenger.SendTyping(ctx, chatID); err != nil {
		ctxzap.Warn(ctx, "failed to send typing action", zap.Error(err))
	}

	video := entity.VideoRef{FileID: st.VideoRef}
	if st.Video != nil && st.Video.FileID == st.VideoRef {
		video = *st.Video
	}

	submission := p.newSubmission(msg, entity.SubmissionSourcePrivate, video)
	submission.Title = st.Title
	submission.Description = st.Description
	submission.Tags = st.Tags

	if !p.dispatch(ctx, chatID, submission, SendOptions{}, render.ErrWorkflowUnreachable) {
		return nil
	}

	if err := p.states.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete finished wizard: %w", err)
	}
	return nil
}
