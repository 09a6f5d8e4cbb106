package handlers

import (
	"context"
	"strings"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/render"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/template"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// handleGroup runs the mention-triggered template flow. It keeps no state.
func (p *Processor) handleGroup(ctx context.Context, msg *tgbotapi.Message) error {
	bot := p.botIdentity(ctx)
	if !IsMentioned(msg, bot) {
		return nil
	}

	chatID := msg.Chat.ID
	opts := SendOptions{ReplyToMessageID: msg.MessageID}

	text, _ := messageTextAndEntities(msg)
	if strings.TrimSpace(text) == "" {
		p.reply(ctx, chatID, render.RenderGroupGuidance(bot.Username), opts)
		return nil
	}

	parsed := template.Parse(text, bot.Username)
	if !parsed.Complete() {
		ctxzap.Debug(ctx, "incomplete group template", zap.Bool("parsed", parsed != nil))
		p.reply(ctx, chatID, render.RenderGroupGuidance(bot.Username), opts)
		return nil
	}

	hasLink := parsed.SourceLink != ""
	video := resolveGroupVideo(msg, hasLink)
	if video == nil {
		if hasLink {
			p.reply(ctx, chatID, render.MsgReplyToVideoWithLink, opts)
		} else {
			p.reply(ctx, chatID, render.MsgReplyToVideo, opts)
		}
		return nil
	}

	meta := p.messenger.FileMetadata(ctx, video.FileID)
	if meta == nil || !meta.OK {
		var reason string
		if meta != nil {
			reason = meta.ErrorDescription
		}
		ctxzap.Warn(ctx, "telegram rejected video file",
			zap.String("file_id", video.FileID),
			zap.String("reason", reason),
		)
		p.reply(ctx, chatID, render.RenderFileRejected(reason), opts)
		return nil
	}

	if video.FileID == "" {
		ctxzap.Error(ctx, "resolved video has no file id", zap.Error(entity.ErrMissingVideo))
		p.reply(ctx, chatID, render.ErrInternal, opts)
		return nil
	}

	applyFileMetadata(video, meta)

	submission := p.newSubmission(msg, entity.SubmissionSourceGroup, *video)
	submission.Title = parsed.Title
	submission.Description = parsed.Description
	submission.Tags = parsed.Tags
	submission.SourceLink = parsed.SourceLink
	submission.Channel = parsed.Channel

	p.dispatch(ctx, chatID, submission, opts, render.ErrWorkflowUnreachableGroup)
	return nil
}
