package handlers

import (
	"strings"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// videoFromMessage returns the video attached to msg: a native video or a document whose mime type starts with "video/"
func videoFromMessage(msg *tgbotapi.Message) *entity.VideoRef {
	if msg == nil {
		return nil
	}

	if v := msg.Video; v != nil {
		return &entity.VideoRef{
			FileID:       v.FileID,
			FileUniqueID: v.FileUniqueID,
			Kind:         entity.VideoKindVideo,
			MimeType:     v.MimeType,
			FileName:     v.FileName,
			FileSize:     int64(v.FileSize),
		}
	}

	if d := msg.Document; d != nil && isVideoMime(d.MimeType) {
		return &entity.VideoRef{
			FileID:       d.FileID,
			FileUniqueID: d.FileUniqueID,
			Kind:         entity.VideoKindDocument,
			MimeType:     d.MimeType,
			FileName:     d.FileName,
			FileSize:     int64(d.FileSize),
		}
	}

	return nil
}

func isVideoMime(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "video/")
}

// resolveGroupVideo picks the video a group template refers to.
// With a source link only the replied-to message counts, so an attachment on the
// template message itself cannot be confused with the linked content.
// Without one the replied-to message is preferred over the current message.
func resolveGroupVideo(msg *tgbotapi.Message, hasSourceLink bool) *entity.VideoRef {
	replied := videoFromMessage(msg.ReplyToMessage)
	if hasSourceLink || replied != nil {
		return replied
	}
	return videoFromMessage(msg)
}
