package handlers

import (
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// newSubmission fills the envelope fields shared by both flows
func (p *Processor) newSubmission(msg *tgbotapi.Message, source entity.SubmissionSource, video entity.VideoRef) *entity.Submission {
	ts := p.now()
	if msg.Date != 0 {
		ts = msg.Time()
	}

	submission := &entity.Submission{
		SubmissionID: p.newID(),
		Source:       source,
		ChatID:       msg.Chat.ID,
		MessageID:    msg.MessageID,
		Timestamp:    ts.UTC().Format(time.RFC3339),
		Video:        video,
	}

	if from := msg.From; from != nil {
		submission.User = &entity.Submitter{
			ID:           from.ID,
			Username:     from.UserName,
			FirstName:    from.FirstName,
			LastName:     from.LastName,
			LanguageCode: from.LanguageCode,
		}
	}

	return submission
}

// applyFileMetadata merges a getFile answer into the video reference
func applyFileMetadata(video *entity.VideoRef, meta *entity.FileMetadata) {
	if meta == nil {
		return
	}
	if meta.FilePath != "" {
		video.FilePath = meta.FilePath
	}
	if meta.FileSize > 0 {
		video.FileSize = meta.FileSize
	}
	if video.FileUniqueID == "" {
		video.FileUniqueID = meta.FileUniqueID
	}
}
