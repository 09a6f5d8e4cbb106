package handlers

import (
	"strings"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// IsMentioned reports whether msg addresses the bot.
// Entities win when present; the raw @handle substring check only applies to messages without entities.
func IsMentioned(msg *tgbotapi.Message, bot *entity.BotIdentity) bool {
	if msg == nil || bot == nil {
		return false
	}

	text, entities := messageTextAndEntities(msg)
	handle := "@" + strings.TrimPrefix(bot.Username, "@")

	if len(entities) == 0 {
		return bot.Username != "" && strings.Contains(strings.ToLower(text), strings.ToLower(handle))
	}

	for _, e := range entities {
		switch e.Type {
		case "mention":
			if bot.Username != "" && strings.EqualFold(sliceByUTF16(text, e.Offset, e.Length), handle) {
				return true
			}
		case "text_mention":
			if e.User != nil && bot.ID != 0 && e.User.ID == bot.ID {
				return true
			}
		}
	}

	return false
}

// messageTextAndEntities prefers the message text and falls back to the media caption
func messageTextAndEntities(msg *tgbotapi.Message) (string, []tgbotapi.MessageEntity) {
	if msg.Text != "" {
		return msg.Text, msg.Entities
	}
	return msg.Caption, msg.CaptionEntities
}

// Telegram entity offsets count UTF-16 code units
func sliceByUTF16(s string, offset, length int) string {
	if offset < 0 {
		offset = 0
	}
	if length <= 0 || s == "" {
		return ""
	}
	start := utf16OffsetToByteIndex(s, offset)
	end := utf16OffsetToByteIndex(s, offset+length)
	if start > end {
		return ""
	}
	return s[start:end]
}

func utf16OffsetToByteIndex(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	count := 0
	for i, r := range s {
		if count >= offset {
			return i
		}
		if r <= 0xFFFF {
			count++
		} else {
			count += 2
		}
	}
	return len(s)
}
