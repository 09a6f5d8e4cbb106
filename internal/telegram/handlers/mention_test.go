package handlers

import (
	"testing"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

func TestIsMentioned(t *testing.T) {
	bot := &entity.BotIdentity{ID: 42, Username: "VideoBot"}

	tests := []struct {
		name string
		msg  *tgbotapi.Message
		want bool
	}{
		{
			name: "raw handle without entities",
			msg:  &tgbotapi.Message{Text: "hey @videobot please"},
			want: true,
		},
		{
			name: "no handle and no entities",
			msg:  &tgbotapi.Message{Text: "hey there"},
			want: false,
		},
		{
			name: "mention entity after emoji uses utf-16 offsets",
			msg: &tgbotapi.Message{
				Text:     "🎬 @VideoBot",
				Entities: []tgbotapi.MessageEntity{{Type: "mention", Offset: 3, Length: 9}},
			},
			want: true,
		},
		{
			name: "mention entity for another bot",
			msg: &tgbotapi.Message{
				Text:     "@OtherBot @VideoBot",
				Entities: []tgbotapi.MessageEntity{{Type: "mention", Offset: 0, Length: 9}},
			},
			want: false,
		},
		{
			name: "text mention by id",
			msg: &tgbotapi.Message{
				Text:     "Video bot, hi",
				Entities: []tgbotapi.MessageEntity{{Type: "text_mention", Offset: 0, Length: 9, User: &tgbotapi.User{ID: 42}}},
			},
			want: true,
		},
		{
			name: "text mention of someone else",
			msg: &tgbotapi.Message{
				Text:     "Bob, hi",
				Entities: []tgbotapi.MessageEntity{{Type: "text_mention", Offset: 0, Length: 3, User: &tgbotapi.User{ID: 7}}},
			},
			want: false,
		},
		{
			name: "caption entities are used when text is empty",
			msg: &tgbotapi.Message{
				Caption:         "@VideoBot",
				CaptionEntities: []tgbotapi.MessageEntity{{Type: "mention", Offset: 0, Length: 9}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsMentioned(tt.msg, bot))
		})
	}
}

func TestIsMentioned_NoIdentity(t *testing.T) {
	require.False(t, IsMentioned(&tgbotapi.Message{Text: "@VideoBot"}, nil))
}

func TestSliceByUTF16(t *testing.T) {
	require.Equal(t, "@bot", sliceByUTF16("😀 @bot!", 3, 4))
	require.Equal(t, "", sliceByUTF16("abc", 1, 0))
	require.Equal(t, "bc", sliceByUTF16("abc", 1, 10))
}

func TestResolveGroupVideo(t *testing.T) {
	current := withVideo(&tgbotapi.Message{}, "cur")
	current.ReplyToMessage = &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "video/webm"}}

	require.Equal(t, "doc", resolveGroupVideo(current, true).FileID)
	require.Equal(t, "doc", resolveGroupVideo(current, false).FileID)

	current.ReplyToMessage = &tgbotapi.Message{Text: "no video here"}
	require.Nil(t, resolveGroupVideo(current, true))
	require.Equal(t, "cur", resolveGroupVideo(current, false).FileID)
}
