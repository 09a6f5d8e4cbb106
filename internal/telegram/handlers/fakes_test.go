package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/repository"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	chatID int64
	text   string
	opts   SendOptions
}

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []sentMessage
	typing    []int64
	metaCalls []string
	meta      *entity.FileMetadata
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, text string, opts SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, opts: opts})
	return nil
}

func (f *fakeMessenger) SendTyping(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, chatID)
	return nil
}

func (f *fakeMessenger) FileMetadata(_ context.Context, fileID string) *entity.FileMetadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metaCalls = append(f.metaCalls, fileID)
	if f.meta != nil {
		return f.meta
	}
	return &entity.FileMetadata{OK: true, FilePath: "videos/file_1.mp4", FileSize: 2048}
}

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.text)
	}
	return out
}

func (f *fakeMessenger) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no message was sent")
	return f.sent[len(f.sent)-1]
}

type fakeDispatcher struct {
	calls   []*entity.Submission
	results []*entity.DispatchResult
	err     error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, s *entity.Submission) (*entity.DispatchResult, error) {
	f.calls = append(f.calls, s)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return &entity.DispatchResult{OK: true, StatusCode: 200}, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

type fakeIdentity struct {
	bot *entity.BotIdentity
	err error
}

func (f *fakeIdentity) Identity(context.Context) (*entity.BotIdentity, error) {
	return f.bot, f.err
}

type harness struct {
	proc       *Processor
	messenger  *fakeMessenger
	dispatcher *fakeDispatcher
	identity   *fakeIdentity
	store      *repository.StateMemory
	states     *state.Manager
}

var testNow = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		messenger:  &fakeMessenger{},
		dispatcher: &fakeDispatcher{},
		identity:   &fakeIdentity{bot: &entity.BotIdentity{ID: 999, Username: "VideoBot"}},
		store:      repository.NewStateMemory(time.Hour),
	}
	h.states = state.NewManager(h.store)
	h.proc = NewProcessor(h.messenger, h.dispatcher, h.identity, h.states)
	h.proc.now = func() time.Time { return testNow }
	h.proc.newID = func() string { return "sub-1" }

	return h
}

func (h *harness) send(t *testing.T, msg *tgbotapi.Message) {
	t.Helper()
	require.NoError(t, h.proc.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1, Message: msg}))
}

func (h *harness) current(t *testing.T, chatID int64) *state.ConversationState {
	t.Helper()
	st, err := h.states.Get(context.Background(), chatID)
	require.NoError(t, err)
	return st
}

func (h *harness) rawState(t *testing.T, chatID int64) []byte {
	t.Helper()
	rec, err := h.store.Get(context.Background(), chatID)
	require.NoError(t, err)
	return rec.Data
}

const privateChatID int64 = 100

func sender() *tgbotapi.User {
	return &tgbotapi.User{ID: 7, UserName: "alice", FirstName: "Alice", LastName: "A", LanguageCode: "fa"}
}

func privateText(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		Date:      int(testNow.Unix()),
		Chat:      &tgbotapi.Chat{ID: privateChatID, Type: "private"},
		From:      sender(),
		Text:      text,
	}
}

// privateCommand builds a message the way Telegram marks slash commands
func privateCommand(text string) *tgbotapi.Message {
	msg := privateText(text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len([]rune(text))}}
	return msg
}

func privateVideo(fileID string) *tgbotapi.Message {
	msg := privateText("")
	msg.Video = &tgbotapi.Video{FileID: fileID, FileUniqueID: "u-" + fileID, MimeType: "video/mp4", FileName: "clip.mp4", FileSize: 1024}
	return msg
}

const groupChatID int64 = -100500

func groupText(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 11,
		Date:      int(testNow.Unix()),
		Chat:      &tgbotapi.Chat{ID: groupChatID, Type: "supergroup"},
		From:      sender(),
		Text:      text,
	}
}

func withVideo(msg *tgbotapi.Message, fileID string) *tgbotapi.Message {
	msg.Video = &tgbotapi.Video{FileID: fileID, MimeType: "video/mp4"}
	return msg
}

func replyTo(msg *tgbotapi.Message, replied *tgbotapi.Message) *tgbotapi.Message {
	msg.ReplyToMessage = replied
	return msg
}

func groupVideoMessage(fileID string) *tgbotapi.Message {
	return withVideo(&tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: groupChatID, Type: "supergroup"}}, fileID)
}
