package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/render"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/state"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/template"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

// runToConfirm walks a fresh wizard up to the confirm step
func runToConfirm(t *testing.T, h *harness) {
	t.Helper()
	h.send(t, privateCommand("/start"))
	h.send(t, privateVideo("vid-1"))
	h.send(t, privateText("عنوان"))
	h.send(t, privateText("توضیحات"))
	h.send(t, privateText("آموزش, برنامه نویسی و جاوااسکریپت"))
	require.Equal(t, state.StepAwaitingConfirm, h.current(t, privateChatID).Step)
}

func TestHandleUpdate_NoMessageIsNoop(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.proc.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 3}))
	require.Empty(t, h.messenger.sent)
}

func TestWizard_StartCreatesEmptyState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.states.Save(context.Background(), &state.ConversationState{
		ConversationID: privateChatID,
		Step:           state.StepAwaitingTags,
		Title:          "stale",
	}))

	h.send(t, privateCommand("/start"))

	st := h.current(t, privateChatID)
	require.Equal(t, state.StepAwaitingVideo, st.Step)
	require.Empty(t, st.VideoRef)
	require.Empty(t, st.Title)
	require.Empty(t, st.Description)
	require.Empty(t, st.Tags)
	require.Equal(t, render.MsgWelcome, h.messenger.last(t).text)
}

func TestWizard_FullFlowDispatchesStoredValues(t *testing.T) {
	h := newHarness(t)

	longTitle := strings.Repeat("ع", template.MaxTitleRunes+10)
	h.send(t, privateCommand("/start"))
	h.send(t, privateVideo("vid-1"))
	require.Equal(t, render.MsgAskTitle, h.messenger.last(t).text)
	h.send(t, privateText(longTitle))
	require.Equal(t, render.MsgAskDescription, h.messenger.last(t).text)
	h.send(t, privateText("  توضیحات ویدیو  "))
	require.Equal(t, render.MsgAskTags, h.messenger.last(t).text)
	h.send(t, privateText("#go, testing"))
	require.Equal(t, render.RenderSummary(template.Truncate(longTitle, template.MaxTitleRunes), "توضیحات ویدیو", []string{"go", "testing"}), h.messenger.last(t).text)

	h.send(t, privateCommand("/confirm"))

	require.Len(t, h.dispatcher.calls, 1)
	got := h.dispatcher.calls[0]
	require.Equal(t, &entity.Submission{
		SubmissionID: "sub-1",
		Source:       entity.SubmissionSourcePrivate,
		ChatID:       privateChatID,
		MessageID:    1,
		Timestamp:    "2026-05-06T07:08:09Z",
		User:         &entity.Submitter{ID: 7, Username: "alice", FirstName: "Alice", LastName: "A", LanguageCode: "fa"},
		Video: entity.VideoRef{
			FileID:       "vid-1",
			FileUniqueID: "u-vid-1",
			Kind:         entity.VideoKindVideo,
			MimeType:     "video/mp4",
			FileName:     "clip.mp4",
			FileSize:     1024,
		},
		Title:       template.Truncate(longTitle, template.MaxTitleRunes),
		Description: "توضیحات ویدیو",
		Tags:        []string{"go", "testing"},
	}, got)

	require.Equal(t, []int64{privateChatID}, h.messenger.typing)
	require.Equal(t, render.MsgSubmitted, h.messenger.last(t).text)
	require.Nil(t, h.current(t, privateChatID))
}

// The private confirm sends the stored file id without asking Telegram to resolve it,
// unlike the group flow which always calls getFile first.
func TestWizard_ConfirmDoesNotRevalidateVideo(t *testing.T) {
	h := newHarness(t)
	h.messenger.meta = &entity.FileMetadata{OK: false, ErrorDescription: "file is too big"}

	runToConfirm(t, h)
	h.send(t, privateText("تایید"))

	require.Empty(t, h.messenger.metaCalls)
	require.Len(t, h.dispatcher.calls, 1)
	require.Equal(t, "vid-1", h.dispatcher.calls[0].Video.FileID)
	require.Empty(t, h.dispatcher.calls[0].Video.FilePath)
}

func TestWizard_ImplicitStartFromBareVideo(t *testing.T) {
	h := newHarness(t)

	h.send(t, privateVideo("vid-9"))

	st := h.current(t, privateChatID)
	require.Equal(t, state.StepAwaitingTitle, st.Step)
	require.Equal(t, "vid-9", st.VideoRef)
	require.Equal(t, render.MsgAskTitle, h.messenger.last(t).text)
}

func TestWizard_ImplicitStartFromVideoDocument(t *testing.T) {
	h := newHarness(t)
	msg := privateText("")
	msg.Document = &tgbotapi.Document{FileID: "doc-1", MimeType: "Video/quicktime"}

	h.send(t, msg)

	st := h.current(t, privateChatID)
	require.Equal(t, "doc-1", st.VideoRef)
	require.Equal(t, entity.VideoKindDocument, st.Video.Kind)
}

func TestWizard_NoStateAndNoVideoAsksForStart(t *testing.T) {
	h := newHarness(t)

	h.send(t, privateText("hello"))

	require.Nil(t, h.current(t, privateChatID))
	require.Equal(t, render.MsgNeedStart, h.messenger.last(t).text)
}

func TestWizard_InvalidInputLeavesStateUnchanged(t *testing.T) {
	pdf := privateText("")
	pdf.Document = &tgbotapi.Document{FileID: "doc-2", MimeType: "application/pdf"}

	tests := []struct {
		name  string
		steps []*tgbotapi.Message
		bad   *tgbotapi.Message
		reply string
	}{
		{
			name:  "video step rejects generic document",
			steps: []*tgbotapi.Message{privateCommand("/start")},
			bad:   pdf,
			reply: render.MsgVideoOnly,
		},
		{
			name:  "video step rejects text",
			steps: []*tgbotapi.Message{privateCommand("/start")},
			bad:   privateText("a title too early"),
			reply: render.MsgVideoOnly,
		},
		{
			name:  "title step rejects blank text",
			steps: []*tgbotapi.Message{privateVideo("v")},
			bad:   privateText("   "),
			reply: render.ErrInvalidInput,
		},
		{
			name:  "title step rejects unknown command",
			steps: []*tgbotapi.Message{privateVideo("v")},
			bad:   privateCommand("/whatever"),
			reply: render.ErrInvalidInput,
		},
		{
			name:  "description step rejects video",
			steps: []*tgbotapi.Message{privateVideo("v"), privateText("t")},
			bad:   privateVideo("other"),
			reply: render.ErrInvalidInput,
		},
		{
			name:  "tags step rejects separators only",
			steps: []*tgbotapi.Message{privateVideo("v"), privateText("t"), privateText("d")},
			bad:   privateText(" , # ،"),
			reply: render.ErrInvalidInput,
		},
		{
			name:  "confirm step reminds on other text",
			steps: []*tgbotapi.Message{privateVideo("v"), privateText("t"), privateText("d"), privateText("x")},
			bad:   privateText("yes please"),
			reply: render.MsgConfirmReminder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			for _, m := range tt.steps {
				h.send(t, m)
			}
			before := h.rawState(t, privateChatID)

			h.send(t, tt.bad)

			require.Equal(t, before, h.rawState(t, privateChatID))
			require.Equal(t, tt.reply, h.messenger.last(t).text)
			require.Empty(t, h.dispatcher.calls)
		})
	}
}

func TestWizard_CancelAtAnyStep(t *testing.T) {
	for _, word := range []string{"/cancel", "CANCEL", "لغو"} {
		t.Run(word, func(t *testing.T) {
			h := newHarness(t)
			h.send(t, privateVideo("v"))
			h.send(t, privateText("t"))

			msg := privateText(word)
			if strings.HasPrefix(word, "/") {
				msg = privateCommand(word)
			}
			h.send(t, msg)

			require.Nil(t, h.current(t, privateChatID))
			require.Equal(t, render.MsgCancelled, h.messenger.last(t).text)
		})
	}
}

func TestWizard_CancelAtConfirm(t *testing.T) {
	h := newHarness(t)
	runToConfirm(t, h)

	h.send(t, privateText("cancel"))

	require.Nil(t, h.current(t, privateChatID))
	require.Empty(t, h.dispatcher.calls)
}

func TestWizard_FailedDispatchKeepsStateForRetry(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.results = []*entity.DispatchResult{
		{OK: false, StatusCode: 500, Body: "workflow exploded"},
		{OK: true, StatusCode: 200},
	}
	runToConfirm(t, h)

	h.send(t, privateCommand("/confirm"))

	require.Equal(t, render.RenderDispatchError(500, "workflow exploded"), h.messenger.last(t).text)
	require.NotNil(t, h.current(t, privateChatID))
	require.Equal(t, state.StepAwaitingConfirm, h.current(t, privateChatID).Step)

	h.send(t, privateCommand("/confirm"))

	require.Len(t, h.dispatcher.calls, 2)
	require.Equal(t, h.dispatcher.calls[0].Title, h.dispatcher.calls[1].Title)
	require.Equal(t, render.MsgSubmitted, h.messenger.last(t).text)
	require.Nil(t, h.current(t, privateChatID))
}

func TestWizard_UnreachableWorkflowKeepsState(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.err = errors.New("dial tcp: connection refused")
	runToConfirm(t, h)

	h.send(t, privateCommand("/confirm"))

	require.Equal(t, render.ErrWorkflowUnreachable, h.messenger.last(t).text)
	require.Equal(t, state.StepAwaitingConfirm, h.current(t, privateChatID).Step)
}

func TestWizard_IncompleteConfirmDropsState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.states.Save(context.Background(), &state.ConversationState{
		ConversationID: privateChatID,
		Step:           state.StepAwaitingConfirm,
		VideoRef:       "v",
		Title:          "t",
		Description:    "d",
	}))

	h.send(t, privateCommand("/confirm"))

	require.Nil(t, h.current(t, privateChatID))
	require.Equal(t, render.ErrIncompleteState, h.messenger.last(t).text)
	require.Empty(t, h.dispatcher.calls)
}

func TestWizard_UnknownStepDropsState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.states.Save(context.Background(), &state.ConversationState{
		ConversationID: privateChatID,
		Step:           state.Step("awaiting_approval"),
	}))

	h.send(t, privateText("hi"))

	require.Nil(t, h.current(t, privateChatID))
	require.Equal(t, render.ErrUnknownState, h.messenger.last(t).text)
}

func TestWizard_HelpDoesNotTouchState(t *testing.T) {
	h := newHarness(t)
	h.send(t, privateVideo("v"))
	before := h.rawState(t, privateChatID)

	h.send(t, privateCommand("/help"))

	require.Equal(t, before, h.rawState(t, privateChatID))
	require.Equal(t, render.RenderHelp("VideoBot"), h.messenger.last(t).text)
}

type failingStore struct {
	StateStore
	err error
}

func (f failingStore) Get(context.Context, int64) (*state.ConversationState, error) {
	return nil, f.err
}

func TestWizard_StoreFailureIsReported(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("state backend down")
	h.proc.states = failingStore{StateStore: h.states, err: boom}

	err := h.proc.HandleUpdate(context.Background(), tgbotapi.Update{Message: privateText("hello")})

	require.ErrorIs(t, err, boom)
	require.Equal(t, render.ErrGeneric, h.messenger.last(t).text)
}
