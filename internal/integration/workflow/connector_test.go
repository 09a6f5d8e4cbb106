package workflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	pkghttp "github.com/UnsureAboli/telegram-n8n-video-bot/pkg/http"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(url string) config.WorkflowConnectorConfig {
	return config.WorkflowConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			RequestTimeout:        2 * time.Second,
			ConnTimeout:           time.Second,
			KeepAlive:             time.Second,
			IdleConnTimeout:       time.Second,
			ResponseHeaderTimeout: time.Second,
			Token:                 "wf-token",
			Url:                   url,
		},
		Endpoint: "/webhook/video",
	}
}

func testSubmission() *entity.Submission {
	return &entity.Submission{
		SubmissionID: "sub-1",
		Source:       entity.SubmissionSourceGroup,
		ChatID:       -100,
		MessageID:    5,
		Timestamp:    "2026-05-06T07:08:09Z",
		Video:        entity.VideoRef{FileID: "vid", Kind: entity.VideoKindVideo},
		Title:        "t",
		Description:  "d",
		Tags:         []string{"a", "b"},
		SourceLink:   "https://example.com/x",
	}
}

func TestConnector_Dispatch_Success(t *testing.T) {
	var (
		gotPath    string
		gotAuth    string
		gotReqID   string
		gotPayload map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(requestIDHeader)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())

	res, err := c.Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)
	require.Equal(t, &entity.DispatchResult{OK: true, StatusCode: 200, Body: `{"accepted":true}`}, res)

	require.Equal(t, "/webhook/video", gotPath)
	require.Equal(t, "Bearer wf-token", gotAuth)
	require.NotEmpty(t, gotReqID)
	require.Equal(t, "sub-1", gotPayload["submission_id"])
	require.Equal(t, "group", gotPayload["source"])
	require.Equal(t, []any{"a", "b"}, gotPayload["tags"])
	require.Equal(t, "https://example.com/x", gotPayload["source_link"])
	require.NotContains(t, gotPayload, "channel")
	require.NotContains(t, gotPayload, "user")
}

func TestConnector_Dispatch_NonSuccessIsAResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())

	res, err := c.Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, http.StatusBadGateway, res.StatusCode)
	require.Equal(t, "upstream down", res.Body)
}

func TestConnector_Dispatch_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewConnector(testConfig(url), zap.NewNop())

	_, err := c.Dispatch(context.Background(), testSubmission())
	var netErr *pkghttp.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestMockConnector_AlwaysSucceeds(t *testing.T) {
	res, err := NewMockConnector(zap.NewNop()).Dispatch(context.Background(), testSubmission())
	require.NoError(t, err)
	require.True(t, res.OK)
}
