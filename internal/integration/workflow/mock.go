package workflow

import (
	"context"
	"net/http"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector accepts every submission without sending it anywhere
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// Dispatch logs the submission and reports success
func (m *MockConnector) Dispatch(ctx context.Context, submission *entity.Submission) (*entity.DispatchResult, error) {
	ctxzap.Info(ctx, "[MOCK] dispatching submission to workflow",
		zap.String("submission_id", submission.SubmissionID),
		zap.String("source", string(submission.Source)),
		zap.String("title", submission.Title),
		zap.Strings("tags", submission.Tags),
	)

	return &entity.DispatchResult{
		OK:         true,
		StatusCode: http.StatusOK,
		Body:       `{"ok":true,"mock":true}`,
	}, nil
}
