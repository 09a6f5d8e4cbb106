package workflow

import (
	"context"
	"fmt"
	"net/http"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/integration/common"
	pkghttp "github.com/UnsureAboli/telegram-n8n-video-bot/pkg/http"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Connector posts submissions to the publishing workflow webhook
type Connector struct {
	config    config.WorkflowConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.WorkflowConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Dispatch posts the submission once. Any HTTP answer is a result; only transport failures are errors.
func (c *Connector) Dispatch(ctx context.Context, submission *entity.Submission) (*entity.DispatchResult, error) {
	requestID := uuid.NewString()

	ctxzap.Info(ctx, "dispatching submission to workflow",
		zap.String("submission_id", submission.SubmissionID),
		zap.String("request_id", requestID),
		zap.Int64("chat_id", submission.ChatID),
		zap.Int("tags", len(submission.Tags)),
	)

	resp, err := c.connector.Do(ctx, http.MethodPost, c.config.Endpoint, submission,
		pkghttp.WithHeader(requestIDHeader, requestID),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch submission: %w", err)
	}

	result := &entity.DispatchResult{
		OK:         resp.Success(),
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
	}

	ctxzap.Info(ctx, "workflow responded",
		zap.String("submission_id", submission.SubmissionID),
		zap.Int("status_code", result.StatusCode),
		zap.Bool("ok", result.OK),
	)

	return result, nil
}
