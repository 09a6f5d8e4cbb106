package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/pkg/logger"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/pkg/response"
	"github.com/aws/aws-lambda-go/events"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// HandleLambda serves the webhook behind API Gateway.
// The health route is answered here too so one function can back both paths.
func (h *Handler) HandleLambda(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx = logger.AddFields(ctx, zap.String("request_id", req.RequestContext.RequestID))
	ctx = logger.WithAction(ctx, "HandleLambda")

	if req.HTTPMethod == http.MethodGet && strings.HasSuffix(req.Path, "/health") {
		return lambdaJSON(http.StatusOK, map[string]string{"status": "healthy"}), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			ctxzap.Extract(ctx).Warn("failed to decode base64 body", zap.Error(err))
			return lambdaJSON(http.StatusBadRequest, response.ErrorResponse{Error: msgInvalidUpdate}), nil
		}
		body = decoded
	}

	status, payload := h.serve(ctx, headerValue(req.Headers, SecretHeader), body)
	return lambdaJSON(status, payload), nil
}

// headerValue looks a header up ignoring case; API Gateway may lowercase names
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func lambdaJSON(status int, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
