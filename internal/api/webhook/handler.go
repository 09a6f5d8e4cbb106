package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/pkg/logger"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/pkg/response"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/middleware"
	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// SecretHeader carries the secret token Telegram echoes back on every webhook call
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxBodyBytes bounds a single update envelope
const maxBodyBytes = 1 << 20

const (
	msgUnauthorized  = "unauthorized"
	msgInvalidUpdate = "invalid update"
	msgInternal      = "internal error"
)

// Handler accepts Telegram updates pushed over HTTP
type Handler struct {
	process middleware.HandlerFunc
	secret  string
}

// NewHandler creates a webhook handler. An empty secret disables the header check.
func NewHandler(process middleware.HandlerFunc, secret string) *Handler {
	return &Handler{
		process: process,
		secret:  secret,
	}
}

// RegisterRoutes registers webhook routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/webhook", h.HandleWebhook)
}

// HandleWebhook godoc
// POST /webhook
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "HandleWebhook")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		ctxzap.Extract(ctx).Warn("failed to read webhook body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, msgInvalidUpdate)
		return
	}

	status, payload := h.serve(ctx, r.Header.Get(SecretHeader), body)
	response.JSON(w, status, payload)
}

// serve runs one webhook call and returns the status and JSON body to answer with
func (h *Handler) serve(ctx context.Context, secret string, body []byte) (int, any) {
	log := ctxzap.Extract(ctx)

	if !h.authorized(secret) {
		log.Warn("rejected webhook call with wrong secret token")
		return http.StatusUnauthorized, response.ErrorResponse{Error: msgUnauthorized}
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		log.Warn("failed to decode update", zap.Error(err))
		return http.StatusBadRequest, response.ErrorResponse{Error: msgInvalidUpdate}
	}

	if err := h.handle(ctx, update); err != nil {
		log.Error("failed to process update", zap.Int("update_id", update.UpdateID), zap.Error(err))
		return http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal}
	}

	return http.StatusOK, response.AckResponse{OK: true}
}

// handle shields the HTTP layer from panics that escape the update middleware
func (h *Handler) handle(ctx context.Context, update tgbotapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.process(ctx, update)
}

func (h *Handler) authorized(got string) bool {
	if h.secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}
