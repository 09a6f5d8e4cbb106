package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
	pkgRetry "github.com/UnsureAboli/telegram-n8n-video-bot/internal/pkg/retry"
	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/handlers"
	"github.com/avast/retry-go/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// botAPI is the subset of *tgbotapi.BotAPI used by Client
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetMe() (tgbotapi.User, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Client talks to the Telegram Bot API on behalf of the update processor
type Client struct {
	api   botAPI
	retry pkgRetry.RetryConfig
}

// NewClient creates a new Telegram client. Sends hitting flood control or a network error are retried per retryCfg.
func NewClient(api botAPI, retryCfg pkgRetry.RetryConfig) *Client {
	return &Client{
		api:   api,
		retry: retryCfg,
	}
}

// SendText sends a plain text message
func (c *Client) SendText(ctx context.Context, chatID int64, text string, opts handlers.SendOptions) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = opts.ParseMode
	if opts.ReplyToMessageID != 0 {
		msg.ReplyToMessageID = opts.ReplyToMessageID
		msg.AllowSendingWithoutReply = true
	}

	retryOpts := append(c.retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(isRetryableSendError),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "failed to send message, retrying",
				zap.Error(err),
				zap.Uint("attempt", n+1),
				zap.Int64("chat_id", chatID),
			)
		}),
	)

	err := retry.Do(func() error {
		_, err := c.api.Send(msg)
		return err
	}, retryOpts...)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// Send implements middleware.Sender
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.SendText(ctx, chatID, text, handlers.SendOptions{})
}

// SendTyping shows the "typing" chat action
func (c *Client) SendTyping(_ context.Context, chatID int64) error {
	// sendChatAction answers with a bare boolean, which Send cannot decode
	if _, err := c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("send chat action: %w", err)
	}
	return nil
}

// FileMetadata looks up a file via getFile
func (c *Client) FileMetadata(ctx context.Context, fileID string) *entity.FileMetadata {
	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		description := err.Error()
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) {
			description = tgErr.Message
		}

		ctxzap.Debug(ctx, "getFile failed",
			zap.Error(err),
			zap.String("file_id", fileID),
		)
		return &entity.FileMetadata{OK: false, ErrorDescription: description}
	}

	return &entity.FileMetadata{
		OK:           true,
		FilePath:     file.FilePath,
		FileSize:     int64(file.FileSize),
		FileUniqueID: file.FileUniqueID,
	}
}

// Identity fetches the bot account via getMe
func (c *Client) Identity(_ context.Context) (*entity.BotIdentity, error) {
	me, err := c.api.GetMe()
	if err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &entity.BotIdentity{ID: me.ID, Username: me.UserName}, nil
}

// RegisterWebhook points Telegram at url. secret is echoed back by Telegram in
// the X-Telegram-Bot-Api-Secret-Token header of every webhook call.
func (c *Client) RegisterWebhook(ctx context.Context, url, secret string) error {
	params := tgbotapi.Params{}
	params["url"] = url
	params["allowed_updates"] = `["message"]`
	params.AddNonEmpty("secret_token", secret)

	retryOpts := append(c.retry.ToRetryOptions(), retry.Context(ctx))

	err := retry.Do(func() error {
		_, err := c.api.MakeRequest("setWebhook", params)
		return err
	}, retryOpts...)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	ctxzap.Info(ctx, "telegram webhook registered", zap.String("url", url))
	return nil
}

// isRetryableSendError retries flood control answers and transport failures.
// Any other API error is final.
func isRetryableSendError(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr.RetryAfter > 0 || tgErr.Code == 429
	}
	return true
}
