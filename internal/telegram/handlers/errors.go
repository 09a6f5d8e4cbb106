package handlers

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
	SeverityCritical
)

// String returns string representation of error severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

// classifyHandlerError analyzes an error and returns a HandlerError with appropriate severity and messages
func classifyHandlerError(err error) *HandlerError {
	if err == nil {
		return &HandlerError{
			UserMessage: render.ErrGeneric,
			LogMessage:  "unknown error",
			Severity:    SeverityWarning,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrTimeout,
			LogMessage:  "operation timed out",
			Severity:    SeverityError,
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrServiceUnavailable,
			LogMessage:  "dependency refused connection",
			Severity:    SeverityCritical,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &HandlerError{
				Err:         err,
				UserMessage: render.ErrTimeout,
				LogMessage:  "network timeout",
				Severity:    SeverityError,
			}
		}
		return &HandlerError{
			Err:         err,
			UserMessage: render.ErrNetworkIssue,
			LogMessage:  "network error",
			Severity:    SeverityError,
		}
	}

	return &HandlerError{
		Err:         err,
		UserMessage: render.ErrGeneric,
		LogMessage:  "update processing failed",
		Severity:    SeverityError,
	}
}

// HandleError logs err with its severity and tells the user something went wrong
func (p *Processor) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	handlerErr := classifyHandlerError(err)

	switch handlerErr.Severity {
	case SeverityCritical, SeverityError:
		ctxzap.Error(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.String("severity", handlerErr.Severity.String()),
			zap.Int64("chat_id", chatID),
		)
	case SeverityWarning:
		ctxzap.Warn(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	}

	p.reply(ctx, chatID, handlerErr.UserMessage, SendOptions{})
}
