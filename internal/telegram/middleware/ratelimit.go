package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	warningInterval   = 30 * time.Second
	cleanupInterval   = 10 * time.Minute
	inactiveThreshold = time.Hour
)

// userLimit tracks rate limit state for a single user
type userLimit struct {
	tokens        float64
	lastRefill    time.Time
	warningsSent  int
	lastWarningAt time.Time
	mu            sync.Mutex
}

// UpdateFilter reports whether a group update is addressed to the bot
type UpdateFilter func(ctx context.Context, update tgbotapi.Update) bool

// RateLimiterMiddleware implements token bucket rate limiting per user.
// Throttled updates are dropped without error. Group updates are metered only
// when the addressed filter accepts them; other group chatter passes through untouched.
type RateLimiterMiddleware struct {
	limits     map[int64]*userLimit
	mu         sync.Mutex
	maxTokens  float64 // bucket size
	refillRate float64 // tokens added per second
	sender     Sender
	addressed  UpdateFilter
	now        func() time.Time
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(requestsPerMinute, burstSize int, sender Sender) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limits:     make(map[int64]*userLimit),
		maxTokens:  float64(burstSize),
		refillRate: float64(requestsPerMinute) / 60.0,
		sender:     sender,
		now:        time.Now,
	}
}

// WithGroupFilter meters group updates that f accepts
func (rl *RateLimiterMiddleware) WithGroupFilter(f UpdateFilter) *RateLimiterMiddleware {
	rl.addressed = f
	return rl
}

// metered reports whether update counts against its sender's bucket
func (rl *RateLimiterMiddleware) metered(ctx context.Context, update tgbotapi.Update) bool {
	chat := update.Message.Chat
	if chat == nil || !(chat.IsGroup() || chat.IsSuperGroup()) {
		return true
	}
	return rl.addressed != nil && rl.addressed(ctx, update)
}

// Handle processes the update through rate limiting
func (rl *RateLimiterMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next HandlerFunc) error {
	userID, chatID := updateOrigin(update)
	if userID == 0 || !rl.metered(ctx, update) {
		return next(ctx, update)
	}

	allowed, warning := rl.allowRequest(userID)
	if allowed {
		return next(ctx, update)
	}

	ctxzap.Warn(ctx, "rate limit exceeded",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)

	if warning > 0 && rl.sender != nil && chatID != 0 {
		if err := rl.sender.Send(ctx, chatID, render.RenderRateLimitWarning(warning)); err != nil {
			ctxzap.Error(ctx, "failed to send rate limit warning",
				zap.Error(err),
				zap.Int64("chat_id", chatID),
			)
		}
	}

	return nil
}

// allowRequest takes a token for userID. When the bucket is empty it returns the
// warning number to send, or 0 if a warning went out recently.
func (rl *RateLimiterMiddleware) allowRequest(userID int64) (bool, int) {
	now := rl.now()

	rl.mu.Lock()
	limit, exists := rl.limits[userID]
	if !exists {
		limit = &userLimit{
			tokens:     rl.maxTokens,
			lastRefill: now,
		}
		rl.limits[userID] = limit
	}
	rl.mu.Unlock()

	limit.mu.Lock()
	defer limit.mu.Unlock()

	elapsed := now.Sub(limit.lastRefill).Seconds()
	limit.tokens += elapsed * rl.refillRate
	if limit.tokens > rl.maxTokens {
		limit.tokens = rl.maxTokens
	}
	limit.lastRefill = now

	if limit.tokens >= 1.0 {
		limit.tokens -= 1.0
		limit.warningsSent = 0
		return true, 0
	}

	if now.Sub(limit.lastWarningAt) > warningInterval {
		limit.warningsSent++
		limit.lastWarningAt = now
		return false, limit.warningsSent
	}

	return false, 0
}

// RunCleanup removes users that have been idle for an hour until ctx is done
func (rl *RateLimiterMiddleware) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiterMiddleware) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, limit := range rl.limits {
		limit.mu.Lock()
		idle := now.Sub(limit.lastRefill) > inactiveThreshold
		limit.mu.Unlock()
		if idle {
			delete(rl.limits, userID)
		}
	}
}
