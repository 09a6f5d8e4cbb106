package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/entity"
)

type identitySource interface {
	Identity(ctx context.Context) (*entity.BotIdentity, error)
}

// IdentityCache resolves the bot account once and keeps it for the life of the process.
// Failed lookups are not cached. The value is never invalidated.
type IdentityCache struct {
	source identitySource

	mu       sync.Mutex
	identity *entity.BotIdentity
}

// NewIdentityCache creates a lazily populated identity cache
func NewIdentityCache(source identitySource) *IdentityCache {
	return &IdentityCache{source: source}
}

// Identity returns the cached bot account, resolving it on first use
func (c *IdentityCache) Identity(ctx context.Context) (*entity.BotIdentity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity != nil {
		return c.identity, nil
	}

	identity, err := c.source.Identity(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrIdentityUnavailable, err)
	}

	c.identity = identity
	return identity, nil
}
