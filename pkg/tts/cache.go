package tts

import (
	"context"
	"log/slog"
	"sync"
)

// Cache wraps a Provider and keeps every synthesized clip in memory.
// Cue texts are a small fixed set, so the cache is unbounded.
type Cache struct {
	provider Provider
	logger   *slog.Logger

	mu    sync.Mutex
	clips map[string]*AudioResult
}

// NewCache creates a caching wrapper around provider.
func NewCache(provider Provider, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		provider: provider,
		logger:   logger.With("component", "tts.cache"),
		clips:    make(map[string]*AudioResult),
	}
}

// Synthesize returns the cached clip for text, synthesizing it on first use.
// Failures are not cached.
func (c *Cache) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	c.mu.Lock()
	clip, ok := c.clips[text]
	c.mu.Unlock()
	if ok {
		return clip, nil
	}

	clip, err := c.provider.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.clips[text] = clip
	c.mu.Unlock()
	c.logger.Debug("cached clip", "chars", len(text), "bytes", len(clip.Audio))
	return clip, nil
}

// Warm synthesizes texts ahead of use. It stops at the first error.
func (c *Cache) Warm(ctx context.Context, texts ...string) error {
	for _, t := range texts {
		if _, err := c.Synthesize(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of cached clips.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clips)
}

// Health delegates to the wrapped provider.
func (c *Cache) Health(ctx context.Context) error {
	return c.provider.Health(ctx)
}

// Close closes the wrapped provider.
func (c *Cache) Close() error {
	return c.provider.Close()
}

var _ Provider = (*Cache)(nil)
