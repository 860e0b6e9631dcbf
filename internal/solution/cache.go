package solution

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/v0xg/webagent/internal/action"
	"go.uber.org/zap"
)

const (
	defaultCacheSize  = 256
	defaultMinActions = 3
)

// KeyStrategy derives the cache key for a task
type KeyStrategy func(prompt, url string) string

// KeyByPrompt ignores the URL, so the same prompt on another page is a hit
func KeyByPrompt(prompt, _ string) string { return prompt }

// KeyByPromptAndURL keys on both prompt and URL
func KeyByPromptAndURL(prompt, url string) string { return prompt + "\x00" + url }

// CacheConfig configures a Cache
type CacheConfig struct {
	Size int
	TTL  time.Duration
	// MinActions is the smallest action count worth caching
	MinActions int
	KeyByURL   bool
}

type cacheEntry struct {
	actions  []action.Action
	storedAt time.Time
}

// Cache maps task prompts to previously computed action lists
type Cache struct {
	mu         sync.Mutex
	lru        *lru.Cache[string, cacheEntry]
	ttl        time.Duration
	minActions int
	key        KeyStrategy
	logger     *zap.Logger
	now        func() time.Time
}

// NewCache creates a Cache. Zero config values fall back to defaults; a zero
// TTL never expires entries.
func NewCache(cfg CacheConfig, logger *zap.Logger) (*Cache, error) {
	if cfg.Size <= 0 {
		cfg.Size = defaultCacheSize
	}
	if cfg.MinActions <= 0 {
		cfg.MinActions = defaultMinActions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l, err := lru.New[string, cacheEntry](cfg.Size)
	if err != nil {
		return nil, err
	}
	key := KeyByPrompt
	if cfg.KeyByURL {
		key = KeyByPromptAndURL
	}
	return &Cache{
		lru:        l,
		ttl:        cfg.TTL,
		minActions: cfg.MinActions,
		key:        key,
		logger:     logger.Named("cache"),
		now:        time.Now,
	}, nil
}

// Get returns the cached actions for the task
func (c *Cache) Get(prompt, url string) ([]action.Action, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.key(prompt, url)
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) >= c.ttl {
		c.lru.Remove(key)
		return nil, false
	}
	c.logger.Debug("using cached actions", zap.Int("actions", len(entry.actions)))
	return cloneActions(entry.actions), true
}

// Put stores actions if there are at least MinActions of them and reports
// whether they were stored
func (c *Cache) Put(prompt, url string, actions []action.Action) bool {
	if len(actions) < c.minActions {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(c.key(prompt, url), cacheEntry{actions: cloneActions(actions), storedAt: c.now()})
	c.logger.Debug("caching actions", zap.Int("actions", len(actions)))
	return true
}

// Len reports the number of entries, expired ones included
func (c *Cache) Len() int {
	return c.lru.Len()
}

func cloneActions(actions []action.Action) []action.Action {
	out := make([]action.Action, len(actions))
	copy(out, actions)
	return out
}
