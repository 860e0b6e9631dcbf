package solution

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/v0xg/webagent/internal/action"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no solved task is stored for a prompt and URL
var ErrNotFound = errors.New("solved task not found")

// StoreConfig configures a RedisStore
type StoreConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisStore persists solved tasks keyed by prompt and URL
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(ctx context.Context, cfg StoreConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, cfg, logger), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, cfg StoreConfig, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		logger: logger.Named("store"),
	}
}

type storedTask struct {
	Prompt  string          `json:"prompt"`
	URL     string          `json:"url"`
	Actions []action.Action `json:"actions"`
	SavedAt time.Time       `json:"savedAt"`
}

func (s *RedisStore) key(prompt, url string) string {
	sum := sha256.Sum256([]byte(prompt + "|" + url))
	return s.prefix + "solution:" + hex.EncodeToString(sum[:])
}

// Find returns the stored actions, or ErrNotFound
func (s *RedisStore) Find(ctx context.Context, prompt, url string) ([]action.Action, error) {
	data, err := s.client.Get(ctx, s.key(prompt, url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store get failed: %w", err)
	}

	var raw struct {
		Actions []map[string]any `json:"actions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("corrupt stored task: %w", err)
	}
	actions, err := DecodeActions(raw.Actions)
	if err != nil {
		return nil, fmt.Errorf("corrupt stored task: %w", err)
	}
	s.logger.Debug("found stored task", zap.Int("actions", len(actions)))
	return actions, nil
}

// Save stores the actions for prompt and url
func (s *RedisStore) Save(ctx context.Context, prompt, url string, actions []action.Action) error {
	data, err := json.Marshal(storedTask{Prompt: prompt, URL: url, Actions: actions, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(prompt, url), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store set failed: %w", err)
	}
	s.logger.Debug("stored task", zap.Int("actions", len(actions)))
	return nil
}

// Close releases the Redis connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
