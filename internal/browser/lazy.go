package browser

import (
	"context"
	"errors"
	"sync"

	"github.com/v0xg/webagent/internal/pagemap"
	"go.uber.org/zap"
)

// LazySession launches its browser on first use. A failed launch is
// retried on the next call.
type LazySession struct {
	ctx    context.Context
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	session *Session
	closed  bool
}

// NewLazySession ties the eventual browser process to ctx
func NewLazySession(ctx context.Context, opts Options, logger *zap.Logger) *LazySession {
	return &LazySession{ctx: ctx, opts: opts, logger: logger}
}

func (l *LazySession) get() (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errors.New("session closed")
	}
	if l.session == nil {
		s, err := Launch(l.ctx, l.opts, l.logger)
		if err != nil {
			return nil, err
		}
		l.session = s
	}
	return l.session, nil
}

// MapPage implements the crawler half of the LLM producer
func (l *LazySession) MapPage(ctx context.Context, url string) (*pagemap.PageMap, error) {
	s, err := l.get()
	if err != nil {
		return nil, err
	}
	return s.MapPage(ctx, url)
}

// Close shuts the browser down if it was ever started
func (l *LazySession) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.session == nil {
		return nil
	}
	return l.session.Close()
}
