// Package browser drives a Chromium page through go-rod and exposes it as
// an action.Driver.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/v0xg/webagent/internal/pagemap"
	"go.uber.org/zap"
)

// Options configures the browser session
type Options struct {
	Width         int
	Height        int
	Headless      bool
	Bin           string        // browser executable; looked up when empty
	ControlURL    string        // connect to a running browser instead of launching one
	ProfileDir    string        // Chrome/Chromium profile directory for authenticated sessions
	ActionTimeout time.Duration // upper bound for locating an element
}

func (o *Options) setDefaults() {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 720
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 10 * time.Second
	}
}

// Session owns a browser process and the pages opened in it
type Session struct {
	opts    Options
	browser *rod.Browser
	logger  *zap.Logger

	mu      sync.Mutex
	closers []func() error
	closed  bool
}

// Launch starts (or connects to) a browser
func Launch(ctx context.Context, opts Options, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.setDefaults()
	s := &Session{opts: opts, logger: logger.Named("browser")}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		} else if path, ok := launcher.LookPath(); ok {
			l = l.Bin(path)
		}
		if opts.ProfileDir != "" {
			l = l.UserDataDir(opts.ProfileDir)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		s.push(func() error {
			l.Kill()
			l.Cleanup()
			return nil
		})
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	s.browser = browser
	s.push(browser.Close)

	s.logger.Info("browser ready",
		zap.Bool("headless", opts.Headless),
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
	)
	return s, nil
}

// NewDriver opens a blank page sized to the session viewport. The page is
// closed with the session.
func (s *Session) NewDriver(ctx context.Context) (*Driver, error) {
	d, err := s.openPage(ctx)
	if err != nil {
		return nil, err
	}
	s.push(d.Close)
	return d, nil
}

func (s *Session) openPage(ctx context.Context) (*Driver, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("session closed")
	}

	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	// detach from the creation context so the page outlives it
	page = page.Context(context.Background())

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.opts.Width,
		Height:            s.opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	return NewDriver(page, s.opts.ActionTimeout, s.logger), nil
}

// MapPage opens url in a fresh page, extracts its PageMap and closes the page
func (s *Session) MapPage(ctx context.Context, url string) (*pagemap.PageMap, error) {
	d, err := s.openPage(ctx)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	if err := d.Goto(ctx, url); err != nil {
		return nil, err
	}
	return d.PageMap(ctx)
}

// Close releases every page and the browser in reverse order of creation.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) push(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}
