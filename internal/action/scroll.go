package action

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// scrollSettle is the pause after scrolling text into view
const scrollSettle = 500 * time.Millisecond

func executeScroll(ctx context.Context, d Driver, a Scroll) error {
	logger := loggerFrom(ctx)

	err := a.scroll(ctx, d)
	if err == nil {
		return nil
	}
	key := "PageUp"
	if a.Down {
		key = "PageDown"
	}
	logger.Debug("scroll failed, falling back to keyboard", zap.String("key", key), zap.Error(err))
	if kbErr := d.PressKey(ctx, key); kbErr != nil {
		logger.Debug("keyboard scroll also failed", zap.Error(kbErr))
		return &Error{Kind: a.Kind(), Err: fmt.Errorf("%w: %w (keyboard fallback: %v)", ErrScrollExhausted, err, kbErr)}
	}
	return nil
}

func (a Scroll) direction() int {
	switch {
	case a.Up:
		return -1
	case a.Down:
		return 1
	}
	return 0
}

func (a Scroll) scroll(ctx context.Context, d Driver) error {
	switch {
	case a.Value == nil:
		return a.scrollViewport(ctx, d)
	case a.Value.IsEnd():
		return d.ScrollToEnd(ctx)
	}
	if text, ok := a.Value.Text(); ok {
		return scrollToText(ctx, d, text)
	}
	px, _ := a.Value.Pixels()
	return a.scrollPixels(ctx, d, px)
}

func (a Scroll) scrollViewport(ctx context.Context, d Driver) error {
	dir := a.direction()
	if dir == 0 {
		return nil
	}
	h, err := d.ViewportHeight(ctx)
	if err != nil {
		return err
	}
	return d.ScrollBy(ctx, dir*h)
}

// scrollPixels scrolls by px and retries once with one viewport height
func (a Scroll) scrollPixels(ctx context.Context, d Driver, px int) error {
	dir := a.direction()
	if dir == 0 {
		return nil
	}
	err := d.ScrollBy(ctx, dir*px)
	if err == nil {
		return nil
	}
	loggerFrom(ctx).Debug("scroll by value failed, retrying with viewport height",
		zap.Int("pixels", px), zap.Error(err))
	return a.scrollViewport(ctx, d)
}

// textLocators lists the strategies tried to bring text into view, in order:
// substring text match, exact text match, XPath contains().
func textLocators(text string) []string {
	return []string{
		"text=" + text,
		`text="` + escapeQuote(text, '"') + `"`,
		"xpath=//*[contains(text(), " + XPathLiteral(text) + ")]",
	}
}

func scrollToText(ctx context.Context, d Driver, text string) error {
	logger := loggerFrom(ctx)
	for _, loc := range textLocators(text) {
		found, err := d.ScrollIntoView(ctx, loc)
		if err != nil {
			logger.Debug("scroll to text strategy failed", zap.String("locator", loc), zap.Error(err))
			continue
		}
		if found {
			return d.WaitForTimeout(ctx, scrollSettle)
		}
	}
	return fmt.Errorf("could not scroll to text: %q", text)
}
