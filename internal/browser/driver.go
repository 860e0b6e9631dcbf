package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/v0xg/webagent/internal/action"
	"go.uber.org/zap"
)

var _ action.Driver = (*Driver)(nil)

// Driver executes actions against one rod page
type Driver struct {
	page    *rod.Page
	timeout time.Duration
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewDriver wraps an existing page
func NewDriver(page *rod.Page, timeout time.Duration, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{page: page, timeout: timeout, logger: logger}
}

// Close closes the page. Later calls return the first result.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.page.Close()
	})
	return d.closeErr
}

// Page returns the underlying rod page
func (d *Driver) Page() *rod.Page {
	return d.page
}

// bound returns the page scoped to ctx, with the element timeout applied
// when timeout is positive
func (d *Driver) bound(ctx context.Context, timeout time.Duration) (*rod.Page, context.CancelFunc) {
	if timeout <= 0 {
		return d.page.Context(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return d.page.Context(ctx), cancel
}

// element waits up to the driver timeout for the first match of selector
func (d *Driver) element(ctx context.Context, selector string) (*rod.Element, error) {
	loc, err := parseLocator(selector)
	if err != nil {
		return nil, err
	}
	p, cancel := d.bound(ctx, d.timeout)
	defer cancel()

	el, err := loc.first(p)
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}
	// rebind so later calls are not cut short by the lookup deadline
	return el.Context(ctx), nil
}

func (d *Driver) Goto(ctx context.Context, url string) error {
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return p.WaitLoad()
}

func (d *Driver) Back(ctx context.Context) error {
	p := d.page.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	return p.WaitLoad()
}

func (d *Driver) Forward(ctx context.Context) error {
	p := d.page.Context(ctx)
	if err := p.NavigateForward(); err != nil {
		return fmt.Errorf("navigate forward: %w", err)
	}
	return p.WaitLoad()
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (d *Driver) DoubleClick(ctx context.Context, selector string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 2)
}

func (d *Driver) MouseClick(ctx context.Context, x, y int) error {
	p := d.page.Context(ctx)
	if err := p.Mouse.MoveTo(proto.Point{X: float64(x), Y: float64(y)}); err != nil {
		return fmt.Errorf("move mouse: %w", err)
	}
	return p.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

func (d *Driver) Fill(ctx context.Context, selector, text string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clear %s: %w", selector, err)
	}
	return el.Input(text)
}

func (d *Driver) Hover(ctx context.Context, selector string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Hover()
}

func (d *Driver) SelectOption(ctx context.Context, selector, value string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	option := fmt.Sprintf(`[value="%s"]`, strings.ReplaceAll(value, `"`, `\"`))
	return el.Select([]string{option}, true, rod.SelectorTypeCSSSector)
}

func (d *Driver) DragAndDrop(ctx context.Context, source, target string) error {
	src, err := d.element(ctx, source)
	if err != nil {
		return err
	}
	dst, err := d.element(ctx, target)
	if err != nil {
		return err
	}

	from, err := center(src)
	if err != nil {
		return fmt.Errorf("source %s: %w", source, err)
	}
	to, err := center(dst)
	if err != nil {
		return fmt.Errorf("target %s: %w", target, err)
	}

	mouse := d.page.Context(ctx).Mouse
	if err := mouse.MoveLinear(from, 10); err != nil {
		return err
	}
	if err := mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	if err := mouse.MoveLinear(to, 10); err != nil {
		return err
	}
	return mouse.Up(proto.InputMouseButtonLeft, 1)
}

func (d *Driver) Screenshot(ctx context.Context, path string) error {
	data, err := d.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Snapshot captures the viewport as an image
func (d *Driver) Snapshot(ctx context.Context) (image.Image, error) {
	data, err := d.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return png.Decode(bytes.NewReader(data))
}

// ElementCenter returns the viewport coordinates of the middle of the
// first element matching selector
func (d *Driver) ElementCenter(ctx context.Context, selector string) (int, int, error) {
	el, err := d.element(ctx, selector)
	if err != nil {
		return 0, 0, err
	}
	pt, err := center(el)
	if err != nil {
		return 0, 0, err
	}
	return int(math.Round(pt.X)), int(math.Round(pt.Y)), nil
}

func (d *Driver) PressKey(ctx context.Context, key string) error {
	chord, err := parseKeys(key)
	if err != nil {
		return err
	}
	return press(d.page.Context(ctx), chord)
}

func (d *Driver) PressOn(ctx context.Context, selector, key string) error {
	chord, err := parseKeys(key)
	if err != nil {
		return err
	}
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Focus(); err != nil {
		return fmt.Errorf("focus %s: %w", selector, err)
	}
	return press(d.page.Context(ctx), chord)
}

func (d *Driver) ScrollBy(ctx context.Context, dy int) error {
	_, err := d.page.Context(ctx).Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	return err
}

func (d *Driver) ViewportHeight(ctx context.Context) (int, error) {
	res, err := d.page.Context(ctx).Eval(`() => window.innerHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (d *Driver) ScrollToEnd(ctx context.Context) error {
	_, err := d.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (d *Driver) ScrollIntoView(ctx context.Context, selector string) (bool, error) {
	loc, err := parseLocator(selector)
	if err != nil {
		return false, err
	}
	els, err := loc.all(d.page.Context(ctx))
	if err != nil {
		return false, err
	}
	for _, el := range els {
		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		if err := el.ScrollIntoView(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Frames lists the main document and every nested iframe, depth-first in
// document order
func (d *Driver) Frames(ctx context.Context) ([]action.Frame, error) {
	var frames []action.Frame
	walkFrames(d.page.Context(ctx), d.childFrames, func(p *rod.Page) {
		frames = append(frames, &frame{index: len(frames), page: p})
	})
	return frames, nil
}

func (d *Driver) childFrames(p *rod.Page) []*rod.Page {
	iframes, err := p.Elements("iframe")
	if err != nil {
		d.logger.Warn("listing iframes failed", zap.Error(err))
		return nil
	}
	children := make([]*rod.Page, 0, len(iframes))
	for _, el := range iframes {
		fp, err := el.Frame()
		if err != nil {
			d.logger.Debug("skipping iframe", zap.Error(err))
			continue
		}
		children = append(children, fp)
	}
	return children
}

const maxFrameDepth = 16

func walkFrames[F any](root F, children func(F) []F, visit func(F)) {
	var walk func(f F, depth int)
	walk = func(f F, depth int) {
		visit(f)
		if depth >= maxFrameDepth {
			return
		}
		for _, c := range children(f) {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
}

func (d *Driver) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	loc, err := parseLocator(selector)
	if err != nil {
		return err
	}
	p, cancel := d.bound(ctx, timeout)
	defer cancel()

	el, err := loc.first(p)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return el.WaitVisible()
}

func (d *Driver) WaitForTimeout(ctx context.Context, dur time.Duration) error {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (d *Driver) Content(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

// URL returns the address of the current document
func (d *Driver) URL(ctx context.Context) (string, error) {
	res, err := d.page.Context(ctx).Eval(`() => window.location.href`)
	if err != nil {
		return "", err
	}
	return res.Value.String(), nil
}

func press(p *rod.Page, chord keyChord) error {
	kb := p.Keyboard
	for i, mod := range chord.modifiers {
		if err := kb.Press(mod); err != nil {
			releaseAll(kb, chord.modifiers[:i])
			return err
		}
	}
	err := kb.Type(chord.key)
	releaseAll(kb, chord.modifiers)
	return err
}

func releaseAll(kb *rod.Keyboard, keys []input.Key) {
	for i := len(keys) - 1; i >= 0; i-- {
		_ = kb.Release(keys[i])
	}
}

func center(el *rod.Element) (proto.Point, error) {
	shape, err := el.Shape()
	if err != nil {
		return proto.Point{}, err
	}
	box := shape.Box()
	if box == nil {
		return proto.Point{}, errors.New("element has no shape")
	}
	return proto.Point{X: box.X + box.Width/2, Y: box.Y + box.Height/2}, nil
}
