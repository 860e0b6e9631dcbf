// Package recorder turns a replay into an animated GIF: a screenshot after
// every action with the pointer drawn where the action landed.
package recorder

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/v0xg/webagent/internal/action"
	"go.uber.org/zap"
)

// the target may be gone once the action has navigated away
const pointerTimeout = 2 * time.Second

// Camera captures the current viewport
type Camera interface {
	Snapshot(ctx context.Context) (image.Image, error)
}

// Pointer resolves where an element sits in the viewport
type Pointer interface {
	ElementCenter(ctx context.Context, selector string) (x, y int, err error)
}

// Options configures recording and encoding
type Options struct {
	FPS int
	// MaxWidth is the GIF width; frames are scaled keeping their aspect ratio
	MaxWidth uint
	// Hold is how long each captured screenshot stays on screen, in frames
	Hold int
}

// Cursor is the pointer drawn over a frame
type Cursor struct {
	X, Y  int
	Click bool
	// Visible is false until the first action positions the pointer
	Visible bool
}

// Frame is one captured screenshot and the pointer over it
type Frame struct {
	Image  image.Image
	Cursor Cursor
}

// Recorder collects frames from a Runner. Attach AfterStep to
// action.Runner.AfterStep; drivers that are not a Camera record nothing.
type Recorder struct {
	opts   Options
	logger *zap.Logger

	mu     sync.Mutex
	frames []Frame
	cursor Cursor
}

// New creates an empty Recorder
func New(opts Options, logger *zap.Logger) *Recorder {
	if opts.FPS <= 0 {
		opts.FPS = 10
	}
	if opts.MaxWidth == 0 {
		opts.MaxWidth = 800
	}
	if opts.Hold <= 0 {
		opts.Hold = max(opts.FPS/2, 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{opts: opts, logger: logger.Named("recorder")}
}

// Start captures the page before the first action
func (r *Recorder) Start(ctx context.Context, d action.Driver) {
	r.capture(ctx, d, r.current())
}

// AfterStep moves the pointer to the action's target and captures the
// result. Failed steps are captured too, so the GIF shows where the run
// stopped.
func (r *Recorder) AfterStep(ctx context.Context, d action.Driver, step action.Step) {
	next := r.current()
	next.Click = false
	if x, y, click, ok := r.target(ctx, d, step.Action); ok {
		next = Cursor{X: x, Y: y, Click: click, Visible: true}
	}
	r.capture(ctx, d, next)
}

// Frames returns the captured frames in order
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func (r *Recorder) current() Cursor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

func (r *Recorder) capture(ctx context.Context, d action.Driver, cursor Cursor) {
	cam, ok := d.(Camera)
	if !ok {
		return
	}
	img, err := cam.Snapshot(ctx)
	if err != nil {
		r.logger.Warn("frame capture failed", zap.Error(err))
		return
	}

	r.mu.Lock()
	r.frames = append(r.frames, Frame{Image: img, Cursor: cursor})
	r.cursor = cursor
	r.mu.Unlock()
}

// target locates where a pointer would have been for a
func (r *Recorder) target(ctx context.Context, d action.Driver, a action.Action) (x, y int, click, ok bool) {
	var sel *action.Selector
	switch a := a.(type) {
	case action.Click:
		if a.X != nil && a.Y != nil {
			return *a.X, *a.Y, true, true
		}
		sel, click = a.Selector, true
	case action.DoubleClick:
		sel, click = a.Selector, true
	case action.Submit:
		sel, click = a.Selector, true
	case action.Hover:
		sel = a.Selector
	case action.Type:
		sel = a.Selector
	case action.Select:
		sel = a.Selector
	}
	if sel == nil {
		return 0, 0, false, false
	}

	p, isPointer := d.(Pointer)
	if !isPointer {
		return 0, 0, false, false
	}
	loc, err := sel.Locator()
	if err != nil {
		return 0, 0, false, false
	}
	ctx, cancel := context.WithTimeout(ctx, pointerTimeout)
	defer cancel()
	x, y, err = p.ElementCenter(ctx, loc)
	if err != nil {
		r.logger.Debug("pointer target not found", zap.String("selector", loc), zap.Error(err))
		return 0, 0, false, false
	}
	return x, y, click, true
}
