package action

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// stubDriver records every call as "Method(args)" and fails methods listed in fail
type stubDriver struct {
	calls    []string
	fail     map[string]error
	frames   []Frame
	content  string
	viewport int
	visible  map[string]bool
}

func newStubDriver() *stubDriver {
	return &stubDriver{fail: map[string]error{}, viewport: 600, visible: map[string]bool{}}
}

func (d *stubDriver) record(method string, args ...any) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	d.calls = append(d.calls, method+"("+strings.Join(parts, ", ")+")")
	return d.fail[method]
}

func (d *stubDriver) Goto(_ context.Context, url string) error { return d.record("Goto", url) }
func (d *stubDriver) Back(context.Context) error               { return d.record("Back") }
func (d *stubDriver) Forward(context.Context) error            { return d.record("Forward") }
func (d *stubDriver) Click(_ context.Context, sel string) error {
	return d.record("Click", sel)
}
func (d *stubDriver) DoubleClick(_ context.Context, sel string) error {
	return d.record("DoubleClick", sel)
}
func (d *stubDriver) MouseClick(_ context.Context, x, y int) error {
	return d.record("MouseClick", x, y)
}
func (d *stubDriver) Fill(_ context.Context, sel, text string) error {
	return d.record("Fill", sel, text)
}
func (d *stubDriver) Hover(_ context.Context, sel string) error { return d.record("Hover", sel) }
func (d *stubDriver) SelectOption(_ context.Context, sel, value string) error {
	return d.record("SelectOption", sel, value)
}
func (d *stubDriver) DragAndDrop(_ context.Context, src, dst string) error {
	return d.record("DragAndDrop", src, dst)
}
func (d *stubDriver) Screenshot(_ context.Context, path string) error {
	return d.record("Screenshot", path)
}
func (d *stubDriver) PressKey(_ context.Context, key string) error { return d.record("PressKey", key) }
func (d *stubDriver) PressOn(_ context.Context, sel, key string) error {
	return d.record("PressOn", sel, key)
}
func (d *stubDriver) ScrollBy(_ context.Context, dy int) error { return d.record("ScrollBy", dy) }
func (d *stubDriver) ViewportHeight(context.Context) (int, error) {
	return d.viewport, d.record("ViewportHeight")
}
func (d *stubDriver) ScrollToEnd(context.Context) error { return d.record("ScrollToEnd") }
func (d *stubDriver) ScrollIntoView(_ context.Context, sel string) (bool, error) {
	err := d.record("ScrollIntoView", sel)
	return d.visible[sel], err
}
func (d *stubDriver) Frames(context.Context) ([]Frame, error) {
	return d.frames, d.record("Frames")
}
func (d *stubDriver) WaitForSelector(_ context.Context, sel string, timeout time.Duration) error {
	return d.record("WaitForSelector", sel, timeout)
}
func (d *stubDriver) WaitForTimeout(_ context.Context, dur time.Duration) error {
	return d.record("WaitForTimeout", dur)
}
func (d *stubDriver) Content(context.Context) (string, error) {
	return d.content, d.record("Content")
}

// stubFrame returns a fixed probe result and counts calls
type stubFrame struct {
	index     int
	probe     *SelectProbe
	probeErr  error
	selectErr error
	probed    int
	selected  []string
}

func (f *stubFrame) Index() int { return f.index }

func (f *stubFrame) ProbeSelect(context.Context, string) (*SelectProbe, error) {
	f.probed++
	return f.probe, f.probeErr
}

func (f *stubFrame) SelectOptionByLabel(_ context.Context, _ string, label string, _ time.Duration) error {
	f.selected = append(f.selected, label)
	return f.selectErr
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
