package action

import (
	"context"
	"time"
)

// Driver is the browser capability set actions execute against. Selector
// arguments use the locator syntax produced by Selector.Locator.
type Driver interface {
	Goto(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error

	Click(ctx context.Context, selector string) error
	DoubleClick(ctx context.Context, selector string) error
	MouseClick(ctx context.Context, x, y int) error
	Fill(ctx context.Context, selector, text string) error
	Hover(ctx context.Context, selector string) error
	SelectOption(ctx context.Context, selector, value string) error
	DragAndDrop(ctx context.Context, source, target string) error
	Screenshot(ctx context.Context, path string) error

	// PressKey presses a key or a "+"-joined combination on the page
	PressKey(ctx context.Context, key string) error
	// PressOn focuses the element and presses key on it
	PressOn(ctx context.Context, selector, key string) error

	ScrollBy(ctx context.Context, dy int) error
	ViewportHeight(ctx context.Context) (int, error)
	ScrollToEnd(ctx context.Context) error
	// ScrollIntoView scrolls the first match into view. It reports false
	// when nothing visible matches.
	ScrollIntoView(ctx context.Context, selector string) (bool, error)

	// Frames returns the main frame followed by nested frames in document order
	Frames(ctx context.Context) ([]Frame, error)

	// WaitForSelector waits for the element; a zero timeout waits without bound
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	WaitForTimeout(ctx context.Context, d time.Duration) error
	Content(ctx context.Context) (string, error)
}

// Frame is one document of the page (the main frame or an iframe)
type Frame interface {
	Index() int
	// ProbeSelect locates selector inside the frame and describes the first
	// match. A nil probe means nothing matched.
	ProbeSelect(ctx context.Context, selector string) (*SelectProbe, error)
	SelectOptionByLabel(ctx context.Context, selector, label string, timeout time.Duration) error
}

// SelectProbe describes the element found by Frame.ProbeSelect
type SelectProbe struct {
	Tag     string         `json:"tag"`
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name,omitempty"`
	Options []SelectOption `json:"options,omitempty"`
}

// SelectOption is one option of a select element
type SelectOption struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Value string `json:"value"`
}
