package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/v0xg/webagent/internal/action"
)

const probeScript = `() => {
	const el = this;
	const probe = { tag: el.tagName.toLowerCase(), id: el.id || '', name: el.getAttribute('name') || '' };
	if (el.options) {
		probe.options = Array.from(el.options).map((opt, i) => ({ index: i, text: opt.text, value: opt.value }));
	}
	return probe;
}`

// frame is one document of a page: the main frame or an iframe
type frame struct {
	index int
	page  *rod.Page
}

func (f *frame) Index() int {
	return f.index
}

func (f *frame) ProbeSelect(ctx context.Context, selector string) (*action.SelectProbe, error) {
	loc, err := parseLocator(selector)
	if err != nil {
		return nil, err
	}

	el, err := loc.first(f.page.Context(ctx).Sleeper(rod.NotFoundSleeper))
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	res, err := el.Eval(probeScript)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", selector, err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var probe action.SelectProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode probe: %w", err)
	}
	return &probe, nil
}

func (f *frame) SelectOptionByLabel(ctx context.Context, selector, label string, timeout time.Duration) error {
	loc, err := parseLocator(selector)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := loc.first(f.page.Context(ctx))
	if err != nil {
		return err
	}
	return el.Select([]string{label}, true, rod.SelectorTypeText)
}
