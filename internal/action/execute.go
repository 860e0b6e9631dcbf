package action

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func requireSelector(kind Kind, sel *Selector) (string, error) {
	if sel == nil {
		return "", &Error{Kind: kind, Err: fmt.Errorf("%w: selector is required", ErrMissingTarget)}
	}
	loc, err := sel.Locator()
	if err != nil {
		return "", &Error{Kind: kind, Err: err}
	}
	return loc, nil
}

func executeClick(ctx context.Context, d Driver, a Click) error {
	if a.Selector != nil {
		loc, err := requireSelector(a.Kind(), a.Selector)
		if err != nil {
			return err
		}
		if err := d.Click(ctx, loc); err != nil {
			return newError(a.Kind(), a.Selector, err)
		}
		return nil
	}
	if a.X != nil && a.Y != nil {
		if err := d.MouseClick(ctx, *a.X, *a.Y); err != nil {
			return &Error{Kind: a.Kind(), Err: fmt.Errorf("click at (%d, %d): %w", *a.X, *a.Y, err)}
		}
		return nil
	}
	return &Error{Kind: a.Kind(), Err: fmt.Errorf("%w: either a selector or (x, y) must be provided", ErrMissingTarget)}
}

func executeDoubleClick(ctx context.Context, d Driver, a DoubleClick) error {
	loc, err := requireSelector(a.Kind(), a.Selector)
	if err != nil {
		return err
	}
	if err := d.DoubleClick(ctx, loc); err != nil {
		return newError(a.Kind(), a.Selector, err)
	}
	return nil
}

func executeNavigate(ctx context.Context, d Driver, a Navigate) error {
	var err error
	switch {
	case a.GoBack:
		err = d.Back(ctx)
	case a.GoForward:
		err = d.Forward(ctx)
	case a.URL == "":
		return &Error{Kind: a.Kind(), Err: fmt.Errorf("%w: url must be provided for navigation", ErrMissingTarget)}
	default:
		err = d.Goto(ctx, a.URL)
	}
	if err != nil {
		return &Error{Kind: a.Kind(), Err: err}
	}
	return nil
}

func executeType(ctx context.Context, d Driver, a Type) error {
	loc, err := requireSelector(a.Kind(), a.Selector)
	if err != nil {
		return err
	}
	if err := d.Fill(ctx, loc, a.Text); err != nil {
		return newError(a.Kind(), a.Selector, err)
	}
	return nil
}

func executeSelect(ctx context.Context, d Driver, a Select) error {
	loc, err := requireSelector(a.Kind(), a.Selector)
	if err != nil {
		return err
	}
	if err := d.SelectOption(ctx, loc, a.Value); err != nil {
		return newError(a.Kind(), a.Selector, err)
	}
	return nil
}

func executeHover(ctx context.Context, d Driver, a Hover) error {
	loc, err := requireSelector(a.Kind(), a.Selector)
	if err != nil {
		return err
	}
	if err := d.Hover(ctx, loc); err != nil {
		return newError(a.Kind(), a.Selector, err)
	}
	return nil
}

func executeWait(ctx context.Context, d Driver, a Wait) error {
	if a.Selector != nil {
		loc, err := requireSelector(a.Kind(), a.Selector)
		if err != nil {
			return err
		}
		var timeout time.Duration
		if a.TimeSeconds != nil {
			timeout = seconds(*a.TimeSeconds)
		}
		if err := d.WaitForSelector(ctx, loc, timeout); err != nil {
			return newError(a.Kind(), a.Selector, err)
		}
		return nil
	}
	if a.TimeSeconds != nil {
		if err := d.WaitForTimeout(ctx, seconds(*a.TimeSeconds)); err != nil {
			return &Error{Kind: a.Kind(), Err: err}
		}
		return nil
	}
	return &Error{Kind: a.Kind(), Err: fmt.Errorf("%w: either selector or timeSeconds must be provided", ErrMissingTarget)}
}

func executeSubmit(ctx context.Context, d Driver, a Submit) error {
	loc, err := requireSelector(a.Kind(), a.Selector)
	if err != nil {
		return err
	}
	if err := d.PressOn(ctx, loc, "Enter"); err != nil {
		return newError(a.Kind(), a.Selector, err)
	}
	return nil
}

func executeAssert(ctx context.Context, d Driver, a Assert) error {
	content, err := d.Content(ctx)
	if err != nil {
		return &Error{Kind: a.Kind(), Err: err}
	}
	if !strings.Contains(content, a.TextToAssert) {
		return &Error{Kind: a.Kind(), Err: fmt.Errorf("%w: %q not found in page source", ErrAssertionFailed, a.TextToAssert)}
	}
	return nil
}

func executeDragAndDrop(ctx context.Context, d Driver, a DragAndDrop) error {
	if err := d.DragAndDrop(ctx, a.SourceSelector, a.TargetSelector); err != nil {
		return &Error{Kind: a.Kind(), Selector: a.SourceSelector, Err: err}
	}
	return nil
}

func executeScreenshot(ctx context.Context, d Driver, a Screenshot) error {
	if err := d.Screenshot(ctx, a.FilePath); err != nil {
		return &Error{Kind: a.Kind(), Err: fmt.Errorf("screenshot to %s: %w", a.FilePath, err)}
	}
	return nil
}

func executeSendKeys(ctx context.Context, d Driver, a SendKeys) error {
	if err := d.PressKey(ctx, a.Keys); err != nil {
		return &Error{Kind: a.Kind(), Err: fmt.Errorf("press %q: %w", a.Keys, err)}
	}
	return nil
}

func executeNoop[T Action](context.Context, Driver, T) error { return nil }

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
