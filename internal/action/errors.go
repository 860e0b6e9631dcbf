package action

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTarget is returned when an action has no usable selector,
	// coordinates, URL or timer.
	ErrMissingTarget = errors.New("missing target")
	// ErrMissingField is returned by the factory for absent required fields
	ErrMissingField = errors.New("missing required field")
	// ErrUnsupportedSelectorKind is returned for selector kinds outside the closed set
	ErrUnsupportedSelectorKind = errors.New("unsupported selector kind")
	// ErrUnsupportedActionKind is returned by the registry for unknown kinds
	ErrUnsupportedActionKind = errors.New("unsupported action kind")
	// ErrFrameEvaluation marks a dropdown probe that failed inside one frame
	ErrFrameEvaluation = errors.New("frame evaluation failed")
	// ErrScrollExhausted is returned once every scroll fallback tier failed
	ErrScrollExhausted = errors.New("scroll exhausted")
	// ErrAssertionFailed is returned when asserted text is absent from the page
	ErrAssertionFailed = errors.New("assertion failed")
)

// Error carries the context of a failed construction or execution: which
// kind was involved and the rendered selector, if any.
type Error struct {
	Kind     Kind
	Selector string
	Field    string
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if msg == "" {
		msg = "action"
	}
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Selector != "" {
		msg += fmt.Sprintf(" (selector %q)", e.Selector)
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, sel *Selector, err error) *Error {
	e := &Error{Kind: kind, Err: err}
	if sel != nil {
		e.Selector, _ = sel.Locator()
	}
	return e
}
