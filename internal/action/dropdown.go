package action

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const selectOptionTimeout = time.Second

// dropdownHint closes every option listing handed back to a producer
const dropdownHint = "Use the exact string in SelectDropDownOption"

func executeGetDropDownOptions(ctx context.Context, d Driver, a GetDropDownOptions) error {
	loc, err := requireSelector(a.Kind(), a.Selector)
	if err != nil {
		return err
	}
	logger := loggerFrom(ctx)

	frame, probe, err := findSelect(ctx, d, loc)
	if err != nil {
		return newError(a.Kind(), a.Selector, err)
	}
	if probe == nil || len(probe.Options) == 0 {
		logger.Info("no options found in any frame for dropdown")
		observe(ctx, a.Kind(), "")
		return nil
	}
	listing := FormatOptions(probe.Options)
	logger.Info("dropdown options", zap.Int("frame", frame.Index()), zap.String("options", listing))
	observe(ctx, a.Kind(), listing)
	return nil
}

func executeSelectDropDownOption(ctx context.Context, d Driver, a SelectDropDownOption) error {
	loc, err := requireSelector(a.Kind(), a.Selector)
	if err != nil {
		return err
	}
	logger := loggerFrom(ctx)

	frames, err := d.Frames(ctx)
	if err != nil {
		return newError(a.Kind(), a.Selector, err)
	}
	for _, frame := range frames {
		probe, err := frame.ProbeSelect(ctx, loc)
		if err != nil {
			logger.Debug("frame attempt failed", zap.Int("frame", frame.Index()),
				zap.Error(fmt.Errorf("%w: %w", ErrFrameEvaluation, err)))
			continue
		}
		if probe == nil {
			continue
		}
		if !strings.EqualFold(probe.Tag, "select") {
			logger.Debug("element is not a select", zap.Int("frame", frame.Index()), zap.String("tag", probe.Tag))
			continue
		}
		if err := frame.SelectOptionByLabel(ctx, loc, a.Text, selectOptionTimeout); err != nil {
			logger.Debug("frame attempt failed", zap.Int("frame", frame.Index()), zap.Error(err))
			continue
		}
		logger.Info("selected dropdown option", zap.String("text", a.Text), zap.Int("frame", frame.Index()))
		return nil
	}
	// A miss is not an error: the page may simply not contain the dropdown.
	logger.Info("could not select option in any frame", zap.String("text", a.Text))
	return nil
}

// findSelect walks frames in order and returns the first one where selector
// matches. Probe errors are logged and the walk continues.
func findSelect(ctx context.Context, d Driver, selector string) (Frame, *SelectProbe, error) {
	logger := loggerFrom(ctx)
	frames, err := d.Frames(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, frame := range frames {
		probe, err := frame.ProbeSelect(ctx, selector)
		if err != nil {
			logger.Debug("frame evaluate error", zap.Int("frame", frame.Index()),
				zap.Error(fmt.Errorf("%w: %w", ErrFrameEvaluation, err)))
			continue
		}
		if probe == nil {
			continue
		}
		logger.Debug("found dropdown", zap.Int("frame", frame.Index()))
		return frame, probe, nil
	}
	return nil, nil, nil
}

// FormatOptions renders options as "<index>: text=<json text>" lines
func FormatOptions(options []SelectOption) string {
	lines := make([]string, 0, len(options)+1)
	for _, opt := range options {
		text, _ := json.Marshal(opt.Text)
		lines = append(lines, fmt.Sprintf("%d: text=%s", opt.Index, text))
	}
	lines = append(lines, dropdownHint)
	return strings.Join(lines, "\n")
}
