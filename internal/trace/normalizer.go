package trace

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/v0xg/webagent/internal/action"
	"go.uber.org/zap"
)

// mapFunc builds a raw action record from a step and its inferred selector
type mapFunc func(step Step, selector map[string]any) map[string]any

// operations is the fixed vocabulary of agent operations. Operations mapped
// to nil are recognized but produce no action.
var operations = map[string]mapFunc{
	"go_to_url": func(s Step, _ map[string]any) map[string]any {
		return record(action.KindNavigate, "url", stringParam(s.Params, "url"))
	},
	"go_back": func(Step, map[string]any) map[string]any {
		return record(action.KindNavigate, "goBack", true)
	},
	"wait": func(s Step, _ map[string]any) map[string]any {
		seconds, _ := floatParam(s.Params, "seconds")
		return record(action.KindWait, "timeSeconds", seconds)
	},
	"click_element": func(_ Step, sel map[string]any) map[string]any {
		return record(action.KindClick, "selector", sel)
	},
	"input_text": func(s Step, sel map[string]any) map[string]any {
		r := record(action.KindType, "selector", sel)
		if text := stringParam(s.Params, "text"); text != "" {
			r["text"] = text
		}
		return r
	},
	"scroll_down": func(s Step, _ map[string]any) map[string]any {
		return scrollRecord(s, false, true)
	},
	"scroll_up": func(s Step, _ map[string]any) map[string]any {
		return scrollRecord(s, true, false)
	},
	"scroll_to_text": func(s Step, _ map[string]any) map[string]any {
		r := record(action.KindScroll, "up", false, "down", false)
		if text := stringParam(s.Params, "text"); text != "" {
			r["value"] = text
		}
		return r
	},
	"send_keys": func(s Step, _ map[string]any) map[string]any {
		keys, ok := s.Params["keys"].(string)
		if !ok {
			return record(action.KindSendKeys)
		}
		return record(action.KindSendKeys, "keys", keys)
	},
	"get_dropdown_options": func(_ Step, sel map[string]any) map[string]any {
		return record(action.KindGetDropDownOptions, "selector", sel)
	},
	"select_dropdown_option": func(s Step, sel map[string]any) map[string]any {
		r := record(action.KindSelectDropDownOption, "selector", sel)
		if text := stringParam(s.Params, "text"); text != "" {
			r["text"] = text
		}
		return r
	},

	"search_google":   nil,
	"save_pdf":        nil,
	"switch_tab":      nil,
	"open_tab":        nil,
	"extract_content": nil,
	"done":            nil,
}

// Normalizer converts agent steps into canonical actions
type Normalizer struct {
	factory *action.Factory
	logger  *zap.Logger
}

// NewNormalizer creates a Normalizer. A nil logger disables logging.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		factory: action.NewFactory(logger),
		logger:  logger.Named("trace"),
	}
}

// Normalize maps every step it can. Dropped operations, unknown operations
// and records the factory rejects are skipped; the trace is never aborted.
func (n *Normalizer) Normalize(steps []Step) []action.Action {
	actions := make([]action.Action, 0, len(steps))
	for i, step := range steps {
		fn, known := operations[step.Op]
		if !known {
			n.logger.Debug("skipping unknown operation", zap.Int("step", i), zap.String("op", step.Op))
			continue
		}
		if fn == nil {
			n.logger.Debug("dropping operation", zap.Int("step", i), zap.String("op", step.Op))
			continue
		}

		raw := fn(step, InferSelector(step.Element))
		a, err := n.factory.Create(raw)
		if err != nil {
			n.logger.Warn("skipping step", zap.Int("step", i), zap.String("op", step.Op), zap.Error(err))
			continue
		}
		actions = append(actions, a)
	}
	n.logger.Debug("trace normalized", zap.Int("steps", len(steps)), zap.Int("actions", len(actions)))
	return actions
}

// NormalizeJSON parses a JSON trace and normalizes it
func (n *Normalizer) NormalizeJSON(data []byte) ([]action.Action, error) {
	steps, err := ParseSteps(data)
	if err != nil {
		return nil, err
	}
	return n.Normalize(steps), nil
}

// InferSelector picks a selector from the element descriptor in priority
// order: id, name, xpath, class. It returns nil when none apply.
func InferSelector(el *Element) map[string]any {
	if el == nil {
		return nil
	}
	attr := func(name, value string) map[string]any {
		return map[string]any{"kind": string(action.AttributeValue), "attribute": name, "value": value}
	}
	switch {
	case el.Attr("id") != "":
		return attr("id", el.Attr("id"))
	case el.Attr("name") != "":
		return attr("name", el.Attr("name"))
	case strings.TrimSpace(el.XPath) != "":
		return map[string]any{"kind": string(action.XPath), "value": strings.TrimSpace(el.XPath)}
	case el.Attr("class") != "":
		return attr("class", el.Attr("class"))
	}
	return nil
}

func record(kind action.Kind, kv ...any) map[string]any {
	r := map[string]any{"type": string(kind)}
	for i := 0; i+1 < len(kv); i += 2 {
		key := kv[i].(string)
		if m, ok := kv[i+1].(map[string]any); ok && m == nil {
			continue
		}
		r[key] = kv[i+1]
	}
	return r
}

func scrollRecord(s Step, up, down bool) map[string]any {
	r := record(action.KindScroll, "up", up, "down", down)
	if amount, ok := floatParam(s.Params, "amount"); ok && amount != 0 {
		r["value"] = int(math.Round(amount))
	}
	return r
}

func stringParam(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
