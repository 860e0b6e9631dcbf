// Package trace converts the step log of an external browsing agent into
// canonical actions.
package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Element describes the page element a step interacted with
type Element struct {
	Attributes map[string]any `json:"attributes,omitempty"`
	XPath      string         `json:"xpath,omitempty"`
}

// Attr returns the attribute as a trimmed string, or "" when absent
func (e *Element) Attr(name string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	switch v := e.Attributes[name].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Step is one entry of an agent trace: a single named operation with its
// parameters, plus the element it touched.
type Step struct {
	Op      string
	Params  map[string]any
	Element *Element
}

func isElementKey(key string) bool {
	return key == "interacted_element" || key == "interactedElement"
}

// UnmarshalJSON keeps key order so that the first non-element key names the
// operation, matching how agents emit steps.
func (s *Step) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("trace step must be an object, got %s", data)
	}

	*s = Step{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("trace step %q: %w", key, err)
		}

		if isElementKey(key) {
			if string(raw) == "null" {
				continue
			}
			var el Element
			if err := json.Unmarshal(raw, &el); err != nil {
				return fmt.Errorf("trace step %q: %w", key, err)
			}
			s.Element = &el
			continue
		}
		if s.Op != "" {
			continue
		}
		s.Op = key
		var params map[string]any
		if err := json.Unmarshal(raw, &params); err == nil {
			s.Params = params
		}
	}
	if s.Params == nil {
		s.Params = map[string]any{}
	}
	return nil
}

// ParseSteps decodes a JSON array of trace steps
func ParseSteps(data []byte) ([]Step, error) {
	var steps []Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse trace: %w", err)
	}
	return steps, nil
}
