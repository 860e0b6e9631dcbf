package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/v0xg/webagent/internal/action"
)

// MessageContext is what the agent knows about the browser environment
type MessageContext struct {
	URL          string         `json:"url"`
	IsWebReal    bool           `json:"is_web_real"`
	ScreenWidth  int            `json:"screen_width,omitempty"`
	ScreenHeight int            `json:"screen_height,omitempty"`
	RelevantData map[string]any `json:"relevant_data,omitempty"`
}

const systemPrompt = `You are a browser automation planner. Your task is to convert a task description into the precise sequence of one-step actions a Web Agent performs to complete it.

You will receive:
1. A page map containing the URL, title, and available interactive elements (buttons, inputs, links, selects, etc.) with their id, name, class, text and xpath
2. The browser context (start URL, screen size)
3. The task prompt

Output a JSON array of action objects. Each action has a "type" field, one of:
- "NavigateAction": {"url": "..."} or {"goBack": true} or {"goForward": true}. The first action must navigate to the task URL.
- "ClickAction": {"selector": ...} or {"x": 10, "y": 20}
- "DoubleClickAction": {"selector": ...}
- "TypeAction": {"selector": ..., "text": "..."} (replaces the field contents)
- "SelectAction": {"selector": ..., "value": "..."} (option value of a select)
- "HoverAction": {"selector": ...}
- "WaitAction": {"timeSeconds": 1.5} or {"selector": ...}
- "ScrollAction": {"down": true, "value": 400} or {"up": true} or {"down": true, "value": "text to scroll to"}
- "SubmitAction": {"selector": ...} (the submit button of the form)
- "AssertAction": {"textToAssert": "..."}
- "DragAndDropAction": {"sourceSelector": "css", "targetSelector": "css"}
- "ScreenshotAction": {"filePath": "..."}
- "SendKeysIWAAction": {"keys": "Enter"} (key or combination such as "Control+a")
- "GetDropDownOptions": {"selector": ...}
- "SelectDropDownOption": {"selector": ..., "text": "visible option text"}

A selector is an object:
- {"kind": "AttributeValue", "attribute": "id", "value": "submit-btn"}. attribute is one of id, class, name, placeholder, aria-label, href, or any other attribute
- {"kind": "TagContains", "value": "Sign in", "caseSensitive": false} to match an element by its visible text
- {"kind": "XPath", "value": "//form/button[1]"}

Guidelines:
- Use only elements present in the page map; prefer id, then name, then xpath
- Keep the sequence minimal but complete
- Add a WaitAction only after actions that trigger navigation or animation

Example output:
[
  {"type": "NavigateAction", "url": "https://shop.example/"},
  {"type": "TypeAction", "selector": {"kind": "AttributeValue", "attribute": "name", "value": "q"}, "text": "boots"},
  {"type": "ClickAction", "selector": {"kind": "AttributeValue", "attribute": "id", "value": "search-btn"}}
]

Respond ONLY with the raw JSON array. The JSON must start with '[' and end with ']', with no markdown or explanation.`

func buildUserPrompt(pageMapJSON string, userPrompt string, mc MessageContext) string {
	contextJSON, err := json.Marshal(mc)
	if err != nil {
		contextJSON = []byte("{}")
	}
	return "Page map:\n" + pageMapJSON +
		"\n\nBrowser context:\n" + string(contextJSON) +
		"\n\nTask prompt: " + userPrompt
}

// parseActionRecords extracts the action array from a response that may
// be fenced or surrounded by text
func parseActionRecords(response string) ([]map[string]any, error) {
	text := stripFence(response)
	if strings.HasPrefix(text, "[") || strings.HasPrefix(text, "{") {
		if records, err := action.DecodeRecords([]byte(text)); err == nil {
			return records, nil
		}
	}

	start := strings.Index(text, "[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	end := matchingBracket(text, start)
	if end == -1 {
		// truncated output; let the repair pass close it
		return action.DecodeRecords([]byte(text[start:]))
	}
	return action.DecodeRecords([]byte(text[start:end]))
}

// matchingBracket returns the index just past the bracket closing the one
// at start, or -1. Brackets inside strings are ignored.
func matchingBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
