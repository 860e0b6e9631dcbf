package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webagent/internal/action"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNormalizeClickWithID(t *testing.T) {
	n := NewNormalizer(nil)
	actions, err := n.NormalizeJSON([]byte(`[{"click_element": {}, "interacted_element": {"attributes": {"id":"submit-btn"}}}]`))
	require.NoError(t, err)
	require.Len(t, actions, 1)

	click, ok := actions[0].(action.Click)
	require.True(t, ok, "got %T", actions[0])
	require.NotNil(t, click.Selector)
	assert.Equal(t, action.AttributeValue, click.Selector.Kind)
	assert.Equal(t, "id", click.Selector.Attribute)
	assert.Equal(t, "submit-btn", click.Selector.Value)
}

func TestInferSelectorPriority(t *testing.T) {
	tests := []struct {
		name string
		el   *Element
		want map[string]any
	}{
		{"nil element", nil, nil},
		{"empty", &Element{}, nil},
		{
			"id beats everything",
			&Element{Attributes: map[string]any{"id": "a", "name": "b", "class": "c"}, XPath: "//x"},
			map[string]any{"kind": "AttributeValue", "attribute": "id", "value": "a"},
		},
		{
			"blank id falls through to name",
			&Element{Attributes: map[string]any{"id": " ", "name": "b", "class": "c"}, XPath: "//x"},
			map[string]any{"kind": "AttributeValue", "attribute": "name", "value": "b"},
		},
		{
			"xpath before class",
			&Element{Attributes: map[string]any{"class": "c"}, XPath: "html/body/div[2]"},
			map[string]any{"kind": "XPath", "value": "html/body/div[2]"},
		},
		{
			"class last",
			&Element{Attributes: map[string]any{"class": "btn primary"}},
			map[string]any{"kind": "AttributeValue", "attribute": "class", "value": "btn primary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferSelector(tt.el))
		})
	}
}

func TestNormalizeVocabulary(t *testing.T) {
	trace := `[
		{"go_to_url": {"url": "https://shop.test"}, "interacted_element": null},
		{"search_google": {"query": "shoes"}, "interacted_element": null},
		{"input_text": {"index": 3, "text": "boots"}, "interacted_element": {"attributes": {"name": "q"}}},
		{"wait": {}, "interacted_element": null},
		{"scroll_down": {"amount": 400}, "interacted_element": null},
		{"scroll_up": {}, "interacted_element": null},
		{"scroll_to_text": {"text": "Reviews"}, "interacted_element": null},
		{"send_keys": {"keys": "Enter"}, "interacted_element": null},
		{"get_dropdown_options": {"index": 7}, "interacted_element": {"xpath": "html/body/select"}},
		{"select_dropdown_option": {"index": 7, "text": "Large"}, "interacted_element": {"xpath": "html/body/select"}},
		{"open_tab": {"url": "https://other.test"}, "interacted_element": null},
		{"go_back": {}, "interacted_element": null},
		{"done": {"text": "finished"}, "interacted_element": null}
	]`

	actions, err := NewNormalizer(nil).NormalizeJSON([]byte(trace))
	require.NoError(t, err)

	sel := action.ByXPath("html/body/select")
	want := []action.Action{
		action.Navigate{URL: "https://shop.test"},
		action.Type{Selector: action.ByAttribute("name", "q"), Text: "boots"},
		action.Wait{TimeSeconds: floatPtr(0)},
		action.Scroll{Down: true, Value: action.ScrollPixels(400)},
		action.Scroll{Up: true},
		action.Scroll{Value: action.ScrollText("Reviews")},
		action.SendKeys{Keys: "Enter"},
		action.GetDropDownOptions{Selector: sel},
		action.SelectDropDownOption{Selector: sel, Text: "Large"},
		action.Navigate{GoBack: true},
	}
	assert.Equal(t, want, actions)
}

func TestNormalizeSkipsRejectedSteps(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := NewNormalizer(zap.New(core))

	actions, err := n.NormalizeJSON([]byte(`[
		{"click_element": {"index": 1}, "interacted_element": null},
		{"input_text": {"text": "x"}, "interacted_element": {"attributes": {}}},
		{"teleport": {}},
		{"wait": {"seconds": 2}}
	]`))
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, action.Wait{TimeSeconds: floatPtr(2)}, actions[0])
	assert.Equal(t, 2, logs.FilterMessage("skipping step").Len())
}

func TestStepKeyOrder(t *testing.T) {
	var s Step
	require.NoError(t, s.UnmarshalJSON([]byte(`{"interactedElement": {"xpath": "//a"}, "click_element": {"index": 2}, "extra": {}}`)))
	assert.Equal(t, "click_element", s.Op)
	assert.Equal(t, float64(2), s.Params["index"])
	require.NotNil(t, s.Element)
	assert.Equal(t, "//a", s.Element.XPath)

	assert.Error(t, s.UnmarshalJSON([]byte(`[1]`)))
}

func TestParseStepsRejectsNonArray(t *testing.T) {
	_, err := ParseSteps([]byte(`{"click_element": {}}`))
	assert.Error(t, err)
}

func floatPtr(v float64) *float64 { return &v }
