package action

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Action is one canonical unit of browser interaction. The set of
// implementations is closed; every variant is listed in the registry.
type Action interface {
	Kind() Kind
	validate() error
}

// Selectable is implemented by variants that address an element
type Selectable interface {
	Action
	Target() *Selector
}

// Click clicks an element, or raw coordinates when no selector is given
type Click struct {
	Selector *Selector `json:"selector,omitempty"`
	X        *int      `json:"x,omitempty"`
	Y        *int      `json:"y,omitempty"`
}

// DoubleClick double clicks an element
type DoubleClick struct {
	Selector *Selector `json:"selector,omitempty"`
}

// Navigate goes back, forward, or to a URL, in that order of precedence
type Navigate struct {
	URL       string `json:"url,omitempty"`
	GoBack    bool   `json:"goBack"`
	GoForward bool   `json:"goForward"`
}

// Type fills text into an element
type Type struct {
	Selector *Selector `json:"selector,omitempty"`
	Text     string    `json:"text"`
}

// Select picks an option of a select element by value
type Select struct {
	Selector *Selector `json:"selector,omitempty"`
	Value    string    `json:"value"`
}

// Hover moves the pointer over an element
type Hover struct {
	Selector *Selector `json:"selector,omitempty"`
}

// Wait waits for an element to appear, or sleeps
type Wait struct {
	Selector    *Selector `json:"selector,omitempty"`
	TimeSeconds *float64  `json:"timeSeconds,omitempty"`
}

// Scroll scrolls the page by viewport, pixels, to the end, or to text
type Scroll struct {
	Value *ScrollValue `json:"value,omitempty"`
	Up    bool         `json:"up"`
	Down  bool         `json:"down"`
}

// Submit presses Enter on an element
type Submit struct {
	Selector *Selector `json:"selector,omitempty"`
}

// Assert checks that the page source contains a text
type Assert struct {
	TextToAssert string `json:"textToAssert"`
}

// DragAndDrop drags one element onto another
type DragAndDrop struct {
	SourceSelector string `json:"sourceSelector"`
	TargetSelector string `json:"targetSelector"`
}

// Screenshot saves a screenshot of the page
type Screenshot struct {
	FilePath string `json:"filePath"`
}

// SendKeys presses a key or key combination
type SendKeys struct {
	Keys string `json:"keys"`
}

// GetDropDownOptions lists the options of a select element found in any frame
type GetDropDownOptions struct {
	Selector *Selector `json:"selector,omitempty"`
}

// SelectDropDownOption selects an option by its visible text in any frame
type SelectDropDownOption struct {
	Selector *Selector `json:"selector,omitempty"`
	Text     string    `json:"text"`
}

// Undefined is a placeholder for unrecognized steps
type Undefined struct{}

// Idle is a deliberately empty step
type Idle struct{}

func (Click) Kind() Kind                { return KindClick }
func (DoubleClick) Kind() Kind          { return KindDoubleClick }
func (Navigate) Kind() Kind             { return KindNavigate }
func (Type) Kind() Kind                 { return KindType }
func (Select) Kind() Kind               { return KindSelect }
func (Hover) Kind() Kind                { return KindHover }
func (Wait) Kind() Kind                 { return KindWait }
func (Scroll) Kind() Kind               { return KindScroll }
func (Submit) Kind() Kind               { return KindSubmit }
func (Assert) Kind() Kind               { return KindAssert }
func (DragAndDrop) Kind() Kind          { return KindDragAndDrop }
func (Screenshot) Kind() Kind           { return KindScreenshot }
func (SendKeys) Kind() Kind             { return KindSendKeys }
func (GetDropDownOptions) Kind() Kind   { return KindGetDropDownOptions }
func (SelectDropDownOption) Kind() Kind { return KindSelectDropDownOption }
func (Undefined) Kind() Kind            { return KindUndefined }
func (Idle) Kind() Kind                 { return KindIdle }

func (a Click) Target() *Selector                { return a.Selector }
func (a DoubleClick) Target() *Selector          { return a.Selector }
func (a Type) Target() *Selector                 { return a.Selector }
func (a Select) Target() *Selector               { return a.Selector }
func (a Hover) Target() *Selector                { return a.Selector }
func (a Wait) Target() *Selector                 { return a.Selector }
func (a Submit) Target() *Selector               { return a.Selector }
func (a GetDropDownOptions) Target() *Selector   { return a.Selector }
func (a SelectDropDownOption) Target() *Selector { return a.Selector }

func (a Click) validate() error {
	if a.Selector == nil && (a.X == nil || a.Y == nil) {
		return fmt.Errorf("%w: either a selector or both x and y are required", ErrMissingTarget)
	}
	return nil
}

func (a Wait) validate() error {
	if a.Selector == nil && a.TimeSeconds == nil {
		return fmt.Errorf("%w: either a selector or timeSeconds is required", ErrMissingTarget)
	}
	return nil
}

func (DoubleClick) validate() error          { return nil }
func (Navigate) validate() error             { return nil }
func (Type) validate() error                 { return nil }
func (Select) validate() error               { return nil }
func (Hover) validate() error                { return nil }
func (Scroll) validate() error               { return nil }
func (Submit) validate() error               { return nil }
func (Assert) validate() error               { return nil }
func (DragAndDrop) validate() error          { return nil }
func (Screenshot) validate() error           { return nil }
func (SendKeys) validate() error             { return nil }
func (GetDropDownOptions) validate() error   { return nil }
func (SelectDropDownOption) validate() error { return nil }
func (Undefined) validate() error            { return nil }
func (Idle) validate() error                 { return nil }

// Tagged JSON encoding: each variant is written with its "type" field.

func (a Click) MarshalJSON() ([]byte, error) {
	type plain Click
	return marshalTagged(a.Kind(), plain(a))
}

func (a DoubleClick) MarshalJSON() ([]byte, error) {
	type plain DoubleClick
	return marshalTagged(a.Kind(), plain(a))
}

func (a Navigate) MarshalJSON() ([]byte, error) {
	type plain Navigate
	return marshalTagged(a.Kind(), plain(a))
}

func (a Type) MarshalJSON() ([]byte, error) {
	type plain Type
	return marshalTagged(a.Kind(), plain(a))
}

func (a Select) MarshalJSON() ([]byte, error) {
	type plain Select
	return marshalTagged(a.Kind(), plain(a))
}

func (a Hover) MarshalJSON() ([]byte, error) {
	type plain Hover
	return marshalTagged(a.Kind(), plain(a))
}

func (a Wait) MarshalJSON() ([]byte, error) {
	type plain Wait
	return marshalTagged(a.Kind(), plain(a))
}

func (a Scroll) MarshalJSON() ([]byte, error) {
	type plain Scroll
	return marshalTagged(a.Kind(), plain(a))
}

func (a Submit) MarshalJSON() ([]byte, error) {
	type plain Submit
	return marshalTagged(a.Kind(), plain(a))
}

func (a Assert) MarshalJSON() ([]byte, error) {
	type plain Assert
	return marshalTagged(a.Kind(), plain(a))
}

func (a DragAndDrop) MarshalJSON() ([]byte, error) {
	type plain DragAndDrop
	return marshalTagged(a.Kind(), plain(a))
}

func (a Screenshot) MarshalJSON() ([]byte, error) {
	type plain Screenshot
	return marshalTagged(a.Kind(), plain(a))
}

func (a SendKeys) MarshalJSON() ([]byte, error) {
	type plain SendKeys
	return marshalTagged(a.Kind(), plain(a))
}

func (a GetDropDownOptions) MarshalJSON() ([]byte, error) {
	type plain GetDropDownOptions
	return marshalTagged(a.Kind(), plain(a))
}

func (a SelectDropDownOption) MarshalJSON() ([]byte, error) {
	type plain SelectDropDownOption
	return marshalTagged(a.Kind(), plain(a))
}

func (a Undefined) MarshalJSON() ([]byte, error) { return marshalTagged(a.Kind(), struct{}{}) }
func (a Idle) MarshalJSON() ([]byte, error)      { return marshalTagged(a.Kind(), struct{}{}) }

func marshalTagged(kind Kind, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(string(kind))
	fields["type"] = tag
	return json.Marshal(fields)
}

// ScrollValue is the optional scroll amount: a pixel count or a text
type ScrollValue struct {
	pixels int
	text   string
	isText bool
}

// ScrollPixels returns a pixel scroll value
func ScrollPixels(n int) *ScrollValue { return &ScrollValue{pixels: n} }

// ScrollText returns a text scroll value
func ScrollText(s string) *ScrollValue { return &ScrollValue{text: s, isText: true} }

// Pixels returns the pixel amount and whether the value is numeric
func (v ScrollValue) Pixels() (int, bool) { return v.pixels, !v.isText }

// Text returns the text and whether the value is textual
func (v ScrollValue) Text() (string, bool) { return v.text, v.isText }

// IsEnd reports whether the value asks for the end of the document
func (v ScrollValue) IsEnd() bool {
	if !v.isText {
		return false
	}
	switch strings.ToLower(v.text) {
	case "max", "bottom":
		return true
	}
	return false
}

func (v ScrollValue) MarshalJSON() ([]byte, error) {
	if v.isText {
		return json.Marshal(v.text)
	}
	return json.Marshal(v.pixels)
}

func (v *ScrollValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = ScrollValue{text: s, isText: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("scroll value must be a number or a string: %s", data)
	}
	*v = ScrollValue{pixels: int(math.Round(f))}
	return nil
}

func (v ScrollValue) String() string {
	if v.isText {
		return v.text
	}
	return fmt.Sprintf("%dpx", v.pixels)
}
