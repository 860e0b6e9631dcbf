package action

import "strings"

// Kind is the wire discriminator of an action variant
type Kind string

const (
	KindClick                Kind = "ClickAction"
	KindDoubleClick          Kind = "DoubleClickAction"
	KindNavigate             Kind = "NavigateAction"
	KindType                 Kind = "TypeAction"
	KindSelect               Kind = "SelectAction"
	KindHover                Kind = "HoverAction"
	KindWait                 Kind = "WaitAction"
	KindScroll               Kind = "ScrollAction"
	KindSubmit               Kind = "SubmitAction"
	KindAssert               Kind = "AssertAction"
	KindDragAndDrop          Kind = "DragAndDropAction"
	KindScreenshot           Kind = "ScreenshotAction"
	KindSendKeys             Kind = "SendKeysIWAAction"
	KindGetDropDownOptions   Kind = "GetDropDownOptions"
	KindSelectDropDownOption Kind = "SelectDropDownOption"
	KindUndefined            Kind = "UndefinedAction"
	KindIdle                 Kind = "IdleAction"
)

const kindSuffix = "Action"

// Key returns the registry key for a kind string: lower-cased with any
// trailing "Action" suffix removed, so "ClickAction", "Click" and "click"
// all map to "click".
func Key(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	return strings.TrimSuffix(k, strings.ToLower(kindSuffix))
}

// Key returns the registry key of k
func (k Kind) Key() string { return Key(string(k)) }

func (k Kind) String() string { return string(k) }

// canonicalKind appends the Action suffix to wire kinds that lack it,
// capitalizing the first letter ("click" -> "ClickAction").
func canonicalKind(kind string) string {
	if kind == "" || strings.HasSuffix(kind, kindSuffix) {
		return kind
	}
	return strings.ToUpper(kind[:1]) + kind[1:] + kindSuffix
}
