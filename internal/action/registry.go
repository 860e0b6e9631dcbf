package action

import (
	"context"
	"encoding/json"
	"fmt"
)

// entry binds a kind to its decoder, required wire fields and executor
type entry struct {
	kind     Kind
	required []string
	decode   func(data []byte) (Action, error)
	exec     ExecFunc
}

// Registry maps registry keys (see Key) to action variants. It is filled
// once by newRegistry and only read afterwards.
type Registry struct {
	entries map[string]entry
	order   []Kind
}

// registry is the static table of every known variant
var registry = newRegistry(
	entry{kind: KindClick, decode: decodeAs[Click], exec: handle(executeClick)},
	entry{kind: KindDoubleClick, required: []string{"selector"}, decode: decodeAs[DoubleClick], exec: handle(executeDoubleClick)},
	entry{kind: KindNavigate, decode: decodeAs[Navigate], exec: handle(executeNavigate)},
	entry{kind: KindType, required: []string{"selector", "text"}, decode: decodeAs[Type], exec: handle(executeType)},
	entry{kind: KindSelect, required: []string{"selector", "value"}, decode: decodeAs[Select], exec: handle(executeSelect)},
	entry{kind: KindHover, required: []string{"selector"}, decode: decodeAs[Hover], exec: handle(executeHover)},
	entry{kind: KindWait, decode: decodeAs[Wait], exec: handle(executeWait)},
	entry{kind: KindScroll, decode: decodeAs[Scroll], exec: handle(executeScroll)},
	entry{kind: KindSubmit, decode: decodeAs[Submit], exec: handle(executeSubmit)},
	entry{kind: KindAssert, required: []string{"textToAssert"}, decode: decodeAs[Assert], exec: handle(executeAssert)},
	entry{kind: KindDragAndDrop, required: []string{"sourceSelector", "targetSelector"}, decode: decodeAs[DragAndDrop], exec: handle(executeDragAndDrop)},
	entry{kind: KindScreenshot, required: []string{"filePath"}, decode: decodeAs[Screenshot], exec: handle(executeScreenshot)},
	entry{kind: KindSendKeys, required: []string{"keys"}, decode: decodeAs[SendKeys], exec: handle(executeSendKeys)},
	entry{kind: KindGetDropDownOptions, required: []string{"selector"}, decode: decodeAs[GetDropDownOptions], exec: handle(executeGetDropDownOptions)},
	entry{kind: KindSelectDropDownOption, required: []string{"selector", "text"}, decode: decodeAs[SelectDropDownOption], exec: handle(executeSelectDropDownOption)},
	entry{kind: KindUndefined, decode: decodeAs[Undefined], exec: handle(executeNoop[Undefined])},
	entry{kind: KindIdle, decode: decodeAs[Idle], exec: handle(executeNoop[Idle])},
)

func newRegistry(entries ...entry) *Registry {
	r := &Registry{entries: make(map[string]entry, len(entries))}
	for _, e := range entries {
		key := e.kind.Key()
		if _, dup := r.entries[key]; dup {
			panic(fmt.Sprintf("action: duplicate registration for %q", key))
		}
		r.entries[key] = e
		r.order = append(r.order, e.kind)
	}
	return r
}

// Lookup resolves any spelling of a kind to its canonical Kind
func Lookup(kind string) (Kind, error) {
	e, err := registry.resolve(kind)
	if err != nil {
		return "", err
	}
	return e.kind, nil
}

// Kinds lists every registered kind in registration order
func Kinds() []Kind {
	out := make([]Kind, len(registry.order))
	copy(out, registry.order)
	return out
}

func (r *Registry) resolve(kind string) (entry, error) {
	e, ok := r.entries[Key(kind)]
	if !ok {
		return entry{}, fmt.Errorf("%w: %q", ErrUnsupportedActionKind, kind)
	}
	return e, nil
}

func decodeAs[T Action](data []byte) (Action, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// handle adapts a typed executor to the registry's ExecFunc, accepting the
// variant by value or by pointer.
func handle[T Action](fn func(context.Context, Driver, T) error) ExecFunc {
	return func(ctx context.Context, d Driver, a Action) error {
		switch v := any(a).(type) {
		case T:
			return fn(ctx, d, v)
		case *T:
			if v == nil {
				return fmt.Errorf("%w: nil %T", ErrUnsupportedActionKind, a)
			}
			return fn(ctx, d, *v)
		}
		return fmt.Errorf("%w: %T", ErrUnsupportedActionKind, a)
	}
}
