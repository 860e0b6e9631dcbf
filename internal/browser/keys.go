package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-rod/rod/lib/input"
)

var namedKeys = map[string]input.Key{
	"enter":      input.Enter,
	"return":     input.Enter,
	"tab":        input.Tab,
	"escape":     input.Escape,
	"esc":        input.Escape,
	"backspace":  input.Backspace,
	"delete":     input.Delete,
	"arrowup":    input.ArrowUp,
	"arrowdown":  input.ArrowDown,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"home":       input.Home,
	"end":        input.End,
	"pageup":     input.PageUp,
	"pagedown":   input.PageDown,
	"space":      input.Space,
}

var modifierKeys = map[string]input.Key{
	"control": input.ControlLeft,
	"ctrl":    input.ControlLeft,
	"shift":   input.ShiftLeft,
	"alt":     input.AltLeft,
	"option":  input.AltLeft,
	"meta":    input.MetaLeft,
	"command": input.MetaLeft,
	"cmd":     input.MetaLeft,
}

// keyChord is a key pressed while holding modifiers
type keyChord struct {
	modifiers []input.Key
	key       input.Key
}

// parseKeys turns "Enter", "a" or "Control+Shift+T" into a chord. A lone
// modifier ("Shift") is pressed as the key itself.
func parseKeys(combo string) (keyChord, error) {
	if combo == "" {
		return keyChord{}, fmt.Errorf("empty key")
	}
	if combo == "+" {
		return keyChord{key: input.Key('+')}, nil
	}

	parts := strings.Split(combo, "+")
	if strings.HasSuffix(combo, "++") {
		parts = append(parts[:len(parts)-2], "+")
	}

	var chord keyChord
	for i, part := range parts {
		name := strings.TrimSpace(part)
		last := i == len(parts)-1
		if !last {
			mod, ok := modifierKeys[strings.ToLower(name)]
			if !ok {
				return keyChord{}, fmt.Errorf("unknown modifier %q in %q", name, combo)
			}
			chord.modifiers = append(chord.modifiers, mod)
			continue
		}

		key, err := lookupKey(name)
		if err != nil {
			return keyChord{}, fmt.Errorf("%w in %q", err, combo)
		}
		chord.key = key
	}
	return chord, nil
}

func lookupKey(name string) (input.Key, error) {
	lower := strings.ToLower(name)
	if k, ok := namedKeys[lower]; ok {
		return k, nil
	}
	if k, ok := modifierKeys[lower]; ok {
		return k, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return input.Key(r), nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}
