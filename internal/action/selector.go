package action

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SelectorKind is how a Selector locates its element
type SelectorKind string

const (
	AttributeValue SelectorKind = "AttributeValue"
	TagContains    SelectorKind = "TagContains"
	XPath          SelectorKind = "XPath"
)

// legacy wire names produced by older agents and LLM prompts
var selectorKindAliases = map[string]SelectorKind{
	"attributevalue":         AttributeValue,
	"attributevalueselector": AttributeValue,
	"tagcontains":            TagContains,
	"tagcontainsselector":    TagContains,
	"xpath":                  XPath,
	"xpathselector":          XPath,
}

// ParseSelectorKind resolves canonical and legacy selector kind names
func ParseSelectorKind(s string) (SelectorKind, error) {
	if k, ok := selectorKindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSelectorKind, s)
}

// attributeTemplates maps well-known attributes to their locator form.
// id and class are handled separately.
var attributeTemplates = map[string]string{
	"placeholder":     "[placeholder='%s']",
	"name":            "[name='%s']",
	"role":            "[role='%s']",
	"value":           "[value='%s']",
	"type":            "[type='%s']",
	"aria-label":      "[aria-label='%s']",
	"aria-labelledby": "[aria-labelledby='%s']",
	"data-testid":     "[data-testid='%s']",
	"data-custom":     "[data-custom='%s']",
	"href":            "a[href='%s']",
}

// Selector describes how to locate a page element
type Selector struct {
	Kind          SelectorKind `json:"kind"`
	Attribute     string       `json:"attribute,omitempty"`
	Value         string       `json:"value"`
	CaseSensitive bool         `json:"caseSensitive,omitempty"`
}

// NewSelector validates kind and builds a Selector
func NewSelector(kind SelectorKind, attribute, value string) (*Selector, error) {
	k, err := ParseSelectorKind(string(kind))
	if err != nil {
		return nil, err
	}
	s := &Selector{Kind: k, Value: value}
	if k == AttributeValue {
		s.Attribute = attribute
	}
	return s, nil
}

// ByAttribute is shorthand for an AttributeValue selector
func ByAttribute(attribute, value string) *Selector {
	return &Selector{Kind: AttributeValue, Attribute: attribute, Value: value}
}

// ByXPath is shorthand for an XPath selector
func ByXPath(xpath string) *Selector {
	return &Selector{Kind: XPath, Value: xpath}
}

// ByText is shorthand for a TagContains selector
func ByText(text string, caseSensitive bool) *Selector {
	return &Selector{Kind: TagContains, Value: text, CaseSensitive: caseSensitive}
}

// Locator renders the selector into the driver locator syntax:
// plain CSS, text=..., or xpath=...
func (s Selector) Locator() (string, error) {
	switch s.Kind {
	case AttributeValue:
		return s.attributeLocator(), nil
	case TagContains:
		if s.CaseSensitive {
			return `text="` + escapeQuote(s.Value, '"') + `"`, nil
		}
		if strings.HasPrefix(s.Value, `"`) {
			// a leading quote would read as the exact form
			return `text=\` + s.Value, nil
		}
		return "text=" + s.Value, nil
	case XPath:
		if !strings.HasPrefix(s.Value, "//") {
			return "xpath=//" + s.Value, nil
		}
		return "xpath=" + s.Value, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSelectorKind, s.Kind)
	}
}

func (s Selector) attributeLocator() string {
	switch s.Attribute {
	case "id":
		return "#" + strings.TrimPrefix(s.Value, "#")
	case "class":
		classes := strings.Fields(strings.ReplaceAll(s.Value, ".", " "))
		return "." + strings.Join(classes, ".")
	}
	value := escapeQuote(s.Value, '\'')
	if tmpl, ok := attributeTemplates[s.Attribute]; ok {
		return fmt.Sprintf(tmpl, value)
	}
	return fmt.Sprintf("[%s='%s']", s.Attribute, value)
}

func (s Selector) String() string {
	loc, err := s.Locator()
	if err != nil {
		return "<invalid selector>"
	}
	return loc
}

func (s *Selector) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind              string `json:"kind"`
		Type              string `json:"type"`
		Attribute         string `json:"attribute"`
		Value             string `json:"value"`
		CaseSensitive     bool   `json:"caseSensitive"`
		CaseSensitiveWire bool   `json:"case_sensitive"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	name := raw.Kind
	if name == "" {
		name = raw.Type
	}
	kind, err := ParseSelectorKind(name)
	if err != nil {
		return err
	}
	*s = Selector{
		Kind:          kind,
		Value:         raw.Value,
		CaseSensitive: raw.CaseSensitive || raw.CaseSensitiveWire,
	}
	if kind == AttributeValue {
		s.Attribute = raw.Attribute
	}
	return nil
}

func escapeQuote(s string, quote rune) string {
	if !strings.ContainsRune(s, quote) {
		return s
	}
	q := string(quote)
	s = strings.ReplaceAll(s, `\`+q, q)
	return strings.ReplaceAll(s, q, `\`+q)
}

// XPathLiteral quotes text for use inside an XPath expression, falling
// back to concat() when it contains both quote characters.
func XPathLiteral(text string) string {
	if !strings.Contains(text, "'") {
		return "'" + text + "'"
	}
	if !strings.Contains(text, `"`) {
		return `"` + text + `"`
	}
	parts := strings.Split(text, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
