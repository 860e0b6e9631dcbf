package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/v0xg/webagent/internal/action"
)

const upperASCII = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// locator is a parsed selector string: either CSS or XPath
type locator struct {
	raw   string
	xpath bool
	expr  string
}

// parseLocator understands plain CSS, xpath=<expr>, text=<substring> and
// text="<exact>". A substring that starts with a quote is written as
// text=\"<substring>. Text locators compile to XPath that picks the
// innermost matching element.
func parseLocator(s string) (locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return locator{}, fmt.Errorf("empty selector")
	}

	switch {
	case strings.HasPrefix(s, "xpath="):
		expr := strings.TrimPrefix(s, "xpath=")
		if expr == "" {
			return locator{}, fmt.Errorf("empty xpath in selector %q", s)
		}
		return locator{raw: s, xpath: true, expr: expr}, nil

	case strings.HasPrefix(s, "//") || strings.HasPrefix(s, "(//"):
		return locator{raw: s, xpath: true, expr: s}, nil

	case strings.HasPrefix(s, "text="):
		value := strings.TrimPrefix(s, "text=")
		if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			exact := strings.ReplaceAll(value[1:len(value)-1], `\"`, `"`)
			return locator{raw: s, xpath: true, expr: exactTextXPath(exact)}, nil
		}
		if value == "" {
			return locator{}, fmt.Errorf("empty text in selector %q", s)
		}
		if strings.HasPrefix(value, `\"`) {
			value = value[1:]
		}
		return locator{raw: s, xpath: true, expr: containsTextXPath(value)}, nil
	}

	return locator{raw: s, expr: s}, nil
}

func exactTextXPath(text string) string {
	lit := action.XPathLiteral(strings.Join(strings.Fields(text), " "))
	cond := fmt.Sprintf("normalize-space(.)=%s", lit)
	return fmt.Sprintf("//*[%s][not(*[%s])]", cond, cond)
}

func containsTextXPath(text string) string {
	lit := action.XPathLiteral(strings.ToLower(text))
	cond := fmt.Sprintf("contains(translate(normalize-space(.), '%s', '%s'), %s)",
		upperASCII, strings.ToLower(upperASCII), lit)
	return fmt.Sprintf("//body//*[%s][not(*[%s])]", cond, cond)
}

// first waits for the first match on p
func (l locator) first(p *rod.Page) (*rod.Element, error) {
	if l.xpath {
		return p.ElementX(l.expr)
	}
	return p.Element(l.expr)
}

// all returns the current matches on p without waiting
func (l locator) all(p *rod.Page) (rod.Elements, error) {
	if l.xpath {
		return p.ElementsX(l.expr)
	}
	return p.Elements(l.expr)
}

func (l locator) String() string {
	return l.raw
}
