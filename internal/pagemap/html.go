package pagemap

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxTextLen    = 50
	maxNavTextLen = 30
)

// FromHTML builds a PageMap from raw HTML without a browser. Visibility
// cannot be known here, so every matching element is listed.
func FromHTML(url, html string) (*PageMap, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	m := &PageMap{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		IsSPA: detectSPA(doc),
	}

	seen := make(map[string]bool)
	add := func(s *goquery.Selection, kind string) {
		el := describe(s, kind)
		if seen[el.XPath] {
			return
		}
		seen[el.XPath] = true
		m.Elements = append(m.Elements, el)
	}

	doc.Find(`button, [role="button"], input[type="submit"], input[type="button"]`).Each(func(_ int, s *goquery.Selection) {
		add(s, "button")
	})
	doc.Find(`input:not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="checkbox"]):not([type="radio"]), textarea`).Each(func(_ int, s *goquery.Selection) {
		kind := strings.ToLower(s.AttrOr("type", "text"))
		if goquery.NodeName(s) == "textarea" {
			kind = "textarea"
		}
		add(s, kind)
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		add(s, "link")
	})
	doc.Find("select").Each(func(_ int, s *goquery.Selection) {
		add(s, "select")
	})
	doc.Find(`input[type="checkbox"], input[type="radio"]`).Each(func(_ int, s *goquery.Selection) {
		add(s, strings.ToLower(s.AttrOr("type", "")))
	})

	m.Navigation = extractNavigation(doc)
	return m, nil
}

func describe(s *goquery.Selection, kind string) Element {
	text := strings.TrimSpace(s.Text())
	if text == "" {
		text = strings.TrimSpace(s.AttrOr("value", ""))
	}
	return Element{
		Tag:         goquery.NodeName(s),
		Type:        kind,
		Text:        truncate(collapseSpace(text), maxTextLen),
		ID:          s.AttrOr("id", ""),
		Name:        s.AttrOr("name", ""),
		Placeholder: s.AttrOr("placeholder", ""),
		AriaLabel:   s.AttrOr("aria-label", ""),
		Class:       collapseSpace(s.AttrOr("class", "")),
		Href:        s.AttrOr("href", ""),
		XPath:       xpathOf(s),
	}
}

func extractNavigation(doc *goquery.Document) []NavItem {
	var items []NavItem
	seen := make(map[string]bool)
	doc.Find(`nav a, header a, [role="navigation"] a`).Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || seen[href] {
			return
		}
		seen[href] = true
		items = append(items, NavItem{
			Text: truncate(collapseSpace(s.Text()), maxNavTextLen),
			Href: href,
			ID:   s.AttrOr("id", ""),
		})
	})
	return items
}

// detectSPA looks for the mount points common SPA frameworks leave in markup
func detectSPA(doc *goquery.Document) bool {
	markers := `[data-reactroot], #__next, #root, [ng-version], app-root, [data-v-app], #__nuxt, #svelte`
	return doc.Find(markers).Length() > 0
}

// xpathOf returns an absolute, index-qualified XPath for the first node of s
func xpathOf(s *goquery.Selection) string {
	var parts []string
	for cur := s.First(); cur.Length() > 0; cur = cur.Parent() {
		name := goquery.NodeName(cur)
		if name == "" || name == "#document" {
			break
		}
		index := cur.PrevAllFiltered(name).Length() + 1
		parts = append(parts, fmt.Sprintf("%s[%d]", name, index))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
