// Package pagemap describes the interactive structure of a web page for
// action producers.
package pagemap

// PageMap represents the analyzed structure of a web page
type PageMap struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Elements   []Element `json:"elements"`
	Navigation []NavItem `json:"navigation"`
	IsSPA      bool      `json:"isSPA"`
}

// Element represents an interactive element on the page. The attribute
// fields are the ones selectors can be built from.
type Element struct {
	Tag         string `json:"tag"`
	Type        string `json:"type"` // button, link, select, checkbox, radio, or the input type
	Text        string `json:"text,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	AriaLabel   string `json:"ariaLabel,omitempty"`
	Class       string `json:"class,omitempty"`
	Href        string `json:"href,omitempty"`
	XPath       string `json:"xpath,omitempty"`
}

// NavItem represents a navigation link
type NavItem struct {
	Text string `json:"text"`
	Href string `json:"href"`
	ID   string `json:"id,omitempty"`
}

// Len reports the number of interactive elements and navigation links
func (m *PageMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Elements) + len(m.Navigation)
}
