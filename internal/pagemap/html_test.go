package pagemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopPage = `<!DOCTYPE html>
<html>
<head><title> Boot Shop </title><script>var x = "<button>fake</button>";</script></head>
<body>
  <header>
    <nav>
      <a href="/">Home</a>
      <a href="/boots" id="nav-boots">Boots</a>
      <a href="#top">Top</a>
    </nav>
  </header>
  <div id="root">
    <form>
      <input type="text" name="q" placeholder="Search boots">
      <input type="hidden" name="csrf" value="x">
      <button id="submit-btn" class="btn  btn-primary">Search</button>
      <select name="size"><option>40</option><option>41</option></select>
      <input type="checkbox" name="wide">
      <textarea aria-label="Notes"></textarea>
    </form>
    <a href="/boots">Boots</a>
    <a href="javascript:void(0)">Nothing</a>
  </div>
</body>
</html>`

func TestFromHTML(t *testing.T) {
	m, err := FromHTML("https://shop.test", shopPage)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test", m.URL)
	assert.Equal(t, "Boot Shop", m.Title)
	assert.True(t, m.IsSPA)

	byType := map[string][]Element{}
	for _, el := range m.Elements {
		byType[el.Type] = append(byType[el.Type], el)
	}

	require.Len(t, byType["button"], 1, "script contents are not parsed as elements")
	btn := byType["button"][0]
	assert.Equal(t, "submit-btn", btn.ID)
	assert.Equal(t, "Search", btn.Text)
	assert.Equal(t, "btn btn-primary", btn.Class)
	assert.Equal(t, "/html[1]/body[1]/div[1]/form[1]/button[1]", btn.XPath)

	require.Len(t, byType["text"], 1, "hidden inputs are skipped")
	assert.Equal(t, "Search boots", byType["text"][0].Placeholder)
	assert.Equal(t, "/html[1]/body[1]/div[1]/form[1]/input[1]", byType["text"][0].XPath)

	require.Len(t, byType["select"], 1)
	assert.Equal(t, "size", byType["select"][0].Name)
	require.Len(t, byType["checkbox"], 1)
	require.Len(t, byType["textarea"], 1)
	assert.Equal(t, "Notes", byType["textarea"][0].AriaLabel)

	// header links plus the body link; anchors and javascript: hrefs are dropped
	assert.Len(t, byType["link"], 3)

	require.Len(t, m.Navigation, 2)
	assert.Equal(t, NavItem{Text: "Boots", Href: "/boots", ID: "nav-boots"}, m.Navigation[1])
}

func TestFromHTMLPlainPage(t *testing.T) {
	m, err := FromHTML("u", `<p>nothing to click</p>`)
	require.NoError(t, err)
	assert.False(t, m.IsSPA)
	assert.Zero(t, m.Len())
}

func TestXPathSiblingIndex(t *testing.T) {
	m, err := FromHTML("u", `<ul><li><a href="/1">1</a></li><li><a href="/2">2</a></li></ul>`)
	require.NoError(t, err)
	require.Len(t, m.Elements, 2)
	assert.Equal(t, "/html[1]/body[1]/ul[1]/li[2]/a[1]", m.Elements[1].XPath)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "héé", truncate("héééé", 3))
}
