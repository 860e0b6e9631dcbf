package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webagent/internal/action"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		xpath bool
		expr  string
	}{
		{"css", "#submit-btn", false, "#submit-btn"},
		{"attribute css", "[name='q']", false, "[name='q']"},
		{"xpath prefix", "xpath=//button[1]", true, "//button[1]"},
		{"bare xpath", "//div/a", true, "//div/a"},
		{
			"exact text",
			`text="Sign  in"`,
			true,
			`//*[normalize-space(.)='Sign in'][not(*[normalize-space(.)='Sign in'])]`,
		},
		{
			"exact text with quote",
			`text="say \"hi\""`,
			true,
			`//*[normalize-space(.)='say "hi"'][not(*[normalize-space(.)='say "hi"'])]`,
		},
		{
			"contains text",
			"text=Sign In",
			true,
			"//body//*[contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'sign in')]" +
				"[not(*[contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'sign in')])]",
		},
		{
			"contains quoted text",
			`text=\"Sale"`,
			true,
			`//body//*[contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), '"sale"')]` +
				`[not(*[contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), '"sale"')])]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := parseLocator(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.xpath, l.xpath)
			assert.Equal(t, tt.expr, l.expr)
			assert.Equal(t, tt.in, l.String())
		})
	}
}

func TestParseLocatorErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "xpath=", "text="} {
		_, err := parseLocator(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseLocatorAcceptsSelectorOutput(t *testing.T) {
	selectors := []*action.Selector{
		action.ByAttribute("id", "submit-btn"),
		action.ByAttribute("placeholder", "o'brien"),
		action.ByText(`say "hi"`, true),
		action.ByText("checkout", false),
		action.ByXPath("//form/button"),
	}
	for _, s := range selectors {
		loc, err := s.Locator()
		require.NoError(t, err)
		_, err = parseLocator(loc)
		assert.NoError(t, err, "locator %q", loc)
	}
}

func TestQuotedSubstringStaysSubstring(t *testing.T) {
	insensitive, err := action.ByText(`"Sale"`, false).Locator()
	require.NoError(t, err)
	exact, err := action.ByText(`"Sale"`, true).Locator()
	require.NoError(t, err)
	assert.NotEqual(t, insensitive, exact)

	l, err := parseLocator(insensitive)
	require.NoError(t, err)
	assert.Contains(t, l.expr, "contains(")
	assert.Contains(t, l.expr, `'"sale"'`)
}
