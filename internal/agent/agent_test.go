package agent

import (
	"context"
	"errors"
	"math/rand/v2"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webagent/internal/action"
	"github.com/v0xg/webagent/internal/ai"
	"github.com/v0xg/webagent/internal/pagemap"
	"pgregory.net/rapid"
)

func TestRandomProducerStaysOnScreen(t *testing.T) {
	p := NewRandomProducer(nil)

	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 4000).Draw(rt, "width")
		h := rapid.IntRange(1, 4000).Draw(rt, "height")

		res, err := p.Produce(context.Background(), Task{ID: "t", Specifications: &Specifications{ScreenWidth: w, ScreenHeight: h}})
		require.NoError(rt, err)
		require.Len(rt, res.Actions, 1)

		click := res.Actions[0].(action.Click)
		require.NotNil(rt, click.X)
		require.NotNil(rt, click.Y)
		assert.GreaterOrEqual(rt, *click.X, 0)
		assert.Less(rt, *click.X, w)
		assert.GreaterOrEqual(rt, *click.Y, 0)
		assert.Less(rt, *click.Y, h)
		assert.Nil(rt, click.Selector)
	})
}

func TestRandomProducerDefaults(t *testing.T) {
	p := NewRandomProducer(rand.NewPCG(1, 2))
	for range 100 {
		res, err := p.Produce(context.Background(), Task{ID: "t"})
		require.NoError(t, err)
		click := res.Actions[0].(action.Click)
		assert.Less(t, *click.X, DefaultScreenWidth)
		assert.Less(t, *click.Y, DefaultScreenHeight)
	}
	assert.Equal(t, RandomAgentID, p.AgentID())
}

func TestMessageContext(t *testing.T) {
	got := MessageContext(Task{
		URL:            "https://shop.test",
		IsWebReal:      true,
		Specifications: &Specifications{ScreenWidth: 800, ScreenHeight: 600, ViewportWidth: 800},
		RelevantData:   map[string]any{"user": "ann"},
	})
	assert.Contains(t, got, "The url of home page is https://shop.test.")
	assert.Contains(t, got, "on a real web site")
	assert.Contains(t, got, "The size of screen is 800x600.")
	assert.NotContains(t, got, "viewport", "viewport needs both dimensions")
	assert.Contains(t, got, "map[user:ann]")

	assert.Contains(t, MessageContext(Task{URL: "u"}), "failure is not a concern")
}

type stubGenerator struct {
	records []map[string]any
	err     error
	pageMap *pagemap.PageMap
	mc      ai.MessageContext
}

func (g *stubGenerator) GenerateActions(_ context.Context, m *pagemap.PageMap, _ string, mc ai.MessageContext) ([]map[string]any, error) {
	g.pageMap, g.mc = m, mc
	return g.records, g.err
}

type stubMapper struct {
	calls int
}

func (m *stubMapper) MapPage(_ context.Context, url string) (*pagemap.PageMap, error) {
	m.calls++
	return &pagemap.PageMap{URL: url, Title: "crawled"}, nil
}

func TestLLMProducerUsesTaskHTML(t *testing.T) {
	gen := &stubGenerator{records: []map[string]any{
		{"type": "NavigateAction", "url": "https://shop.test"},
		{"type": "ClickAction", "selector": map[string]any{"kind": "AttributeValue", "attribute": "id", "value": "go"}},
		{"type": "BogusAction"},
	}}
	mapper := &stubMapper{}
	p := NewLLMProducer(gen, mapper, nil)

	res, err := p.Produce(context.Background(), Task{
		ID:     "t1",
		Prompt: "press go",
		URL:    "https://shop.test",
		HTML:   `<button id="go">Go</button>`,
	})
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Len(t, res.Actions, 2, "unknown kinds are dropped")
	assert.Zero(t, mapper.calls)
	require.Len(t, gen.pageMap.Elements, 1)
	assert.Equal(t, "go", gen.pageMap.Elements[0].ID)
	assert.Equal(t, DefaultScreenWidth, gen.mc.ScreenWidth)
}

func TestLLMProducerCrawlsWithoutHTML(t *testing.T) {
	gen := &stubGenerator{}
	mapper := &stubMapper{}
	p := NewLLMProducer(gen, mapper, nil)

	_, err := p.Produce(context.Background(), Task{ID: "t", URL: "https://shop.test"})
	require.NoError(t, err)
	assert.Equal(t, 1, mapper.calls)
	assert.Equal(t, "crawled", gen.pageMap.Title)
}

func TestLLMProducerErrors(t *testing.T) {
	_, err := NewLLMProducer(&stubGenerator{}, nil, nil).Produce(context.Background(), Task{URL: "u"})
	assert.ErrorContains(t, err, "no browser")

	boom := errors.New("boom")
	_, err = NewLLMProducer(&stubGenerator{err: boom}, nil, nil).Produce(context.Background(), Task{URL: "u", HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, boom)
}

func TestDecodeAgentOutput(t *testing.T) {
	p, err := NewCommandProducer(CommandConfig{Command: "true"}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		output string
		kinds  []action.Kind
		done   bool
	}{
		{
			"canonical records",
			`[{"type":"NavigateAction","url":"https://a.test","go_back":false},{"type":"WaitAction","time_seconds":1}]`,
			[]action.Kind{action.KindNavigate, action.KindWait},
			true,
		},
		{
			"trace steps",
			`[{"go_to_url":{"url":"https://a.test"}},{"click_element":{"index":2},"interacted_element":{"attributes":{"id":"go"}}},{"done":{}}]`,
			[]action.Kind{action.KindNavigate, action.KindClick},
			true,
		},
		{
			"wrapped unfinished",
			`{"done":false,"steps":[{"go_back":{}}]}`,
			[]action.Kind{action.KindNavigate},
			false,
		},
		{"empty", ``, nil, true},
		{"wrapped without steps", `{"done":true}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.decodeOutput([]byte(tt.output))
			require.NoError(t, err)
			var kinds []action.Kind
			for _, a := range res.Actions {
				kinds = append(kinds, a.Kind())
			}
			assert.Equal(t, tt.kinds, kinds)
			assert.Equal(t, tt.done, res.Done)
		})
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandProducerRunsAgent(t *testing.T) {
	requireShell(t)

	script := `grep -q '"message_context"' "$1" && grep -q '"prompt":"buy boots"' "$1" || exit 3
printf '%s' '[{"type":"NavigateAction","url":"https://a.test"},{"type":"ClickAction","x":1,"y":2},{"type":"IdleAction"}]' > "$2"`
	p, err := NewCommandProducer(CommandConfig{Command: "sh", Args: []string{"-c", script, "agent"}, Timeout: 10 * time.Second}, nil)
	require.NoError(t, err)

	res, err := p.Produce(context.Background(), Task{ID: "t", Prompt: "buy boots", URL: "https://a.test"})
	require.NoError(t, err)
	assert.Len(t, res.Actions, 3)
	assert.True(t, res.Done)
	assert.Equal(t, LLMAgentID, p.AgentID())
}

func TestCommandProducerFailure(t *testing.T) {
	requireShell(t)

	p, err := NewCommandProducer(CommandConfig{Command: "sh", Args: []string{"-c", "echo 'no api key' >&2; exit 1", "agent"}}, nil)
	require.NoError(t, err)

	_, err = p.Produce(context.Background(), Task{ID: "t"})
	assert.ErrorContains(t, err, "no api key")
}

func TestCommandProducerTimeout(t *testing.T) {
	requireShell(t)

	p, err := NewCommandProducer(CommandConfig{Command: "sh", Args: []string{"-c", "exec sleep 5", "agent"}, Timeout: 100 * time.Millisecond}, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Produce(context.Background(), Task{ID: "t"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNewCommandProducerRequiresCommand(t *testing.T) {
	_, err := NewCommandProducer(CommandConfig{}, nil)
	assert.Error(t, err)
}
