package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webagent/internal/action"
	"github.com/v0xg/webagent/internal/pagemap"
)

type stubProvider struct {
	reply  string
	err    error
	system string
	user   string
}

func (s *stubProvider) Name() string { return "Stub" }

func (s *stubProvider) Complete(_ context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, s.err
}

func TestParseActionRecords(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{"raw array", `[{"type":"ClickAction","x":1,"y":2}]`, 1},
		{"fenced", "```json\n[{\"type\":\"IdleAction\"},{\"type\":\"IdleAction\"}]\n```", 2},
		{"surrounding text", `Sure! Here you go: [{"type":"NavigateAction","url":"https://a.test"}] Good luck.`, 1},
		{"bracket in string", `Plan: [{"type":"TypeAction","text":"a]b","selector":{"kind":"XPath","value":"//input"}}] done`, 1},
		{"wrapped object", `{"actions":[{"type":"IdleAction"}]}`, 1},
		{"empty", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := parseActionRecords(tt.response)
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestParseActionRecordsNoArray(t *testing.T) {
	_, err := parseActionRecords("I cannot help with that")
	assert.Error(t, err)
}

func TestMatchingBracket(t *testing.T) {
	s := `x [1, "]", [2]] y`
	end := matchingBracket(s, 2)
	assert.Equal(t, `[1, "]", [2]]`, s[2:end])
	assert.Equal(t, -1, matchingBracket(`[1, 2`, 0))
}

func TestGeneratorGenerateActions(t *testing.T) {
	stub := &stubProvider{reply: `[{"type":"ClickAction","selector":{"kind":"AttributeValue","attribute":"id","value":"submit-btn"}}]`}
	g := NewGenerator(stub, nil)

	m := &pagemap.PageMap{URL: "https://shop.test", Elements: []pagemap.Element{{Tag: "button", Type: "button", ID: "submit-btn"}}}
	records, err := g.GenerateActions(context.Background(), m, "press submit", MessageContext{URL: "https://shop.test", ScreenWidth: 800})
	require.NoError(t, err)
	require.Len(t, records, 1)

	a, err := action.NewFactory(nil).Create(records[0])
	require.NoError(t, err)
	assert.Equal(t, action.Click{Selector: action.ByAttribute("id", "submit-btn")}, a)

	assert.Equal(t, systemPrompt, stub.system)
	assert.Contains(t, stub.user, `"id": "submit-btn"`)
	assert.Contains(t, stub.user, `"screen_width":800`)
	assert.True(t, strings.HasSuffix(stub.user, "Task prompt: press submit"))
}

func TestGeneratorErrors(t *testing.T) {
	m := &pagemap.PageMap{}

	_, err := NewGenerator(&stubProvider{err: errors.New("quota")}, nil).GenerateActions(context.Background(), m, "p", MessageContext{})
	assert.ErrorContains(t, err, "Stub API error: quota")

	_, err = NewGenerator(&stubProvider{}, nil).GenerateActions(context.Background(), m, "p", MessageContext{})
	assert.ErrorContains(t, err, "empty response")
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "llama"})
	assert.ErrorContains(t, err, "unknown provider")
}

func TestNewProviderRequiresKey(t *testing.T) {
	t.Setenv("WEBAGENT_OPENAI_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewProvider(context.Background(), Config{Provider: "openai"})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestOpenAIProviderComplete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"[]"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "gpt-test", MaxTokens: 2000, Temperature: 0.5})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "[]", text)

	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "usr", got.Messages[1].Content)
}

func TestWithRateLimit(t *testing.T) {
	stub := &stubProvider{reply: "[]"}
	assert.Same(t, Provider(stub), WithRateLimit(stub, 0, 0))

	p := WithRateLimit(stub, 1, 1)
	assert.Equal(t, "Stub", p.Name())

	_, err := p.Complete(context.Background(), "s", "u")
	require.NoError(t, err, "the first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Complete(ctx, "s", "u2")
	assert.ErrorContains(t, err, "rate limit")
	assert.Equal(t, "u", stub.user, "the throttled request never reaches the provider")
}
