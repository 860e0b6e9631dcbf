// Package agent holds the producers that turn a task into actions: a
// random clicker, a page-map LLM planner and an external trace agent.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/v0xg/webagent/internal/action"
)

// Agent identifiers reported in task solutions
const (
	RandomAgentID = "random_web_agent"
	OpenAIAgentID = "openai_web_agent"
	LLMAgentID    = "llm_web_agent"
)

const (
	DefaultScreenWidth  = 1920
	DefaultScreenHeight = 1080
)

// Task is a solve request
type Task struct {
	ID             string          `json:"id"`
	Prompt         string          `json:"prompt,omitempty"`
	URL            string          `json:"url,omitempty"`
	HTML           string          `json:"html,omitempty"`
	IsWebReal      bool            `json:"is_web_real,omitempty"`
	Specifications *Specifications `json:"specifications,omitempty"`
	RelevantData   map[string]any  `json:"relevant_data,omitempty"`
}

// Specifications describes the browser the solution will be replayed in
type Specifications struct {
	ScreenWidth    int `json:"screen_width,omitempty"`
	ScreenHeight   int `json:"screen_height,omitempty"`
	ViewportWidth  int `json:"viewport_width,omitempty"`
	ViewportHeight int `json:"viewport_height,omitempty"`
}

// Screen returns the screen size, falling back to 1920x1080
func (s *Specifications) Screen() (int, int) {
	w, h := DefaultScreenWidth, DefaultScreenHeight
	if s != nil && s.ScreenWidth > 0 {
		w = s.ScreenWidth
	}
	if s != nil && s.ScreenHeight > 0 {
		h = s.ScreenHeight
	}
	return w, h
}

// Result is the outcome of one Produce call
type Result struct {
	Actions []action.Action
	// Done is false when the producer gave up before finishing the task.
	// Unfinished results are never persisted.
	Done bool
}

// Producer turns a task into actions
type Producer interface {
	AgentID() string
	Produce(ctx context.Context, task Task) (Result, error)
}

// MessageContext renders what the agent should know about the task
// environment as plain text
func MessageContext(task Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The url of home page is %s.\nAll actions must start from this url.\n", task.URL)
	if task.IsWebReal {
		b.WriteString("This home page is on a real web site.\n")
	} else {
		b.WriteString("This home page is not a real web page, so failure is not a concern.\n")
	}
	if spec := task.Specifications; spec != nil {
		if spec.ViewportWidth > 0 && spec.ViewportHeight > 0 {
			fmt.Fprintf(&b, "The size of viewport is %dx%d.\n", spec.ViewportWidth, spec.ViewportHeight)
		}
		if spec.ScreenWidth > 0 && spec.ScreenHeight > 0 {
			fmt.Fprintf(&b, "The size of screen is %dx%d.\n", spec.ScreenWidth, spec.ScreenHeight)
		}
	}
	if len(task.RelevantData) > 0 {
		fmt.Fprintf(&b, "The relevant data is as following.\n%v\n", task.RelevantData)
	}
	return b.String()
}
