package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webagent/internal/action"
	"github.com/v0xg/webagent/internal/metrics"
	"go.uber.org/zap"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

type solutionOutput struct {
	TaskID  string           `json:"taskId"`
	AgentID string           `json:"agentId"`
	Actions []map[string]any `json:"actions"`
}

func TestNormalizeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"go_to_url": {"url": "https://shop.test"}},
		{"input_text": {"index": 3, "text": "boots"}, "interacted_element": {"attributes": {"id": "q"}}},
		{"done": {"text": "ok"}}
	]`), 0o644))

	out, err := execute(t, "normalize", path, "--task-id", "t9")
	require.NoError(t, err)

	var sol solutionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &sol))
	assert.Equal(t, "t9", sol.TaskID)
	assert.Equal(t, "llm_web_agent", sol.AgentID)
	require.Len(t, sol.Actions, 2)
	assert.Equal(t, "NavigateAction", sol.Actions[0]["type"])
	assert.Equal(t, "TypeAction", sol.Actions[1]["type"])
}

func TestSolveRandom(t *testing.T) {
	out, err := execute(t, "solve", "--strategy", "random", "--id", "r1", "--screen-width", "800", "--screen-height", "600")
	require.NoError(t, err)

	var sol solutionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &sol))
	assert.Equal(t, "r1", sol.TaskID)
	assert.Equal(t, "random_web_agent", sol.AgentID)
	require.Len(t, sol.Actions, 1)
	assert.Less(t, sol.Actions[0]["x"].(float64), 800.0)
}

func TestSolveRejectsUnknownStrategy(t *testing.T) {
	_, err := execute(t, "solve", "--strategy", "psychic")
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestSolveAgentNeedsCommand(t *testing.T) {
	_, err := execute(t, "solve", "--strategy", "agent")
	assert.ErrorContains(t, err, "agent.command")
}

func TestReplayRejectsInvalidSolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solution.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"taskId":"t","actions":[{"type":"NopeAction"}]}`), 0o644))

	_, err := execute(t, "replay", path)
	assert.ErrorContains(t, err, "decode solution")
}

func TestBadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -1\n"), 0o644))

	_, err := execute(t, "--config", path, "normalize", "-")
	assert.ErrorContains(t, err, "server.port")
}

func TestReplayRunnerCountsActions(t *testing.T) {
	a := &app{logger: zap.NewNop()}
	collector := metrics.NewCollector("webagent", nil)

	report := a.newReplayRunner(collector).Run(context.Background(), nil, "s1", []action.Action{
		action.Idle{},
		action.Undefined{},
		action.Idle{},
	})
	require.NoError(t, report.Err)
	assert.Equal(t, 3, report.Executed)

	path := filepath.Join(t.TempDir(), "replay.prom")
	require.NoError(t, collector.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `webagent_actions_total{kind="IdleAction",status="ok"} 2`)
	assert.Contains(t, string(data), `webagent_actions_total{kind="UndefinedAction",status="ok"} 1`)
}
