package solution

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webagent/internal/action"
)

func sampleActions() []action.Action {
	return []action.Action{
		action.Navigate{URL: "https://shop.test"},
		action.Type{Selector: action.ByAttribute("name", "q"), Text: "boots"},
		action.Submit{Selector: action.ByAttribute("name", "q")},
	}
}

func TestNewGeneratesTaskID(t *testing.T) {
	s := New("", "random_web_agent", nil)
	_, err := uuid.Parse(s.TaskID)
	require.NoError(t, err)
	assert.NotNil(t, s.Actions)

	assert.Equal(t, "t1", New("t1", "", nil).TaskID)
}

func TestTaskSolutionJSON(t *testing.T) {
	want := New("t1", "llm_web_agent", sampleActions())
	data, err := json.Marshal(want)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "t1", fields["taskId"])
	assert.Equal(t, "llm_web_agent", fields["agentId"])
	require.Len(t, fields["actions"], 3)
	assert.Equal(t, "NavigateAction", fields["actions"].([]any)[0].(map[string]any)["type"])

	var got TaskSolution
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *want, got)
}

func TestTaskSolutionEmptyActions(t *testing.T) {
	data, err := json.Marshal(TaskSolution{TaskID: "t2"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"taskId":"t2","actions":[]}`, string(data))
}

func TestTaskSolutionLegacyNames(t *testing.T) {
	var s TaskSolution
	err := json.Unmarshal([]byte(`{
		"task_id": "t3",
		"web_agent_id": "llm_web_agent",
		"actions": [{"type": "ClickAction", "x": 4, "y": 5, "selector": null}]
	}`), &s)
	require.NoError(t, err)
	assert.Equal(t, "t3", s.TaskID)
	assert.Equal(t, "llm_web_agent", s.AgentID)
	require.Len(t, s.Actions, 1)
	assert.Equal(t, action.KindClick, s.Actions[0].Kind())
}

func TestTaskSolutionRejectsInvalidAction(t *testing.T) {
	var s TaskSolution
	err := json.Unmarshal([]byte(`{"taskId":"t4","actions":[{"type":"TypeAction"}]}`), &s)
	assert.ErrorIs(t, err, action.ErrMissingField)
}
