// Package solution assembles, caches and persists task solutions.
package solution

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/v0xg/webagent/internal/action"
)

// TaskSolution is the ordered action list produced for one task
type TaskSolution struct {
	TaskID  string
	Actions []action.Action
	AgentID string
}

// New assembles a solution, generating a task ID when taskID is empty
func New(taskID, agentID string, actions []action.Action) *TaskSolution {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if actions == nil {
		actions = []action.Action{}
	}
	return &TaskSolution{TaskID: taskID, Actions: actions, AgentID: agentID}
}

type wireSolution struct {
	TaskID  string          `json:"taskId"`
	Actions []action.Action `json:"actions"`
	AgentID string          `json:"agentId,omitempty"`
}

func (s TaskSolution) MarshalJSON() ([]byte, error) {
	actions := s.Actions
	if actions == nil {
		actions = []action.Action{}
	}
	return json.Marshal(wireSolution{TaskID: s.TaskID, Actions: actions, AgentID: s.AgentID})
}

// UnmarshalJSON decodes the wire form. The snake_case names used by older
// producers (task_id, web_agent_id) are accepted too. Every action must be
// valid.
func (s *TaskSolution) UnmarshalJSON(data []byte) error {
	var raw struct {
		TaskID     string           `json:"taskId"`
		TaskIDWire string           `json:"task_id"`
		AgentID    string           `json:"agentId"`
		WebAgentID string           `json:"web_agent_id"`
		Actions    []map[string]any `json:"actions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	actions, err := DecodeActions(raw.Actions)
	if err != nil {
		return err
	}
	*s = TaskSolution{
		TaskID:  firstNonEmpty(raw.TaskID, raw.TaskIDWire),
		Actions: actions,
		AgentID: firstNonEmpty(raw.AgentID, raw.WebAgentID),
	}
	return nil
}

// DecodeActions builds actions from raw records, failing on the first bad one
func DecodeActions(records []map[string]any) ([]action.Action, error) {
	factory := action.NewFactory(nil)
	actions := make([]action.Action, 0, len(records))
	for i, rec := range records {
		a, err := factory.Create(rec)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
