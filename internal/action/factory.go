package action

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// wireAliases maps snake_case field names accepted on input to the
// canonical camelCase wire names
var wireAliases = map[string]string{
	"go_back":         "goBack",
	"go_forward":      "goForward",
	"time_seconds":    "timeSeconds",
	"text_to_assert":  "textToAssert",
	"source_selector": "sourceSelector",
	"target_selector": "targetSelector",
	"file_path":       "filePath",
}

// Factory turns loosely shaped records into validated actions
type Factory struct {
	logger *zap.Logger
}

// NewFactory creates a Factory. A nil logger disables logging.
func NewFactory(logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{logger: logger.Named("factory")}
}

// Create builds one action from a raw record. Accepted shapes:
//   - a flat record with "type" and the variant's fields
//   - a record with a top-level "selector" and a nested "action" object
//   - legacy {"type": "type", "value": ...} where value carries the text
func (f *Factory) Create(raw map[string]any) (Action, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	}
	record := normalize(raw)

	kindName, _ := record["type"].(string)
	if kindName == "" {
		return nil, &Error{Field: "type", Err: ErrMissingField}
	}
	if kindName == "type" {
		if v, ok := record["value"]; ok {
			record["text"] = v
			delete(record, "value")
		}
		if record["text"] == nil {
			record["text"] = ""
		}
	}
	record["type"] = canonicalKind(kindName)

	e, err := registry.resolve(kindName)
	if err != nil {
		return nil, &Error{Kind: Kind(canonicalKind(kindName)), Err: err}
	}
	for _, field := range e.required {
		if v, ok := record[field]; !ok || v == nil {
			return nil, &Error{Kind: e.kind, Field: field, Err: ErrMissingField}
		}
	}

	delete(record, "type")
	data, err := json.Marshal(record)
	if err != nil {
		return nil, &Error{Kind: e.kind, Err: err}
	}
	a, err := e.decode(data)
	if err != nil {
		return nil, &Error{Kind: e.kind, Err: err}
	}
	if err := a.validate(); err != nil {
		return nil, &Error{Kind: e.kind, Err: err}
	}
	return a, nil
}

// CreateAll builds every record it can. Failures are logged and skipped so
// one bad record does not abort the batch.
func (f *Factory) CreateAll(records []map[string]any) []Action {
	actions := make([]Action, 0, len(records))
	for i, raw := range records {
		a, err := f.Create(raw)
		if err != nil {
			f.logger.Warn("skipping action record", zap.Int("index", i), zap.Error(err))
			continue
		}
		actions = append(actions, a)
	}
	return actions
}

// CreateJSON decodes a JSON array (or a single object) of records, repairing
// malformed JSON first, and builds them leniently.
func (f *Factory) CreateJSON(data []byte) ([]Action, error) {
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, err
	}
	return f.CreateAll(records), nil
}

// DecodeRecords parses raw action records out of possibly sloppy JSON
func DecodeRecords(data []byte) ([]map[string]any, error) {
	text := strings.TrimSpace(string(data))
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to parse action records: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &decoded); err != nil {
			return nil, fmt.Errorf("failed to parse repaired action records: %w", err)
		}
	}

	switch v := decoded.(type) {
	case []any:
		records := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				records = append(records, m)
			}
		}
		return records, nil
	case map[string]any:
		if list, ok := v["actions"].([]any); ok {
			return DecodeRecords(mustMarshal(list))
		}
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("expected a JSON array or object of action records")
	}
}

// normalize flattens the nested {"selector", "action"} shape and renames
// snake_case aliases. The input map is not modified.
func normalize(raw map[string]any) map[string]any {
	record := make(map[string]any, len(raw))
	if nested, ok := raw["action"].(map[string]any); ok {
		for k, v := range nested {
			record[k] = v
		}
		if sel, ok := raw["selector"]; ok {
			record["selector"] = sel
		}
	} else {
		for k, v := range raw {
			record[k] = v
		}
	}
	for alias, canonical := range wireAliases {
		if v, ok := record[alias]; ok {
			if _, exists := record[canonical]; !exists {
				record[canonical] = v
			}
			delete(record, alias)
		}
	}
	return record
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return data
}
