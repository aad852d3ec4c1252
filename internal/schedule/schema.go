package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildScheduleJSONSchema returns the shape a well-behaved payload should
// have: an array of flat objects with scalar cells. Models often emit money
// amounts unquoted, so numbers and nulls are tolerated alongside strings.
// The schema is advisory; the parser stays permissive about keys.
func BuildScheduleJSONSchema() map[string]any {
	cell := map[string]any{
		"type": []string{"string", "number", "integer", "boolean", "null"},
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": cell,
		},
	}
}

// ValidatePayload checks an isolated payload against the schedule schema.
// A non-nil error means the payload deviates from the expected shape; the
// pipeline logs it as a warning and carries on.
func ValidatePayload(payload []byte) error {
	b, err := json.Marshal(BuildScheduleJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schedule.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	sch, err := compiler.Compile("schedule.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("payload does not match schedule schema: %w", err)
	}
	return nil
}
