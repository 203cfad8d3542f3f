package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const uuidPattern = `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`

// BuildMessageJSONSchema describes the normalized-message trigger payload
// accepted on /v1/messages.
func BuildMessageJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"user_id":    map[string]any{"type": "string", "pattern": uuidPattern},
			"message_id": map[string]any{"type": "string", "pattern": uuidPattern},
			"media_url":  map[string]any{"type": "string", "pattern": `^https?://`},
		},
		"required": []string{"user_id", "message_id", "media_url"},
	}
}

// BuildCommitJSONSchema describes the commit trigger payload accepted on
// /v1/commit. draft_event_id is optional: omitted means "latest eligible".
func BuildCommitJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"user_id":        map[string]any{"type": "string", "pattern": uuidPattern},
			"draft_event_id": map[string]any{"type": "string", "pattern": uuidPattern},
		},
		"required": []string{"user_id"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
