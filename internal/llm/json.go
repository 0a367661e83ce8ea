package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a completion contains no JSON object
var ErrNoJSON = errors.New("no JSON object in completion")

// DecodeJSON extracts the JSON object from a completion and unmarshals it into out.
// Markdown code fences and text around the object are ignored.
func DecodeJSON(completion string, out any) error {
	raw := strings.TrimSpace(completion)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ErrNoJSON
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), out); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}
	return nil
}

// schemaInstruction asks schema-less providers to answer with a matching object
func schemaInstruction(schema []byte) string {
	return "Respond only with a single JSON object that conforms to this JSON schema. " +
		"Do not add commentary or code fences.\n" + string(schema)
}
