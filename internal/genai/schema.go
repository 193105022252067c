package genai

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// JSON schemas for the payloads providers return. Validation happens before
// decoding so a malformed payload surfaces as a generation failure, not a
// half-populated struct.

const analysisSchema = `{
	"type": "object",
	"required": ["key_topics", "difficulty", "estimated_read_minutes", "learning_objectives"],
	"properties": {
		"key_topics": {"type": "array", "items": {"type": "string"}},
		"difficulty": {"type": "integer", "minimum": 1, "maximum": 10},
		"estimated_read_minutes": {"type": "integer", "minimum": 0},
		"learning_objectives": {"type": "array", "items": {"type": "string"}},
		"prerequisites": {"type": "array", "items": {"type": "string"}},
		"suggested_module_titles": {"type": "array", "items": {"type": "string"}}
	}
}`

const modulesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"duration_minutes": {"type": "integer", "minimum": 0},
			"difficulty": {"type": "string"},
			"learning_objectives": {"type": "array", "items": {"type": "string"}}
		}
	}
}`

const questionsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["text"],
		"properties": {
			"kind": {"type": "string"},
			"text": {"type": "string", "minLength": 1},
			"options": {"type": "array", "items": {"type": "string"}},
			"explanation": {"type": "string"},
			"points": {"type": "integer", "minimum": 0}
		}
	}
}`

// validateJSON checks a raw payload against a schema and returns a single
// error summarizing all violations.
func validateJSON(schema, payload string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	if !result.Valid() {
		msg := ""
		for _, desc := range result.Errors() {
			if msg != "" {
				msg += "; "
			}
			msg += desc.String()
		}
		return fmt.Errorf("payload failed schema validation: %s", msg)
	}
	return nil
}
