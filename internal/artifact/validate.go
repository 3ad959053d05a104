package artifact

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Registry maps artifact types to compiled JSON Schemas.
//
// Types without a registered schema bypass validation and are stored as
// opaque payloads. This keeps the type set extensible without touching core
// logic; new schemas are added with Register.
type Registry struct {
	schemas map[Type]*gojsonschema.Schema
}

// Content schemas for the built-in artifact types.
const (
	documentSchema = `{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"body":  {"type": "string"}
		}
	}`

	slidesOutlineSchema = `{
		"type": "object",
		"required": ["title", "slides"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"slides": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["heading"],
					"properties": {
						"heading": {"type": "string", "minLength": 1},
						"bullets": {"type": "array", "items": {"type": "string"}}
					}
				}
			}
		}
	}`

	codeSchema = `{
		"type": "object",
		"required": ["language", "source"],
		"properties": {
			"language": {"type": "string", "minLength": 1},
			"source":   {"type": "string"}
		}
	}`
)

// NewRegistry returns a Registry with the built-in type schemas compiled.
func NewRegistry() (*Registry, error) {
	r := &Registry{schemas: make(map[Type]*gojsonschema.Schema)}
	for t, raw := range map[Type]string{
		TypeDocument:      documentSchema,
		TypeSlidesOutline: slidesOutlineSchema,
		TypeCode:          codeSchema,
	} {
		if err := r.Register(t, raw); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register compiles schemaJSON and associates it with t, replacing any
// existing schema for that type.
func (r *Registry) Register(t Type, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("compiling schema for type %q: %w", t, err)
	}
	r.schemas[t] = schema
	return nil
}

// Validate checks content against the schema registered for t.
// Returns nil for unregistered types (opaque payloads) and an error wrapping
// ErrValidation when the payload does not satisfy the schema. Empty content
// is rejected for every type, registered or not — the column is NOT NULL and
// an empty payload must fail as invalid input, not as a storage error.
func (r *Registry) Validate(t Type, content json.RawMessage) error {
	if len(content) == 0 {
		return fmt.Errorf("%w: empty content for type %q", ErrValidation, t)
	}
	schema, ok := r.schemas[t]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(content))
	if err != nil {
		// Malformed JSON is a validation failure, not a store failure.
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: type %q: %s", ErrValidation, t, strings.Join(details, "; "))
	}
	return nil
}
