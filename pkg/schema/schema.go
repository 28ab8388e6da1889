// Package schema validates imported activity template documents against a JSON
// Schema before they are decoded.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/dukex/flowbuilder/pkg/models"
)

// ErrInvalidDocument is returned when a document does not match the template schema.
var ErrInvalidDocument = errors.New("invalid template document")

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}

func enum[T ~string](values []T) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}

	return out
}

func iconNames(c models.IconCapability) []any {
	icons := models.Icons(c)

	out := make([]any, 0, len(icons)+1)
	out = append(out, "")

	for _, icon := range icons {
		out = append(out, string(icon.Name))
	}

	return out
}

// TemplateSchema returns the JSON Schema of one activity template. Element types
// and icons are closed to the registered values.
func TemplateSchema() map[string]any {
	option := map[string]any{
		"type":     "object",
		"required": []any{"value"},
		"properties": map[string]any{
			"label": map[string]any{"type": "string"},
			"value": map[string]any{"type": "string"},
		},
	}

	element := map[string]any{
		"type":     "object",
		"required": []any{"id", "type"},
		"properties": map[string]any{
			"id":           map[string]any{"type": "string", "minLength": 1},
			"type":         map[string]any{"enum": enum(models.ElementTypes)},
			"label":        map[string]any{"type": "string"},
			"required":     map[string]any{"type": "boolean"},
			"placeholder":  map[string]any{"type": "string"},
			"tab":          map[string]any{"enum": []any{"", "Configuration", "Advanced", "User Interface"}},
			"halfSize":     map[string]any{"type": "boolean"},
			"options":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"multiselect":  map[string]any{"type": "boolean"},
			"min":          map[string]any{"type": "number"},
			"max":          map[string]any{"type": "number"},
			"step":         map[string]any{"type": "number", "exclusiveMinimum": 0},
			"hasIcon":      map[string]any{"type": "boolean"},
			"icon":         map[string]any{"enum": iconNames(models.CapabilityButton)},
			"iconPosition": map[string]any{"enum": []any{"", "left", "right"}},
			"addsElements":            map[string]any{"type": "boolean"},
			"addNewElements":          map[string]any{"type": "boolean"},
			"addedElements":           map[string]any{"type": "array", "items": map[string]any{"$ref": "#/definitions/element"}},
			"elementReference":        map[string]any{"type": "string"},
			"text":                    map[string]any{"type": "string"},
			"propertyOptions":         map[string]any{"type": "array", "items": option},
			"operatorOptions":         map[string]any{"type": "array", "items": option},
			"hasConditionalFollowUps": map[string]any{"type": "boolean"},
			"conditionalFollowUps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"conditionValue", "elements"},
					"properties": map[string]any{
						"conditionValue": map[string]any{"type": []any{"string", "boolean"}},
						"elements":       map[string]any{"type": "array", "items": map[string]any{"$ref": "#/definitions/element"}},
					},
				},
			},
		},
	}

	return map[string]any{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"definitions": map[string]any{"element": element},
		"type":        "object",
		"required":    []any{"name", "sidePanelElements"},
		"properties": map[string]any{
			"id":                   map[string]any{"type": "string"},
			"name":                 map[string]any{"type": "string", "minLength": 1},
			"icon":                 map[string]any{"enum": iconNames(models.CapabilityTemplate)},
			"iconColor":            map[string]any{"type": "string"},
			"category":             map[string]any{"type": "string"},
			"description":          map[string]any{"type": "string"},
			"sidePanelDescription": map[string]any{"type": "string"},
			"sidePanelElements": map[string]any{
				"type":  "array",
				"items": map[string]any{"$ref": "#/definitions/element"},
			},
		},
	}
}

// Validate checks one template document against TemplateSchema.
func Validate(document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(TemplateSchema()),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return &ValidationError{Problems: problems}
	}

	return nil
}

// DecodeTemplates reads a template document or an array of them, validating each
// against the schema before decoding.
func DecodeTemplates(data []byte) ([]*models.ActivityTemplate, error) {
	var documents []json.RawMessage

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &documents); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	} else {
		documents = []json.RawMessage{data}
	}

	out := make([]*models.ActivityTemplate, 0, len(documents))

	for i, doc := range documents {
		if err := Validate(doc); err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}

		var template models.ActivityTemplate
		if err := json.Unmarshal(doc, &template); err != nil {
			return nil, fmt.Errorf("template %d: %w: %w", i, ErrInvalidDocument, err)
		}

		out = append(out, &template)
	}

	return out, nil
}
