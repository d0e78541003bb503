package validation

import (
	"fmt"
	"strings"

	apperrors "expense-approvals/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema reused across requests.
type Schema struct {
	compiled *gojsonschema.Schema
}

// Compile parses a JSON schema document.
func Compile(schemaJSON string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// MustCompile is Compile for package-level schema literals.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks doc, which may be a struct with json tags or a map.
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "UNREADABLE_DOCUMENT"}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// Check validates doc and converts failures into a VALIDATION_ERROR.
func (s *Schema) Check(doc interface{}) error {
	return s.Validate(doc).Err()
}

// Err returns nil for a valid result.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return apperrors.NewValidationError(r.Summary()).WithMetadata("fields", r.Fields())
}

// Summary joins every failure as "field: message".
func (r *ValidationResult) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

func (r *ValidationResult) Fields() []string {
	fields := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		fields[i] = e.Field
	}
	return fields
}
