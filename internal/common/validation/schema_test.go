package validation

import (
	"testing"

	apperrors "expense-approvals/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"title":    {"type": "string", "minLength": 1},
		"platform": {"type": "string", "enum": ["web", "android", "ios"]}
	},
	"required": ["title"]
}`

func TestValidate(t *testing.T) {
	schema := MustCompile(testSchema)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantValid bool
		wantField string
		wantCode  string
	}{
		{name: "valid", doc: map[string]interface{}{"title": "Taxi", "platform": "ios"}, wantValid: true},
		{name: "missing title", doc: map[string]interface{}{}, wantField: "title", wantCode: "REQUIRED"},
		{name: "empty title", doc: map[string]interface{}{"title": ""}, wantField: "title", wantCode: "STRING_GTE"},
		{name: "bad platform", doc: map[string]interface{}{"title": "x", "platform": "blackberry"}, wantField: "platform", wantCode: "ENUM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(tt.doc)
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantValid {
				assert.NoError(t, result.Err())
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.wantField, result.Errors[0].Field)
			assert.Equal(t, tt.wantCode, result.Errors[0].Code)
			assert.True(t, apperrors.Is(result.Err(), apperrors.ErrCodeValidation))
		})
	}
}

func TestValidate_StructDocument(t *testing.T) {
	type input struct {
		Title string `json:"title"`
	}
	assert.NoError(t, MustCompile(testSchema).Check(input{Title: "Hotel"}))
	assert.Error(t, MustCompile(testSchema).Check(input{}))
}

func TestCompile_RejectsMalformedSchema(t *testing.T) {
	_, err := Compile(`{"type": `)
	assert.Error(t, err)
}
