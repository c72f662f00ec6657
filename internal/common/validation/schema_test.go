// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestValidateInput_RequiredFields(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"assetId":  {Type: "string"},
			"priority": {Type: "string"},
		},
		Required: []string{"assetId", "priority"},
	}

	result := ValidateInput(map[string]interface{}{"assetId": "A-10001"}, schema)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "priority", result.Errors[0].Field)
	assert.Equal(t, "REQUIRED_FIELD_MISSING", result.Errors[0].Code)
}

func TestValidateInput_TypeMismatch(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"contractValue": {Type: "number"},
		},
		AdditionalProperties: true,
	}

	result := ValidateInput(map[string]interface{}{"contractValue": "30000"}, schema)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_TYPE", result.Errors[0].Code)
}

func TestValidateInput_Enum(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"priority": {Type: "string", Enum: []string{"High", "Medium", "Low"}},
		},
	}

	valid := ValidateInput(map[string]interface{}{"priority": "High"}, schema)
	assert.True(t, valid.Valid)

	invalid := ValidateInput(map[string]interface{}{"priority": "Urgent"}, schema)
	assert.False(t, invalid.Valid)
	require.Len(t, invalid.Errors, 1)
	assert.Equal(t, "INVALID_ENUM_VALUE", invalid.Errors[0].Code)
}

func TestValidateInput_Pattern(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"quoteId": {Type: "string", Pattern: strPtr(`^A-\d+-v\d+$`)},
		},
	}

	assert.True(t, ValidateInput(map[string]interface{}{"quoteId": "A-10001-v2"}, schema).Valid)
	assert.False(t, ValidateInput(map[string]interface{}{"quoteId": "quote-1"}, schema).Valid)
}

func TestValidateInput_NumericBounds(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"probabilityToClose": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(100)},
		},
	}

	assert.True(t, ValidateInput(map[string]interface{}{"probabilityToClose": 71.5}, schema).Valid)

	result := ValidateInput(map[string]interface{}{"probabilityToClose": 120.0}, schema)
	assert.False(t, result.Valid)
	assert.Equal(t, "MAXIMUM_VIOLATION", result.Errors[0].Code)
}

func TestValidateInput_ExtraFieldRejected(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"assetId": {Type: "string"},
		},
	}

	result := ValidateInput(map[string]interface{}{"assetId": "A-10001", "unknown": true}, schema)

	assert.False(t, result.Valid)
	assert.Equal(t, "EXTRA_FIELD", result.Errors[0].Code)
}

func TestValidateInput_NestedObject(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"asset": {
				Type: "object",
				Properties: map[string]Property{
					"assetId":  {Type: "string"},
					"customer": {Type: "string"},
				},
				Required: []string{"assetId"},
			},
		},
	}

	result := ValidateInput(map[string]interface{}{
		"asset": map[string]interface{}{"customer": "ABC Corp"},
	}, schema)

	assert.False(t, result.Valid)
	fieldErrors := result.GetErrorsForField("asset")
	require.Len(t, fieldErrors, 1)
	assert.Equal(t, "asset.assetId", fieldErrors[0].Field)
}

func TestValidateActivityNaming(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"renewal.priority.classify", true},
		{"renewal.portfolio.snapshot", true},
		{"renewal.notice.send", true},
		{"classify-renewal-priority", false},
		{"renewal.classify", false},
		{"Renewal.Priority.Classify", false},
		{"renewal.priority.classify.v2", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateActivityNaming(tt.id)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ops@abc-corp.com"))
	assert.True(t, ValidateEmail("renewals@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@domain"))
}
