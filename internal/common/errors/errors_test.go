// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewQuoteGenerationFailedError(fmt.Errorf("insert failed"))

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "QUOTE_GENERATION_FAILED", bpmnErr.Code)
	assert.Equal(t, "Quote generation failed", bpmnErr.Message)
	assert.True(t, bpmnErr.Retryable)
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		retries int
	}{
		{ErrCodeDatabaseConnectionFailed, 3},
		{ErrCodeQueryExecutionFailed, 3},
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeLLMTimeout, 1},
		{ErrCodeLLMFailed, 1},
		{ErrCodeLeadCreationFailed, 1},
		{ErrCodePriorityRulesFailed, 0},
		{ErrCodeQuoteAlreadyDecided, 0},
		{ErrCodeValidation, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.retries, GetRetryCount(tt.code))
		})
	}
}

func TestToErrorVariables(t *testing.T) {
	bpmnErr := &BPMNError{
		Code:      "NEGOTIATION_FAILED",
		Message:   "Negotiation agent failed to propose an action",
		Retryable: false,
		ErrorVariables: map[string]interface{}{
			"quoteId": "A-10001-v2",
		},
	}

	vars := bpmnErr.ToErrorVariables()

	assert.Equal(t, "NEGOTIATION_FAILED", vars["errorCode"])
	assert.Equal(t, "A-10001-v2", vars["quoteId"])
	assert.Equal(t, false, vars["retryable"])
}

func TestStandardError_Error(t *testing.T) {
	err := NewQuoteAlreadyDecidedError("A-10002-v1", "ACCEPTED")
	assert.Contains(t, err.Error(), "QUOTE_ALREADY_DECIDED")
	assert.False(t, err.Retryable)
}
