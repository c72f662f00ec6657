// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Renewal pipeline error codes.
const (
	ErrCodePortfolioLoadFailed  ErrorCode = "PORTFOLIO_LOAD_FAILED"
	ErrCodeAssetNotFound        ErrorCode = "ASSET_NOT_FOUND"
	ErrCodePriorityRulesFailed  ErrorCode = "PRIORITY_RULES_FAILED"
	ErrCodeP2CScoreFailed       ErrorCode = "P2C_SCORE_FAILED"
	ErrCodeExplainFailed        ErrorCode = "EXPLAIN_FAILED"
	ErrCodeDecisionRecordFailed ErrorCode = "DECISION_RECORD_FAILED"

	ErrCodeQuoteGenerationFailed ErrorCode = "QUOTE_GENERATION_FAILED"
	ErrCodeQuoteNotFound         ErrorCode = "QUOTE_NOT_FOUND"
	ErrCodeQuoteDecisionFailed   ErrorCode = "QUOTE_DECISION_FAILED"
	ErrCodeQuoteAlreadyDecided   ErrorCode = "QUOTE_ALREADY_DECIDED"

	ErrCodeIntentParsingFailed ErrorCode = "INTENT_PARSING_FAILED"
	ErrCodeNegotiationFailed   ErrorCode = "NEGOTIATION_FAILED"
	ErrCodeLeadCreationFailed  ErrorCode = "LEAD_CREATION_FAILED"

	ErrCodeSnapshotFailed         ErrorCode = "SNAPSHOT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeLLMTimeout ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMFailed  ErrorCode = "LLM_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule    ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_FAILED"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ConvertToBPMNError maps a StandardError onto the BPMN error surface.
func ConvertToBPMNError(err *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(err.Code),
		Message:   err.Message,
		Details:   err.Details,
		Retryable: err.Retryable,
		Retries:   GetRetryCount(err.Code),
	}
}

// GetRetryCount returns how many engine retries a code deserves.
// Transient infrastructure failures retry; rule and validation failures
// surface to the process immediately.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeQueryTimeout,
		ErrCodeSearchQueryFailed,
		ErrCodeSearchTimeout,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService,
		ErrCodeTimeout:
		return 3
	case ErrCodeLLMTimeout, ErrCodeLLMFailed, ErrCodeLeadCreationFailed:
		return 1
	default:
		return 0
	}
}

// CodeOf extracts the ErrorCode from an error, defaulting to INTERNAL_ERROR
// for untyped errors.
func CodeOf(err error) ErrorCode {
	if se, ok := err.(*StandardError); ok {
		return se.Code
	}
	return ErrCodeInternal
}

// ==========================
// 3. Error Constructors
// ==========================

// NewPortfolioLoadFailedError creates a retryable intake error.
func NewPortfolioLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePortfolioLoadFailed,
		Message:   "Failed to load renewal portfolio",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssetNotFoundError creates a non-retryable lookup error.
func NewAssetNotFoundError(assetID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAssetNotFound,
		Message:   "Asset not found",
		Details:   fmt.Sprintf("assetId: %s", assetID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPriorityRulesFailedError creates a non-retryable rules error.
func NewPriorityRulesFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePriorityRulesFailed,
		Message:   "Priority classification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecisionRecordFailedError creates a retryable persistence error.
func NewDecisionRecordFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecisionRecordFailed,
		Message:   "Failed to record renewal decision",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuoteGenerationFailedError creates a retryable quote error.
func NewQuoteGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuoteGenerationFailed,
		Message:   "Quote generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuoteNotFoundError creates a non-retryable lookup error.
func NewQuoteNotFoundError(quoteID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuoteNotFound,
		Message:   "Quote not found",
		Details:   fmt.Sprintf("quoteId: %s", quoteID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuoteAlreadyDecidedError flags a second decision on a settled quote.
func NewQuoteAlreadyDecidedError(quoteID, status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuoteAlreadyDecided,
		Message:   "Quote has already been decided",
		Details:   fmt.Sprintf("quoteId: %s, status: %s", quoteID, status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentParsingFailedError creates a non-retryable intent error.
func NewIntentParsingFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentParsingFailed,
		Message:   "Rejection intent classification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNegotiationFailedError creates a non-retryable negotiation error.
func NewNegotiationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNegotiationFailed,
		Message:   "Negotiation agent failed to propose an action",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadCreationFailedError creates a retryable CRM error.
func NewLeadCreationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadCreationFailed,
		Message:   "CRM lead creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotFailedError creates a retryable insights error.
func NewSnapshotFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotFailed,
		Message:   "Portfolio snapshot aggregation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable GenAI timeout error.
func NewLLMTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "GenAI request timed out",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMFailedError creates a retryable GenAI error.
func NewLLMFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMFailed,
		Message:   "GenAI request failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a retryable external service error.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service error: %s", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Operation timed out: %s", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable not-found error.
func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("Resource not found: %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBusinessRuleError creates a non-retryable business rule error.
func NewBusinessRuleError(details, rule string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusinessRule,
		Message:   rule,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable authentication error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthentication,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
