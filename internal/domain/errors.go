package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInitialization = "INITIALIZATION_ERROR"
	ErrCodeCompletion     = "COMPLETION_ERROR"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyMessage  = NewDomainError(ErrCodeValidation, "message is required")
	ErrEmptyQuestion = NewDomainError(ErrCodeValidation, "question cannot be empty")
)

// Initialization errors. Any of these at startup aborts the process; during a
// reload they fail the reload and leave the prior index serving.
var (
	ErrNoDocumentsFound   = NewDomainError(ErrCodeInitialization, "no documents found in knowledge base")
	ErrModelUnavailable   = NewDomainError(ErrCodeInitialization, "requested model is not available on the completion backend")
	ErrBackendUnreachable = NewDomainError(ErrCodeInitialization, "completion backend is unreachable")
)

// Completion errors are absorbed at the answer-engine boundary and replaced
// with a fallback answer; they never abort a request.
var (
	ErrCompletionFailed = NewDomainError(ErrCodeCompletion, "completion backend call failed")
)
