package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for errors.Is checks across layers.
var (
	ErrPathNotFound = errors.New("path not found")
	ErrUnknownDrug  = errors.New("unknown drug")
	ErrNotFound     = errors.New("not found")
)

// Error codes surfaced to operators and API clients.
const (
	ErrCodePathNotFound   = "PATH_NOT_FOUND"
	ErrCodeUnknownDrug    = "UNKNOWN_DRUG"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeBackend        = "BACKEND_ERROR"
	ErrCodeLedger         = "LEDGER_ERROR"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// PathNotFoundError reports a path that does not resolve against the
// document. It always indicates a caller/document desync.
type PathNotFoundError struct {
	Path    string
	Segment string
	Reason  string
}

// Error implements the error interface
func (e *PathNotFoundError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("path not found: %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("path not found: %q at segment %q: %s", e.Path, e.Segment, e.Reason)
}

// Is matches ErrPathNotFound.
func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// NewPathNotFoundError creates a new PathNotFoundError
func NewPathNotFoundError(path, segment, reason string) *PathNotFoundError {
	return &PathNotFoundError{Path: path, Segment: segment, Reason: reason}
}

// UnknownDrugError reports a treatment name token with no drug in the catalog.
type UnknownDrugError struct {
	Token     string
	Treatment string
}

// Error implements the error interface
func (e *UnknownDrugError) Error() string {
	if e.Treatment == "" {
		return fmt.Sprintf("unknown drug %q", e.Token)
	}
	return fmt.Sprintf("unknown drug %q in treatment %q", e.Token, e.Treatment)
}

// Is matches ErrUnknownDrug.
func (e *UnknownDrugError) Is(target error) bool {
	return target == ErrUnknownDrug
}

// NewUnknownDrugError creates a new UnknownDrugError
func NewUnknownDrugError(token, treatment string) *UnknownDrugError {
	return &UnknownDrugError{Token: token, Treatment: treatment}
}

// SyncError is the standardized error surfaced for a failed submission.
type SyncError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewSyncError creates a new SyncError with timestamp
func NewSyncError(code, message, details, requestID string) *SyncError {
	return &SyncError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ErrorCode classifies err into one of the error codes above.
func ErrorCode(err error) string {
	var validation *ValidationError
	var syncErr *SyncError
	switch {
	case errors.Is(err, ErrPathNotFound):
		return ErrCodePathNotFound
	case errors.Is(err, ErrUnknownDrug):
		return ErrCodeUnknownDrug
	case errors.As(err, &validation):
		return ErrCodeInvalidInput
	case errors.As(err, &syncErr):
		return syncErr.Code
	default:
		return ErrCodeInternalServer
	}
}
