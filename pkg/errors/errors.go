package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error code for categorization
type ErrorCode string

// Error codes for different categories
const (
	// Input errors, raised before any mutation of the credentials file
	CodeEmptyProfileName  ErrorCode = "EMPTY_PROFILE_NAME"
	CodeMissingCredential ErrorCode = "EMPTY_OR_MISSING_CREDENTIALS"
	CodeInvalidSchema     ErrorCode = "INVALID_SCHEMA"
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"

	// Credentials store errors
	CodeStoreNotFound ErrorCode = "STORE_NOT_FOUND"
	CodeStoreParse    ErrorCode = "STORE_PARSE"

	// AWS errors
	CodeConnectionFailed ErrorCode = "CONNECTION_FAILED"

	// Settings errors
	CodeSettingsInvalid ErrorCode = "SETTINGS_INVALID"

	// Internal errors
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeFileOperation ErrorCode = "FILE_OPERATION"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryStore      ErrorCategory = "store"
	CategoryAWS        ErrorCategory = "aws"
	CategoryConfig     ErrorCategory = "config"
	CategoryInternal   ErrorCategory = "internal"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// SwitchError represents a structured error in awsswitch
type SwitchError struct {
	Code       ErrorCode     `json:"code"`
	Category   ErrorCategory `json:"category"`
	Severity   Severity      `json:"severity"`
	Message    string        `json:"message"`
	Details    any           `json:"details,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Wrapped    error         `json:"-"`
}

// Error implements the error interface
func (e *SwitchError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

// Unwrap implements the error unwrapping interface
func (e *SwitchError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a SwitchError with the same code
func (e *SwitchError) Is(target error) bool {
	t, ok := target.(*SwitchError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewSwitchError creates a new structured error
func NewSwitchError(code ErrorCode, category ErrorCategory, severity Severity, message string) *SwitchError {
	return &SwitchError{
		Code:     code,
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// WithDetails adds details to the error
func (e *SwitchError) WithDetails(details any) *SwitchError {
	e.Details = details
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *SwitchError) WithSuggestion(suggestion string) *SwitchError {
	e.Suggestion = suggestion
	return e
}

// WithWrapped adds a wrapped error
func (e *SwitchError) WithWrapped(err error) *SwitchError {
	e.Wrapped = err
	return e
}

// Sentinels usable as errors.Is targets; only the code is compared.
var (
	ErrEmptyProfileName  = &SwitchError{Code: CodeEmptyProfileName}
	ErrMissingCredential = &SwitchError{Code: CodeMissingCredential}
	ErrInvalidSchema     = &SwitchError{Code: CodeInvalidSchema}
	ErrStoreNotFound     = &SwitchError{Code: CodeStoreNotFound}
	ErrStoreParse        = &SwitchError{Code: CodeStoreParse}
	ErrFileOperation     = &SwitchError{Code: CodeFileOperation}
	ErrConnectionFailed  = &SwitchError{Code: CodeConnectionFailed}
)

// Validation error constructors
func NewValidationError(code ErrorCode, message string) *SwitchError {
	return NewSwitchError(code, CategoryValidation, SeverityError, message)
}

func NewEmptyProfileNameError() *SwitchError {
	return NewValidationError(CodeEmptyProfileName, "Profile name cannot be omitted nor only contain white spaces").
		WithSuggestion("Pick a profile from 'awsswitch list'")
}

func NewMissingCredentialError(profile string) *SwitchError {
	return NewValidationError(CodeMissingCredential, fmt.Sprintf("Credentials for profile '%s' are missing or empty", profile)).
		WithDetails(map[string]any{
			"profile": profile,
		}).
		WithSuggestion("Check that the profile exists in your credentials file and has key material")
}

func NewInvalidSchemaError(profile string, fields []string) *SwitchError {
	return NewValidationError(CodeInvalidSchema, fmt.Sprintf("Credentials schema of profile '%s' is invalid", profile)).
		WithDetails(map[string]any{
			"profile": profile,
			"fields":  fields,
		}).
		WithSuggestion("A profile needs aws_access_key_id, aws_secret_access_key and either region or aws_session_token")
}

func NewInvalidInputError(field string, value any) *SwitchError {
	return NewValidationError(CodeInvalidInput, fmt.Sprintf("Invalid input for field '%s'", field)).
		WithDetails(map[string]any{
			"field": field,
			"value": value,
		}).
		WithSuggestion("Please check the input format and try again")
}

// Store error constructors
func newStoreError(code ErrorCode, message string) *SwitchError {
	return NewSwitchError(code, CategoryStore, SeverityError, message)
}

func NewStoreNotFoundError(path string, err error) *SwitchError {
	return newStoreError(CodeStoreNotFound, fmt.Sprintf("Credentials file '%s' does not exist", path)).
		WithWrapped(err).
		WithDetails(map[string]any{
			"path": path,
		}).
		WithSuggestion("Create it with 'aws configure' or pass --credentials-file")
}

func NewStoreParseError(path string, err error) *SwitchError {
	return newStoreError(CodeStoreParse, fmt.Sprintf("Credentials file '%s' is not valid", path)).
		WithWrapped(err).
		WithDetails(map[string]any{
			"path": path,
		}).
		WithSuggestion("Fix the INI syntax of the credentials file")
}

// AWS error constructors
func NewConnectionError(profile string, err error) *SwitchError {
	return NewSwitchError(CodeConnectionFailed, CategoryAWS, SeverityWarning, fmt.Sprintf("AWS rejected the credentials of profile '%s'", profile)).
		WithWrapped(err).
		WithDetails(map[string]any{
			"profile": profile,
		}).
		WithSuggestion("Check your AWS access key, secret key, and session token")
}

// Config error constructors
func NewSettingsError(path string, err error) *SwitchError {
	return NewSwitchError(CodeSettingsInvalid, CategoryConfig, SeverityError, fmt.Sprintf("Settings file '%s' is not valid", path)).
		WithWrapped(err).
		WithDetails(map[string]any{
			"path": path,
		})
}

// Internal error constructors
func NewInternalError(code ErrorCode, message string) *SwitchError {
	return NewSwitchError(code, CategoryInternal, SeverityCritical, message)
}

func NewFileOperationError(operation, path string, err error) *SwitchError {
	return NewInternalError(CodeFileOperation, fmt.Sprintf("File %s failed for %s", operation, path)).
		WithWrapped(err).
		WithDetails(map[string]any{
			"operation": operation,
			"path":      path,
		})
}

// IsUserError determines if an error is caused by user input
func IsUserError(err error) bool {
	var swErr *SwitchError
	if errors.As(err, &swErr) {
		return swErr.Category == CategoryValidation || swErr.Category == CategoryConfig
	}
	return false
}

// IsStoreError determines if an error comes from reading the credentials file
func IsStoreError(err error) bool {
	var swErr *SwitchError
	if errors.As(err, &swErr) {
		return swErr.Category == CategoryStore
	}
	return false
}

// GetSeverity returns the severity of an error
func GetSeverity(err error) Severity {
	var swErr *SwitchError
	if errors.As(err, &swErr) {
		return swErr.Severity
	}
	return SeverityError
}

// GetCode returns the code of an error, or CodeInternalError for unknown errors
func GetCode(err error) ErrorCode {
	var swErr *SwitchError
	if errors.As(err, &swErr) {
		return swErr.Code
	}
	return CodeInternalError
}

// GetSuggestion returns the suggestion attached to an error, if any
func GetSuggestion(err error) string {
	var swErr *SwitchError
	if errors.As(err, &swErr) {
		return swErr.Suggestion
	}
	return ""
}
