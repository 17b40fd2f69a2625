// Package apperr provides coded application errors shared across the snip
// packages. The server maps codes onto JSON-RPC error payloads.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeExtraction      = "EXTRACTION_FAILED"
	CodeOCRFailed       = "OCR_FAILED"
	CodeOCRTimeout      = "OCR_TIMEOUT"
	CodePersistence     = "PERSISTENCE_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInternal        = "INTERNAL_ERROR"
	CodeUnknown         = "UNKNOWN"
	CodeWorkbookMissing = "WORKBOOK_NOT_OPEN"
)

// AppError is an error carrying a stable code next to its message.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with additional context, keeping the code of an inner AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Code: appErr.Code, Message: message, Cause: err}
	}
	return &AppError{Code: CodeInternal, Message: message, Cause: err}
}

// Wrapf wraps err with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode re-codes err.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Code: code, Message: appErr.Message, Cause: appErr.Cause}
	}
	return &AppError{Code: code, Message: err.Error(), Cause: err}
}

// GetCode returns the code of the outermost AppError in err's chain, or
// CodeUnknown.
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries code.
func HasCode(err error, code string) bool {
	return err != nil && GetCode(err) == code
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}
