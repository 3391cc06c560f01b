package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Stable error codes the frontend branches on.
const (
	CodeNoFile          = "NO_FILE"
	CodeUnsupportedType = "UNSUPPORTED_FILE_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeConversion      = "CONVERSION_FAILED"
	CodeProcessing      = "PROCESSING_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeConfig          = "CONFIG_ERROR"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConversion   = errors.New("pdf conversion failed")
	ErrRecognition  = errors.New("ocr recognition failed")
	ErrInternal     = errors.New("internal error")
)

// NewAppError builds an AppError with a stable code.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps a stable code to the HTTP status it is served with.
func HTTPStatus(code string) int {
	switch code {
	case CodeNoFile, CodeUnsupportedType, CodeFileTooLarge, CodeConversion:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
