package service

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NotFound"
	CodeValidation       ErrorCode = "ValidationError"
	CodeConflict         ErrorCode = "Conflict"
	CodeInternal         ErrorCode = "InternalError"
	CodeUnauthorized     ErrorCode = "Unauthorized"
	CodeForbidden        ErrorCode = "Forbidden"
	CodeConcurrencyError ErrorCode = "ConcurrencyError"
)

// BusinessError is the failure branch of every TaskService operation.
type BusinessError struct {
	Code    ErrorCode
	Message string
	Fields  map[string][]string
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

// AsBusinessError extracts the typed failure from err, if any.
func AsBusinessError(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

func CodeOf(err error) ErrorCode {
	if busErr, ok := AsBusinessError(err); ok {
		return busErr.Code
	}
	if err != nil {
		return CodeInternal
	}
	return ""
}

func NewBusinessError(code ErrorCode, message string) *BusinessError {
	return &BusinessError{Code: code, Message: message}
}

func NewNotFound(resource string, id int64) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id '%d' was not found", resource, id),
	}
}

func NewValidationError(message string, fields map[string][]string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
	}
}

func NewConcurrencyError(err error) *BusinessError {
	return &BusinessError{
		Code:    CodeConcurrencyError,
		Message: "the task was modified by another user; reload it and try again",
		Err:     err,
	}
}

func NewInternal(message string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeInternal,
		Message: message,
		Err:     err,
	}
}
