package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies failures raised by the ingestion and review paths.
type ErrorCode string

const (
	CodeInvalidIdentity        ErrorCode = "invalid_identity"
	CodeEmbeddingCountMismatch ErrorCode = "embedding_count_mismatch"
	CodeDimensionMismatch      ErrorCode = "dimension_mismatch"
	CodeNotFound               ErrorCode = "not_found"
	CodePreconditionFailed     ErrorCode = "precondition_failed"
	CodeValidation             ErrorCode = "validation"
	CodeConflict               ErrorCode = "conflict"
	CodeStorage                ErrorCode = "storage"
	CodeUpstream               ErrorCode = "upstream"
)

// Error is the canonical error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Errorf is NewError with a formatted message and no cause.
func Errorf(code ErrorCode, op, format string, args ...interface{}) error {
	return NewError(code, op, fmt.Sprintf(format, args...), nil)
}

// Wrap annotates err with a code. An err that already carries a code keeps it.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or a wrapped err) carries code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the error code when available.
func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// MessageOf returns the human message of a coded error, or err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return err.Error()
}
