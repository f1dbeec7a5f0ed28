package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/conscious-backend/internal/domain"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeInvalidIdentity, domain.CodeValidation, domain.CodePreconditionFailed:
		return http.StatusBadRequest
	case domain.CodeEmbeddingCountMismatch, domain.CodeDimensionMismatch, domain.CodeUpstream:
		return http.StatusBadGateway
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// From converts err into an *Error. An *Error passes through; coded domain
// errors keep their code and message; anything else is an internal error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var de *domain.Error
	if errors.As(err, &de) {
		status := StatusFor(de.Code)
		if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
			return New(status, string(de.Code), errors.New("internal error"))
		}
		return New(status, string(de.Code), errors.New(domain.MessageOf(err)))
	}
	return New(http.StatusInternalServerError, "internal", errors.New("internal error"))
}
