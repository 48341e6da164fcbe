package domain

import (
	"errors"
	"strings"
)

type ErrorCode string

const (
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeAlreadyRunning     ErrorCode = "ALREADY_RUNNING"
	CodeCanceled           ErrorCode = "CANCELED"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeUpstreamAuth       ErrorCode = "GODADDY_AUTH"
	CodeUpstreamRate       ErrorCode = "GODADDY_RATE_LIMIT"
	CodeUpstreamAPI        ErrorCode = "GODADDY_API"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
	CodeNameGenUnavailable ErrorCode = "NAMEGEN_UNAVAILABLE"
)

// Error carries a taxonomy code next to the human readable message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so errors.Is(err, ErrCanceled) holds for any CANCELED error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewError(code ErrorCode, msg string) *Error { return &Error{Code: code, Message: msg} }

func WrapError(code ErrorCode, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

var (
	ErrCanceled       = NewError(CodeCanceled, "job canceled")
	ErrAlreadyRunning = NewError(CodeAlreadyRunning, "a search job is already running")
	ErrNotFound       = NewError(CodeNotFound, "not found")
)

// CodeOf extracts the taxonomy code of err. Unknown errors are INTERNAL_ERROR,
// except messages that mention cancellation.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if strings.Contains(strings.ToLower(err.Error()), "cancel") {
		return CodeCanceled
	}
	return CodeInternal
}

// IsUpstream reports whether the code belongs to a collaborator failure that
// should trigger a fallback instead of failing the job.
func (c ErrorCode) IsUpstream() bool {
	switch c {
	case CodeUpstreamAuth, CodeUpstreamRate, CodeUpstreamAPI, CodeNameGenUnavailable:
		return true
	}
	return false
}
