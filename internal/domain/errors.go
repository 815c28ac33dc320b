package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeValidation   ErrCode = "validation_error"
	CodeNotFound     ErrCode = "not_found"
	CodeUnauthorized ErrCode = "unauthorized"
	CodeForbidden    ErrCode = "forbidden"
	CodeUpstream     ErrCode = "upstream_unavailable"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func (e *AppError) Unwrap() error { return e.Err }

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrNotFound(msg string) error     { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrUnauthorized(msg string) error { return &AppError{Code: CodeUnauthorized, Message: msg} }
func ErrForbidden(msg string) error    { return &AppError{Code: CodeForbidden, Message: msg} }

// ErrUpstream marks a gateway or cache backend that could not be reached.
func ErrUpstream(msg string, cause error) error {
	return &AppError{Code: CodeUpstream, Message: msg, Err: cause}
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrCode) bool {
	ae, ok := AsAppError(err)
	return ok && ae.Code == code
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
