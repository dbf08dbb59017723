package core

import (
	"errors"
	"fmt"
)

type Unit struct{}

type ErrorCode string

const (
	CodeInvalidRequest ErrorCode = "invalid_request"
	CodeNotFound       ErrorCode = "not_found"
	CodeUnavailable    ErrorCode = "unavailable"
	CodeInternal       ErrorCode = "internal"
)

type CommandError struct {
	Payload interface{}
	Code    ErrorCode
	Reason  *string
}

type CommandErrorOption func(*CommandError)

func WithReason(reason string) CommandErrorOption {
	return func(e *CommandError) {
		e.Reason = &reason
	}
}

func NewCommandError(code ErrorCode, payload interface{}, opts ...CommandErrorOption) CommandError {
	e := CommandError{
		Code:    code,
		Payload: payload,
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

// CommandErrorFrom classifies err by the sentinel it wraps.
func CommandErrorFrom(err error, opts ...CommandErrorOption) CommandError {
	var commandErr CommandError
	if errors.As(err, &commandErr) {
		return commandErr
	}

	code := CodeInternal
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrReferenceNotFound), errors.Is(err, ErrInvalidConfig):
		code = CodeInvalidRequest
	case errors.Is(err, ErrProductNotFound):
		code = CodeNotFound
	case errors.Is(err, ErrConnectivity):
		code = CodeUnavailable
	}

	return NewCommandError(code, err, opts...)
}

func (r CommandError) Error() string {
	var values struct {
		Payload interface{}
		Code    ErrorCode
		Reason  string
	}

	values.Payload = r.Payload
	values.Code = r.Code

	if r.Reason != nil {
		values.Reason = *r.Reason
	}

	return fmt.Sprintf("%+v", values)
}

func (r CommandError) Unwrap() error {
	if err, ok := r.Payload.(error); ok {
		return err
	}
	return nil
}
