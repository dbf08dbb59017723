package core

import (
	"context"
	"strings"

	"github.com/eskrenkovic/mediator-go"
)

type Validator interface {
	Validate() error
}

type ValidationError struct {
	ValidationErrors []error
}

func (e ValidationError) Error() string {
	var b strings.Builder
	for _, err := range e.ValidationErrors {
		b.WriteString(" '")
		b.WriteString(err.Error())
		b.WriteString("'")
	}
	return b.String()
}

func (e ValidationError) Unwrap() error {
	return ErrValidation
}

// Append collects err when it is not nil.
func (e *ValidationError) Append(err error) {
	if err != nil {
		e.ValidationErrors = append(e.ValidationErrors, err)
	}
}

// OrNil returns nil when nothing was collected.
func (e ValidationError) OrNil() error {
	if len(e.ValidationErrors) == 0 {
		return nil
	}
	return e
}

var _ mediator.PipelineBehavior = (*RequestValidationBehavior)(nil)

type RequestValidationBehavior struct{}

func (b *RequestValidationBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	if request, ok := request.(Validator); ok {
		if err := request.Validate(); err != nil {
			return nil, NewCommandError(CodeInvalidRequest, err, WithReason("request validation failed"))
		}
	}

	return next(ctx, request)
}
