package wrapper

import (
	"context"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/result"
	"github.com/rise-and-shine/dispatch/val"
)

// Validatable is implemented by commands that validate themselves.
// Validate returns the list of problems, empty when the command is valid.
type Validatable interface {
	Validate() []string
}

type validationBehavior struct{}

// NewValidationBehavior rejects invalid commands before they reach inner
// stages.
//
// Commands implementing Validatable are checked with Validate. Other struct
// commands are checked against their `validate` tags and failures are
// reported as "field: description" entries sorted by field.
func NewValidationBehavior() command.Behavior {
	return validationBehavior{}
}

func (validationBehavior) Handle(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
	if v, ok := cmd.(Validatable); ok {
		if errs := v.Validate(); len(errs) > 0 {
			return result.Err[any](errs)
		}
		return next(ctx, cmd)
	}

	if val.IsStruct(cmd) {
		if err := val.ValidateSchema(cmd); err != nil {
			return result.Err[any](val.Messages(err))
		}
	}

	return next(ctx, cmd)
}
