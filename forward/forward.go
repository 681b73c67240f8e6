// Package forward exposes command and query buses as fiber handlers.
//
// Requests are decoded from path params, query string and JSON body into a
// fresh command or query value, dispatched on the bus and written back as
// {"data": ...}. Failures are returned as errors for ErrorHandler to render.
package forward

import (
	"strings"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/cqrs/query"
	"github.com/rise-and-shine/dispatch/val"
)

// Response is the body written for successful requests.
type Response struct {
	Data any `json:"data"`
}

// ToCommand decodes a C from the request and executes it on bus. C must be
// a struct type. Err results become validation errors listing the command
// errors. Results built from an error return that error instead.
func ToCommand[C command.Command](bus *command.Bus, opts ...Option) fiber.Handler {
	o := newOptions(opts)

	return func(c *fiber.Ctx) error {
		var cmd C
		if err := decode(c, &cmd); err != nil {
			return err
		}

		res := bus.Execute(c.UserContext(), cmd)
		if res.IsErr() {
			return commandError(res.GetErrors(), res.Cause())
		}

		return c.Status(o.successStatus).JSON(Response{Data: res.UnwrapOr(nil)})
	}
}

// ToQuery decodes a Q from the request, validates its `validate` tags and
// executes it on bus. Errors are returned unchanged.
func ToQuery[Q query.Query](bus *query.Bus, opts ...Option) fiber.Handler {
	o := newOptions(opts)

	return func(c *fiber.Ctx) error {
		var q Q
		if err := decode(c, &q); err != nil {
			return err
		}

		if val.IsStruct(q) {
			if err := val.ValidateSchema(q); err != nil {
				return err
			}
		}

		v, err := bus.Execute(c.UserContext(), q)
		if err != nil {
			return err
		}

		return c.Status(o.successStatus).JSON(Response{Data: v})
	}
}

func commandError(errs []string, cause error) error {
	if cause != nil {
		switch cause.(type) {
		case errx.ErrorX, errorXConverter:
			return cause
		default:
			return errx.Wrap(cause, errx.WithDetails(errx.D{detailErrors: errs}))
		}
	}

	return errx.New(
		strings.Join(errs, "; "),
		errx.WithCode(CodeCommandRejected),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{detailErrors: errs}),
	)
}
