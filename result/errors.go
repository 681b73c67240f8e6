package result

import (
	"strings"

	"github.com/code19m/errx"
)

// CodeUnwrapOnError is the errx code reported by Unwrap on an Err result.
const CodeUnwrapOnError = "UNWRAP_ON_ERROR"

// UnwrapError is returned by Unwrap when called on an Err result.
type UnwrapError struct {
	Errors []string
	cause  error
}

func newUnwrapError(errs []string, cause error) *UnwrapError {
	return &UnwrapError{Errors: errs, cause: cause}
}

func (e *UnwrapError) Error() string {
	return strings.Join(e.Errors, ", ")
}

// Unwrap exposes the original error of a result built with FromError.
func (e *UnwrapError) Unwrap() error {
	return e.cause
}

// ErrorX converts the error into an errx error with CodeUnwrapOnError.
func (e *UnwrapError) ErrorX() error {
	return errx.New(
		e.Error(),
		errx.WithCode(CodeUnwrapOnError),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{"errors": e.Errors}),
	)
}
