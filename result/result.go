// Package result provides the outcome type returned by command handlers.
//
// A Result is either Ok, carrying a success value, or Err, carrying a list of
// human-readable error messages. Command failures are reported through Err
// instead of being returned as Go errors, so callers can always inspect them
// with IsErr and GetErrors.
package result

import (
	"fmt"
)

// Result is a two-variant outcome: Ok(value) or Err(errors).
// The zero value is Ok with the zero value of T.
type Result[T any] struct {
	value  T
	errs   []string
	cause  error
	failed bool
}

// Ok wraps a success value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a list of error messages.
func Err[T any](errs []string) Result[T] {
	if errs == nil {
		errs = []string{}
	}
	return Result[T]{errs: errs, failed: true}
}

// ErrMessage is a shorthand for Err([]string{msg}).
func ErrMessage[T any](msg string) Result[T] {
	return Err[T]([]string{msg})
}

// FromError builds an Err from a Go error. The message becomes the single
// error entry and the error itself is kept as the cause.
func FromError[T any](err error) Result[T] {
	if err == nil {
		return ErrMessage[T]("unknown error")
	}
	r := ErrMessage[T](err.Error())
	r.cause = err
	return r
}

// IsOk reports whether the result holds a success value.
func (r Result[T]) IsOk() bool {
	return !r.failed
}

// IsErr reports whether the result holds errors.
func (r Result[T]) IsErr() bool {
	return r.failed
}

// UnwrapOr returns the success value, or def if the result is an Err.
func (r Result[T]) UnwrapOr(def T) T {
	if r.failed {
		return def
	}
	return r.value
}

// Unwrap returns the success value. On Err it returns an *UnwrapError
// whose message is the error list joined with ", ".
func (r Result[T]) Unwrap() (T, error) {
	if r.failed {
		var zero T
		return zero, newUnwrapError(r.errs, r.cause)
	}
	return r.value, nil
}

// MustUnwrap is like Unwrap but panics with the *UnwrapError on Err.
func (r Result[T]) MustUnwrap() T {
	v, err := r.Unwrap()
	if err != nil {
		panic(err)
	}
	return v
}

// GetErrors returns the error list of an Err and nil for Ok.
func (r Result[T]) GetErrors() []string {
	if !r.failed {
		return nil
	}
	return r.errs
}

// Cause returns the Go error the result was built from by FromError, if any.
func (r Result[T]) Cause() error {
	return r.cause
}

// Any erases the success type.
func (r Result[T]) Any() Result[any] {
	return Result[any]{value: r.value, errs: r.errs, cause: r.cause, failed: r.failed}
}

// String implements fmt.Stringer.
func (r Result[T]) String() string {
	if r.failed {
		return fmt.Sprintf("Err(%v)", r.errs)
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}

// IsOk reports whether r holds a success value.
func IsOk[T any](r Result[T]) bool {
	return r.IsOk()
}

// IsErr reports whether r holds errors.
func IsErr[T any](r Result[T]) bool {
	return r.IsErr()
}

// Map applies fn to the success value. An Err is passed through unchanged
// and fn is not called.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.failed {
		return Result[U]{errs: r.errs, cause: r.cause, failed: true}
	}
	return Ok(fn(r.value))
}

// As restores the success type of an erased result. A nil success value
// becomes the zero value of T; any other value of a different type turns
// the result into an Err.
func As[T any](r Result[any]) Result[T] {
	if r.failed {
		return Result[T]{errs: r.errs, cause: r.cause, failed: true}
	}
	if r.value == nil {
		var zero T
		return Ok(zero)
	}
	v, ok := r.value.(T)
	if !ok {
		var zero T
		return ErrMessage[T](fmt.Sprintf("unexpected result type %T, want %T", r.value, zero))
	}
	return Ok(v)
}
