// Package cqrs provides Command Query Responsibility Segregation (CQRS) dispatching.
//
// Commands (state-changing intents) and queries (read intents) are routed by
// their identifier to exactly one registered handler. Each bus wraps handler
// execution in an ordered chain of behaviors for cross-cutting concerns such
// as logging, validation, transactions and caching.
//
// Subpackages:
//   - command: the command bus; failures are reported as result.Result values
//   - query: the query bus; failures are returned as Go errors
//   - command/wrapper, query/wrapper: built-in behaviors
package cqrs

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/code19m/errx"
)

// CodeHandlerNotFound is the errx code used when no handler is registered
// for a dispatched identifier.
const CodeHandlerNotFound = "HANDLER_NOT_FOUND"

// Kind tells commands and queries apart.
type Kind int

const (
	KindCommand Kind = iota + 1
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// suffix is the type name suffix of a command or query ("Command", "Query").
func (k Kind) suffix() string {
	switch k {
	case KindCommand:
		return "Command"
	case KindQuery:
		return "Query"
	default:
		return ""
	}
}

// HandlerNotFoundError reports a dispatch to an identifier nobody handles.
type HandlerNotFoundError struct {
	Kind       Kind
	Identifier string
}

// NewHandlerNotFoundError returns a *HandlerNotFoundError.
func NewHandlerNotFoundError(kind Kind, identifier string) *HandlerNotFoundError {
	return &HandlerNotFoundError{Kind: kind, Identifier: identifier}
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("No handler registered for %s: %s", e.Kind, e.Identifier)
}

// ErrorX converts the error into an errx error of not-found type carrying
// CodeHandlerNotFound, for transports that map errx types to status codes.
func (e *HandlerNotFoundError) ErrorX() error {
	return errx.New(
		e.Error(),
		errx.WithCode(CodeHandlerNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"kind": e.Kind.String(), "identifier": e.Identifier}),
	)
}

// IsHandlerTypeName reports whether typeName follows the handler naming
// convention of the given kind, e.g. "CreateUserCommandHandler".
func IsHandlerTypeName(kind Kind, typeName string) bool {
	suffix := kind.suffix() + "Handler"
	return len(typeName) > len(suffix) && strings.HasSuffix(typeName, suffix)
}

// IdentifierFor derives the dispatch identifier from a handler type name:
// the "Handler" suffix is removed and the kind suffix is appended unless
// already present.
//
//	IdentifierFor(KindCommand, "CreateUserCommandHandler") == "CreateUserCommand"
//	IdentifierFor(KindQuery, "GetUserHandler") == "GetUserQuery"
func IdentifierFor(kind Kind, handlerTypeName string) string {
	name := strings.TrimPrefix(handlerTypeName, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "Handler")
	if strings.HasSuffix(name, kind.suffix()) {
		return name
	}
	return name + kind.suffix()
}

// IsNil reports whether v is nil or an interface holding a nil pointer, map,
// slice, func or channel.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // other kinds cannot be nil
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
