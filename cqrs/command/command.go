// Package command defines the command side of the CQRS bus.
//
// Commands represent intents that change state. Each command is routed by
// its CommandName to exactly one handler. Handlers and behaviors report
// failures as result.Err values; the bus never lets a handler panic escape
// Execute.
package command

import (
	"context"

	"github.com/rise-and-shine/dispatch/result"
)

// Command is the marker every command must implement.
//
// CommandName returns the stable identifier the command is dispatched by,
// conventionally the type name, e.g. "CreateUserCommand".
type Command interface {
	CommandName() string
}

// Handler handles one command type and returns its outcome as a Result.
type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) result.Result[R]
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) result.Result[R]

// Handle calls f(ctx, cmd).
func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) result.Result[R] {
	return f(ctx, cmd)
}

// AnyHandler is the type-erased handler form stored by the Bus.
type AnyHandler = Handler[Command, any]

// Next continues the behavior chain.
type Next func(ctx context.Context, cmd Command) result.Result[any]

// Behavior is a middleware unit of the command pipeline.
//
// A behavior continues the chain by calling next and may short-circuit by
// returning its own Result without calling it.
type Behavior interface {
	Handle(ctx context.Context, cmd Command, next Next) result.Result[any]
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(ctx context.Context, cmd Command, next Next) result.Result[any]

// Handle calls f(ctx, cmd, next).
func (f BehaviorFunc) Handle(ctx context.Context, cmd Command, next Next) result.Result[any] {
	return f(ctx, cmd, next)
}
