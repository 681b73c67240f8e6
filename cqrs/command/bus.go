package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/rise-and-shine/dispatch/cqrs"
	"github.com/rise-and-shine/dispatch/observability/logger"
	"github.com/rise-and-shine/dispatch/result"
)

// Bus routes commands to their handlers through an ordered behavior chain.
//
// Handlers and behaviors are meant to be configured at start-up. Execute is
// safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[string]AnyHandler
	behaviors []Behavior
	logger    logger.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for registration diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		b.logger = l.Named("cqrs.command.bus")
	}
}

// NewBus creates an empty command bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[string]AnyHandler),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register stores h under identifier. A previous handler registered under
// the same identifier is replaced.
func (b *Bus) Register(identifier string, h AnyHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.handlers[identifier]; exists {
		b.logger.With("command_name", identifier).Debug("overwriting command handler")
	}
	b.handlers[identifier] = h
}

// Use appends behaviors to the chain. The first behavior added runs first.
func (b *Bus) Use(behaviors ...Behavior) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.behaviors = append(b.behaviors, behaviors...)
}

// Has reports whether a handler is registered under identifier.
func (b *Bus) Has(identifier string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.handlers[identifier]
	return ok
}

// Identifiers returns the registered identifiers in sorted order.
func (b *Bus) Identifiers() []string {
	b.mu.RLock()
	ids := lo.Keys(b.handlers)
	b.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Execute dispatches cmd to its handler through the behavior chain.
//
// Execute never panics. Failures before or inside the pipeline, including
// recovered panics, are reported as Err results.
func (b *Bus) Execute(ctx context.Context, cmd Command) result.Result[any] {
	if cqrs.IsNil(cmd) {
		return result.ErrMessage[any]("command must not be nil")
	}

	identifier, err := commandName(cmd)
	if err != nil {
		return result.FromError[any](err)
	}

	b.mu.RLock()
	h, ok := b.handlers[identifier]
	behaviors := b.behaviors
	b.mu.RUnlock()

	if !ok {
		return result.FromError[any](cqrs.NewHandlerNotFoundError(cqrs.KindCommand, identifier))
	}

	pipeline := guard(h.Handle)
	for i := len(behaviors) - 1; i >= 0; i-- {
		pipeline = chain(behaviors[i], pipeline)
	}

	return guard(pipeline)(ctx, cmd)
}

func commandName(cmd Command) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PanicError(r)
		}
	}()
	return cmd.CommandName(), nil
}

func chain(bh Behavior, next Next) Next {
	return func(ctx context.Context, cmd Command) result.Result[any] {
		return bh.Handle(ctx, cmd, next)
	}
}

// guard converts a panic raised by next into an Err result.
func guard(next Next) Next {
	return func(ctx context.Context, cmd Command) (res result.Result[any]) {
		defer func() {
			if r := recover(); r != nil {
				res = result.FromError[any](PanicError(r))
			}
		}()
		return next(ctx, cmd)
	}
}

// PanicError turns a recovered panic value into an error.
func PanicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(r))
}

// Register registers a typed handler under identifier.
//
// The handler is wrapped into an AnyHandler that performs the type assertion
// from Command to C; a command of another type yields an Err result.
func Register[C Command, R any](b *Bus, identifier string, h Handler[C, R]) {
	b.Register(identifier, HandlerFunc[Command, any](func(ctx context.Context, cmd Command) result.Result[any] {
		c, ok := cmd.(C)
		if !ok {
			var want C
			return result.ErrMessage[any](
				fmt.Sprintf("unexpected command type %T for %s, want %T", cmd, identifier, want),
			)
		}
		return h.Handle(ctx, c).Any()
	}))
}

// Dispatch executes cmd on b and restores the typed result.
func Dispatch[R any](ctx context.Context, b *Bus, cmd Command) result.Result[R] {
	return result.As[R](b.Execute(ctx, cmd))
}
