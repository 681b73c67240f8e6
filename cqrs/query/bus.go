package query

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/dispatch/cqrs"
	"github.com/rise-and-shine/dispatch/observability/logger"
)

// CodeUnexpectedType is used when a query or result has an unexpected dynamic type.
const CodeUnexpectedType = "QUERY_UNEXPECTED_TYPE"

type entry struct {
	handler    AnyHandler
	descriptor Descriptor
}

// Bus routes queries to their handlers through an ordered behavior chain.
//
// Handlers and behaviors are meant to be configured at start-up. Execute is
// safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	entries   map[string]entry
	behaviors []Behavior
	logger    logger.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for registration diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		b.logger = l.Named("cqrs.query.bus")
	}
}

// NewBus creates an empty query bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		entries: make(map[string]entry),
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register stores h under identifier, replacing any previous handler.
// Handlers registered this way have no result decoder, so caching
// behaviors pass them through.
func (b *Bus) Register(identifier string, h AnyHandler) {
	b.register(identifier, entry{
		handler:    h,
		descriptor: Descriptor{Identifier: identifier},
	})
}

func (b *Bus) register(identifier string, e entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[identifier]; exists {
		b.logger.With("query_name", identifier).Debug("overwriting query handler")
	}
	b.entries[identifier] = e
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

	_, ok := b.entries[identifier]
	return ok
}

// Identifiers returns the registered identifiers in sorted order.
func (b *Bus) Identifiers() []string {
	b.mu.RLock()
	ids := lo.Keys(b.entries)
	b.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Execute dispatches q to its handler through the behavior chain.
//
// An unregistered identifier yields a *cqrs.HandlerNotFoundError. Errors
// from handlers and behaviors are returned unchanged and panics are not
// recovered.
func (b *Bus) Execute(ctx context.Context, q Query) (any, error) {
	if cqrs.IsNil(q) {
		return nil, errx.New("query must not be nil", errx.WithType(errx.T_Validation))
	}

	identifier := q.QueryName()

	b.mu.RLock()
	e, ok := b.entries[identifier]
	behaviors := b.behaviors
	b.mu.RUnlock()

	if !ok {
		return nil, cqrs.NewHandlerNotFoundError(cqrs.KindQuery, identifier)
	}

	var pipeline Next = e.handler.Handle
	for i := len(behaviors) - 1; i >= 0; i-- {
		pipeline = chain(behaviors[i], pipeline)
	}

	return pipeline(withDescriptor(ctx, e.descriptor), q)
}

func chain(bh Behavior, next Next) Next {
	return func(ctx context.Context, q Query) (any, error) {
		return bh.Handle(ctx, q, next)
	}
}

// Register registers a typed handler under identifier and records its
// result type so cached results can be decoded.
func Register[Q Query, R any](b *Bus, identifier string, h Handler[Q, R]) {
	erased := HandlerFunc[Query, any](func(ctx context.Context, q Query) (any, error) {
		typed, ok := q.(Q)
		if !ok {
			var want Q
			return nil, errx.New(
				fmt.Sprintf("unexpected query type %T for %s, want %T", q, identifier, want),
				errx.WithCode(CodeUnexpectedType),
			)
		}
		return h.Handle(ctx, typed)
	})

	b.register(identifier, entry{
		handler:    erased,
		descriptor: Descriptor{Identifier: identifier, Decode: decoderFor[R]()},
	})
}

// Dispatch executes q on b and asserts the result to R.
func Dispatch[R any](ctx context.Context, b *Bus, q Query) (R, error) {
	var zero R

	v, err := b.Execute(ctx, q)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}

	r, ok := v.(R)
	if !ok {
		return zero, errx.New(
			fmt.Sprintf("unexpected query result type %T, want %T", v, zero),
			errx.WithCode(CodeUnexpectedType),
		)
	}
	return r, nil
}
