// Package query defines the query side of the CQRS bus.
//
// Queries are read-only intents. Each query is routed by its QueryName to
// exactly one handler. Unlike commands, query handlers return bare values
// and signal failure with a Go error, which the bus propagates unchanged.
package query

import "context"

// Query is the marker every query must implement.
//
// QueryName returns the stable identifier the query is dispatched by,
// conventionally the type name, e.g. "GetUserQuery".
type Query interface {
	QueryName() string
}

// Handler handles one query type.
type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, q Q) (R, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[Q Query, R any] func(ctx context.Context, q Q) (R, error)

// Handle calls f(ctx, q).
func (f HandlerFunc[Q, R]) Handle(ctx context.Context, q Q) (R, error) {
	return f(ctx, q)
}

// AnyHandler is the type-erased handler form stored by the Bus.
type AnyHandler = Handler[Query, any]

// Next continues the behavior chain.
type Next func(ctx context.Context, q Query) (any, error)

// Behavior is a middleware unit of the query pipeline.
//
// Behaviors must not swallow errors returned by next: an error observed on
// the way out is returned as is.
type Behavior interface {
	Handle(ctx context.Context, q Query, next Next) (any, error)
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(ctx context.Context, q Query, next Next) (any, error)

// Handle calls f(ctx, q, next).
func (f BehaviorFunc) Handle(ctx context.Context, q Query, next Next) (any, error) {
	return f(ctx, q, next)
}
