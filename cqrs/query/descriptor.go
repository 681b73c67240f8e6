package query

import "context"

// Descriptor describes the handler a query was routed to. The bus makes it
// available to behaviors through the context.
type Descriptor struct {
	// Identifier is the query name the handler is registered under.
	Identifier string

	// Decode rebuilds a handler result of the registered type from data
	// using unmarshal. It is nil for handlers registered without a result type.
	Decode func(data []byte, unmarshal func([]byte, any) error) (any, error)
}

type descriptorKey struct{}

func withDescriptor(ctx context.Context, d Descriptor) context.Context {
	return context.WithValue(ctx, descriptorKey{}, d)
}

// DescriptorFromContext returns the descriptor of the query being executed.
func DescriptorFromContext(ctx context.Context) (Descriptor, bool) {
	d, ok := ctx.Value(descriptorKey{}).(Descriptor)
	return d, ok
}

func decoderFor[R any]() func([]byte, func([]byte, any) error) (any, error) {
	return func(data []byte, unmarshal func([]byte, any) error) (any, error) {
		var r R
		if err := unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	}
}
