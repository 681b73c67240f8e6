package query

// Registration registers one handler on a bus.
type Registration func(b *Bus)

// Entry returns a Registration that builds the handler with factory and
// registers it under identifier.
func Entry[Q Query, R any](identifier string, factory func() Handler[Q, R]) Registration {
	return func(b *Bus) {
		Register(b, identifier, factory())
	}
}

// Manifest is an explicit list of handler registrations assembled at start-up.
type Manifest []Registration

// Apply runs every registration against b, in order.
func (m Manifest) Apply(b *Bus) {
	for _, reg := range m {
		reg(b)
	}
}
