package forward

import "github.com/gofiber/fiber/v2"

type options struct {
	successStatus int
}

// Option configures a forwarding handler.
type Option func(*options)

// WithStatus sets the status code of successful responses, e.g.
// fiber.StatusCreated for commands creating resources.
func WithStatus(status int) Option {
	return func(o *options) {
		o.successStatus = status
	}
}

func newOptions(opts []Option) options {
	o := options{successStatus: fiber.StatusOK}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
