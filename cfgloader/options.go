package cfgloader

const defaultDir = "./config"

type options struct {
	silent      bool
	dir         string
	environment string
}

// Option configures Load and MustLoad.
type Option func(*options)

// WithSilent disables logging of the loaded config.
func WithSilent() Option {
	return func(o *options) {
		o.silent = true
	}
}

// WithDir reads config files from dir instead of ./config.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithEnvironment overrides the ENVIRONMENT variable.
func WithEnvironment(env string) Option {
	return func(o *options) {
		o.environment = env
	}
}

func newOptions(opts []Option) options {
	o := options{dir: defaultDir}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
