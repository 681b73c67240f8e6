// Package bootstrap assembles command and query buses with the default
// behavior pipelines and the collaborators an application provides.
package bootstrap

import (
	"github.com/rcrowley/go-metrics"

	"github.com/rise-and-shine/dispatch/alert"
	"github.com/rise-and-shine/dispatch/cqrs/command"
	cmdwrapper "github.com/rise-and-shine/dispatch/cqrs/command/wrapper"
	"github.com/rise-and-shine/dispatch/cqrs/query"
	qrywrapper "github.com/rise-and-shine/dispatch/cqrs/query/wrapper"
	"github.com/rise-and-shine/dispatch/meta"
	"github.com/rise-and-shine/dispatch/observability/logger"
)

// Deps holds the optional collaborators of the pipelines. A nil field
// leaves the matching behavior out.
type Deps struct {
	// Logger defaults to the global logger.
	Logger logger.Logger

	// Transactor wraps every command in a transaction.
	Transactor cmdwrapper.Transactor

	// Cache enables query result caching.
	Cache qrywrapper.Cache

	// Alert receives failed commands.
	Alert alert.Provider

	// Metrics is used when Config.Command.Metrics is set. Nil means
	// metrics.DefaultRegistry.
	Metrics metrics.Registry

	Commands []command.Manifest
	Queries  []query.Manifest
}

// App owns the buses of one service.
type App struct {
	cfg      Config
	commands *command.Bus
	queries  *query.Bus
}

// New builds both buses and applies the manifests in deps.
//
// Command pipeline, outermost first:
//
//	meta, logger, recovery, tracing, metrics, alert, validation, transaction, timeout
//
// Query pipeline:
//
//	logger, tracing, cache, retry, timeout
func New(cfg Config, deps Deps) *App {
	l := deps.Logger
	if l == nil {
		l = logger.Global()
	}

	meta.SetServiceInfo(cfg.ServiceName, cfg.ServiceVersion)

	a := &App{
		cfg:      cfg,
		commands: command.NewBus(command.WithLogger(l)),
		queries:  query.NewBus(query.WithLogger(l)),
	}

	a.commands.Use(commandBehaviors(cfg, deps, l)...)
	a.queries.Use(queryBehaviors(cfg, deps, l)...)

	for _, m := range deps.Commands {
		m.Apply(a.commands)
	}
	for _, m := range deps.Queries {
		m.Apply(a.queries)
	}

	l.Named("bootstrap").
		With("commands", a.commands.Identifiers()).
		With("queries", a.queries.Identifiers()).
		Debug("buses ready")

	return a
}

func commandBehaviors(cfg Config, deps Deps, l logger.Logger) []command.Behavior {
	bhs := []command.Behavior{
		cmdwrapper.NewMetaBehavior(cfg.ServiceName, cfg.ServiceVersion),
		cmdwrapper.NewLoggerBehavior(l),
		cmdwrapper.NewRecoveryBehavior(l),
	}
	if cfg.Command.Tracing {
		bhs = append(bhs, cmdwrapper.NewTracingBehavior())
	}
	if cfg.Command.Metrics {
		bhs = append(bhs, cmdwrapper.NewMetricsBehavior(deps.Metrics))
	}
	if deps.Alert != nil {
		bhs = append(bhs, cmdwrapper.NewAlertBehavior(l, deps.Alert))
	}
	bhs = append(bhs, cmdwrapper.NewValidationBehavior())
	if deps.Transactor != nil {
		bhs = append(bhs, cmdwrapper.NewTransactionBehavior(deps.Transactor))
	}
	return append(bhs, cmdwrapper.NewTimeoutBehavior(cfg.Command.Timeout))
}

func queryBehaviors(cfg Config, deps Deps, l logger.Logger) []query.Behavior {
	bhs := []query.Behavior{qrywrapper.NewLoggerBehavior(l)}
	if cfg.Query.Tracing {
		bhs = append(bhs, qrywrapper.NewTracingBehavior())
	}
	if deps.Cache != nil {
		bhs = append(bhs, qrywrapper.NewCacheBehavior(deps.Cache,
			qrywrapper.WithCacheTTL(cfg.Query.CacheTTL),
			qrywrapper.WithCachePrefix(cfg.Query.CachePrefix),
			qrywrapper.WithCacheLogger(l),
		))
	}
	if cfg.Query.RetryAttempts > 1 {
		bhs = append(bhs, qrywrapper.NewRetryBehavior(cfg.Query.RetryAttempts, cfg.Query.RetryDelay,
			qrywrapper.WithRetryLogger(l),
		))
	}
	return append(bhs, qrywrapper.NewTimeoutBehavior(cfg.Query.Timeout))
}

// Commands returns the command bus.
func (a *App) Commands() *command.Bus {
	return a.commands
}

// Queries returns the query bus.
func (a *App) Queries() *query.Bus {
	return a.queries
}

// Config returns the config the app was built with.
func (a *App) Config() Config {
	return a.cfg
}
