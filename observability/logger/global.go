package logger

import (
	"context"
	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // global logger singleton
var (
	global   atomic.Value // stores Logger
	setOnce  sync.Once
	initOnce sync.Once
)

// SetGlobal sets the global logger instance.
// It must be called once during application startup, before any logging
// through the package level functions. A second call panics.
func SetGlobal(cfg Config) {
	l, err := newLogger(cfg)
	if err != nil {
		panic("[logger]: failed to initialize global logger: " + err.Error())
	}
	SetGlobalLogger(l)
}

// SetGlobalLogger installs an already constructed logger as the global one.
// Same once-only rule as SetGlobal.
func SetGlobalLogger(l Logger) {
	called := false
	setOnce.Do(func() {
		// prevent lazy initialization from overriding us later
		initOnce.Do(func() {})
		global.Store(l)
		called = true
	})
	if !called {
		panic("[logger]: SetGlobal can only be called once")
	}
}

// Global returns the global logger, lazily creating a pretty debug logger
// when none was configured.
func Global() Logger {
	if l, ok := global.Load().(Logger); ok {
		return l
	}
	initOnce.Do(func() {
		l, err := newLogger(Config{Level: levelDebug, Encoding: encPretty})
		if err != nil {
			panic("[logger]: failed to initialize default logger: " + err.Error())
		}
		global.Store(l)
	})
	l, ok := global.Load().(Logger)
	if !ok {
		panic("[logger]: global contains invalid type")
	}
	return l
}

// Debug logs a message at debug level using the global logger.
func Debug(msg any) { Global().Debug(msg) }

// Info logs a message at info level using the global logger.
func Info(msg any) { Global().Info(msg) }

// Warn logs a message at warn level using the global logger.
func Warn(msg any) { Global().Warn(msg) }

// Error logs a message at error level using the global logger.
func Error(msg any) { Global().Error(msg) }

// Errorx logs an error at error level using the global logger.
func Errorx(err error) { Global().Errorx(err) }

// Fatalx logs an error at fatal level using the global logger and exits.
func Fatalx(err error) { Global().Fatalx(err) }

// With creates a child of the global logger with the given key-value pairs.
func With(keysAndValues ...any) Logger { return Global().With(keysAndValues...) }

// WithContext creates a child of the global logger enriched with ctx metadata.
func WithContext(ctx context.Context) Logger { return Global().WithContext(ctx) }

// Named adds a sub-scope to the global logger's name.
func Named(name string) Logger { return Global().Named(name) }

// Sync flushes the global logger.
func Sync() error { return Global().Sync() }
