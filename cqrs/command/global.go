package command

import (
	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // process-wide bus singleton
var (
	global   atomic.Pointer[Bus]
	setOnce  sync.Once
	initOnce sync.Once
)

// SetGlobal installs b as the process-wide command bus. It must be called
// at most once, before the first call to Global; a second call panics.
func SetGlobal(b *Bus) {
	called := false
	setOnce.Do(func() {
		initOnce.Do(func() {})
		global.Store(b)
		called = true
	})
	if !called {
		panic("[command]: SetGlobal can only be called once")
	}
}

// Global returns the process-wide command bus, creating an empty one on
// first use if SetGlobal was not called.
func Global() *Bus {
	if b := global.Load(); b != nil {
		return b
	}
	initOnce.Do(func() {
		global.Store(NewBus())
	})
	return global.Load()
}
