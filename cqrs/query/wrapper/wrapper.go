// Package wrapper provides the built-in behaviors of the query pipeline.
//
// Query behaviors return errors unchanged: a behavior that observes an error
// (logging, tracing) re-raises the very same value.
package wrapper

import (
	"github.com/rise-and-shine/dispatch/mask"
)

func loggable(v any) any {
	if m := mask.StructToOrdMap(v); m != nil {
		return m
	}
	return v
}
