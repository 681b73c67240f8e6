// Package wrapper provides the built-in behaviors of the command pipeline.
//
// Each constructor returns a command.Behavior that can be installed on a
// command.Bus with Use. Behaviors report failures as result.Err values and
// never alter a result they do not own.
package wrapper

import (
	"fmt"
	"runtime"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/dispatch/mask"
)

const stackTraceSize = 4096

// CodePanicRecovered is used for errors built from recovered panics.
const CodePanicRecovered = "PANIC_RECOVERED"

func stackTrace() string {
	buf := make([]byte, stackTraceSize)
	return string(buf[:runtime.Stack(buf, false)])
}

func panicError(msg string, r any, stack string) error {
	return errx.New(msg,
		errx.WithCode(CodePanicRecovered),
		errx.WithDetails(errx.D{
			"stack_trace":  stack,
			"panic_values": fmt.Sprintf("%v", r),
		}),
	)
}

// loggable returns a representation of v safe to log: struct fields tagged
// with `mask:"true"` are hidden.
func loggable(v any) any {
	if m := mask.StructToOrdMap(v); m != nil {
		return m
	}
	return v
}
