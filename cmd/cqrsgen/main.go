// Command cqrsgen generates the registration code for the command and query
// handlers found under a directory.
//
//	cqrsgen -root ./internal -out ./internal/app/handlers_gen.go -pkg app -exclude legacy,mocks
//
// Typically invoked through a go:generate directive.
package main

import (
	"flag"
	"os"
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/dispatch/internal/discover"
	"github.com/rise-and-shine/dispatch/observability/logger"
)

type flags struct {
	root     string
	out      string
	pkg      string
	exclude  string
	patterns string
}

func main() {
	var f flags
	flag.StringVar(&f.root, "root", ".", "directory to scan for handlers")
	flag.StringVar(&f.out, "out", "handlers_gen.go", "output file")
	flag.StringVar(&f.pkg, "pkg", "main", "package name of the generated file")
	flag.StringVar(&f.exclude, "exclude", "", "comma separated directory names to skip")
	flag.StringVar(&f.patterns, "patterns", "", "comma separated file name patterns (default *_handler.go,*.handler.go)")
	flag.Parse()

	if err := run(f); err != nil {
		logger.Fatalx(err)
	}
}

func run(f flags) error {
	handlers, err := discover.Scan(f.root, discover.Options{
		FilePatterns: splitList(f.patterns),
		Exclude:      splitList(f.exclude),
	})
	if err != nil {
		return errx.Wrap(err)
	}

	src, err := discover.Render(f.pkg, handlers)
	if err != nil {
		return errx.Wrap(err)
	}

	if err = os.WriteFile(f.out, src, 0o644); err != nil { //nolint:gosec // generated source is world readable
		return errx.Wrap(err)
	}

	logger.With("handlers", len(handlers)).With("out", f.out).Info("generated handler registrations")
	return nil
}

func splitList(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
