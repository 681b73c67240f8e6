package discover

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/dispatch/cqrs"
)

const CodeRenderFailed = "DISCOVER_RENDER_FAILED"

//nolint:gochecknoglobals // parsed once
var fileTemplate = template.Must(template.New("handlers").Parse(`// Code generated by cqrsgen. DO NOT EDIT.

package {{ .Package }}

import (
	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/cqrs/query"
{{ range .Imports }}
	{{ .Alias }} "{{ .Path }}"
{{- end }}
)

// RegisterHandlers registers the discovered command handlers on cb and
// query handlers on qb.
func RegisterHandlers(cb *command.Bus, qb *query.Bus) {
{{- range .Commands }}
	command.Register(cb, "{{ .Identifier }}", {{ .Alias }}.{{ .Constructor }}())
{{- end }}
{{- range .Queries }}
	query.Register(qb, "{{ .Identifier }}", {{ .Alias }}.{{ .Constructor }}())
{{- end }}
}
`))

type importSpec struct {
	Alias string
	Path  string
}

type registration struct {
	Identifier  string
	Alias       string
	Constructor string
}

type fileData struct {
	Package  string
	Imports  []importSpec
	Commands []registration
	Queries  []registration
}

// Render produces a gofmt-ed Go file of package pkgName declaring
// RegisterHandlers(cb *command.Bus, qb *query.Bus).
//
// Every handler needs a constructor New<TypeName> without parameters that
// returns command.Handler[C, R] or query.Handler[Q, R], so the generic
// Register functions can infer the command and result types.
func Render(pkgName string, handlers []Handler) ([]byte, error) {
	data := fileData{Package: pkgName}
	aliases := make(map[string]string)
	used := make(map[string]bool)

	for _, h := range handlers {
		if h.Constructor == "" {
			return nil, errx.New(
				fmt.Sprintf("handler %s has no New%s constructor", h.TypeName, h.TypeName),
				errx.WithCode(CodeRenderFailed),
				errx.WithDetails(errx.D{"file": h.File}),
			)
		}

		alias, ok := aliases[h.Package]
		if !ok {
			alias = uniqueAlias(h.PackageName, used)
			aliases[h.Package] = alias
			used[alias] = true
			data.Imports = append(data.Imports, importSpec{Alias: alias, Path: h.Package})
		}

		reg := registration{Identifier: h.Identifier, Alias: alias, Constructor: h.Constructor}
		if h.Kind == cqrs.KindCommand {
			data.Commands = append(data.Commands, reg)
		} else {
			data.Queries = append(data.Queries, reg)
		}
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeRenderFailed))
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(CodeRenderFailed))
	}
	return src, nil
}

func uniqueAlias(name string, used map[string]bool) string {
	reserved := name == "command" || name == "query"
	if !reserved && !used[name] {
		return name
	}
	for i := 2; ; i++ {
		alias := fmt.Sprintf("%s%d", name, i)
		if !used[alias] {
			return alias
		}
	}
}
