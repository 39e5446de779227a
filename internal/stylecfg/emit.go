package stylecfg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

const loaderTemplate = `/** @type {import('tailwindcss').Config} */
module.exports = {
  content: [{{ range $i, $g := .Content }}{{ if $i }}, {{ end }}{{ jsString $g }}{{ end }}],
  theme: {
{{- if .Theme.Extend }}
    extend: {
{{- range $k := sortedKeys .Theme.Extend }}
      {{ jsKey $k }}: {{ jsValue (index $.Theme.Extend $k) }},
{{- end }}
    },
{{- else }}
    extend: {},
{{- end }}
  },
  plugins: [{{ range $i, $p := .Plugins }}{{ if $i }}, {{ end }}require({{ jsQuote $p }}){{ end }}],
{{- if .Safelist }}
  safelist: [
{{- range .Safelist }}
    {{ jsQuote . }},
{{- end }}
  ]
{{- else }}
  safelist: []
{{- end }}
}
`

var jsIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var loader = template.Must(template.New("tailwind.config.js").Funcs(template.FuncMap{
	"jsString": jsonString,
	"jsQuote":  singleQuote,
	"jsValue":  jsonValue,
	"jsKey": func(k string) string {
		if jsIdentifier.MatchString(k) {
			return k
		}
		return singleQuote(k)
	},
	"sortedKeys": func(m map[string]any) []string {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	},
}).Parse(loaderTemplate))

func jsonString(s string) (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

func jsonValue(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func singleQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}

// WriteJS renders rec as the CommonJS module the external tool's loader reads.
// The output is deterministic: content and safelist keep their order and
// theme keys are sorted.
func WriteJS(w io.Writer, rec Record) error {
	if err := loader.Execute(w, rec); err != nil {
		return derrors.WrapError(err, derrors.CategoryStyle, "render tailwind config").Build()
	}
	return nil
}

// RenderJS returns the loader module as a string.
func RenderJS(rec Record) (string, error) {
	var buf bytes.Buffer
	if err := WriteJS(&buf, rec); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Emit writes the target's loader file below root and returns its path.
// The file is written to a temporary sibling first and renamed into place.
func Emit(root string, t Target) (string, error) {
	out := t.Output
	if out == "" {
		out = DefaultOutput
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(root, out)
	}
	content, err := RenderJS(t.Record)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "create output directory").
			WithContext("target", t.Name).WithContext("path", out).Build()
	}
	tmp := fmt.Sprintf("%s.tmp-%d", out, os.Getpid())
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "write tailwind config").
			WithContext("target", t.Name).WithContext("path", out).Build()
	}
	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "replace tailwind config").
			WithContext("target", t.Name).WithContext("path", out).Build()
	}
	return out, nil
}
