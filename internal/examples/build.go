package examples

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

// Example is a catalog entry ready to be placed on the index page.
type Example struct {
	Title       string
	Component   template.HTML
	Description template.HTML
	Attributes  []string
}

var markdown = goldmark.New()

// Build renders every entry's component with its binding and its Markdown
// description. The first failure aborts the build.
func Build(r *Renderer, entries []Entry) ([]Example, error) {
	out := make([]Example, 0, len(entries))
	for _, e := range entries {
		binding := e.Binding
		if binding == nil {
			binding = map[string]any{}
		}
		component, err := r.RenderHTML(e.Template, binding)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to render example").
				WithContext("example", e.Title).
				WithContext("template", e.Template).Build()
		}
		desc, err := Markdown(e.Description)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to render example description").
				WithContext("example", e.Title).Build()
		}
		out = append(out, Example{
			Title:       Title(e.Title),
			Component:   component,
			Description: desc,
			Attributes:  e.Attributes,
		})
	}
	return out, nil
}

// Markdown converts src to HTML. Raw HTML in src is not passed through.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	// #nosec G203 -- goldmark escapes raw HTML unless WithUnsafe is set.
	return template.HTML(buf.String()), nil
}

// Title capitalizes each word of an example heading. A Caser is stateful,
// so each call gets its own.
func Title(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}
