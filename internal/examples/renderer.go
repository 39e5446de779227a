package examples

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

// Extension is the file extension of view templates.
const Extension = ".html"

// Layout is what a layout template is executed with.
type Layout struct {
	Content template.HTML
	Data    any
}

// Renderer executes the view templates of an fs.FS. Template names are file
// paths without the extension, e.g. "examples/color". In reload mode the
// templates are parsed again before every render.
type Renderer struct {
	fsys   fs.FS
	reload bool

	mu  sync.RWMutex
	set *template.Template
}

// NewRenderer parses every view below fsys.
func NewRenderer(fsys fs.FS, reload bool) (*Renderer, error) {
	r := &Renderer{fsys: fsys, reload: reload}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload parses the templates again.
func (r *Renderer) Reload() error {
	set, err := parseViews(r.fsys)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.set = set
	r.mu.Unlock()
	return nil
}

func parseViews(fsys fs.FS) (*template.Template, error) {
	root := template.New("").Funcs(template.FuncMap{
		"escape": html.EscapeString,
	})
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != Extension {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(p, Extension)
		if _, err := root.New(name).Parse(string(data)); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "load view templates").Build()
	}
	return root, nil
}

func (r *Renderer) current() (*template.Template, error) {
	if r.reload {
		if err := r.Reload(); err != nil {
			return nil, err
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set, nil
}

// Has reports whether a template called name exists.
func (r *Renderer) Has(name string) bool {
	set, err := r.current()
	return err == nil && set.Lookup(name) != nil
}

// Render executes name with data into w. When layout is non-empty the
// output is wrapped in that layout.
func (r *Renderer) Render(w io.Writer, name string, data any, layout string) error {
	set, err := r.current()
	if err != nil {
		return err
	}
	if layout == "" {
		var buf bytes.Buffer
		if err := execute(set, &buf, name, data); err != nil {
			return err
		}
		_, err := buf.WriteTo(w)
		return err
	}

	var body bytes.Buffer
	if err := execute(set, &body, name, data); err != nil {
		return err
	}
	var page bytes.Buffer
	// #nosec G203 -- body is the output of html/template.
	if err := execute(set, &page, layout, Layout{Content: template.HTML(body.String()), Data: data}); err != nil {
		return err
	}
	_, err = page.WriteTo(w)
	return err
}

// RenderHTML executes name with data and returns the result as trusted HTML.
func (r *Renderer) RenderHTML(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data, ""); err != nil {
		return "", err
	}
	// #nosec G203 -- rendered by html/template.
	return template.HTML(buf.String()), nil
}

func execute(set *template.Template, w io.Writer, name string, data any) error {
	t := set.Lookup(name)
	if t == nil {
		return derrors.NotFoundError("template not found").WithContext("template", name).Build()
	}
	if err := t.Execute(w, data); err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "render template").
			WithContext("template", name).Build()
	}
	return nil
}
