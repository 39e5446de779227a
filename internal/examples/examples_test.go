package examples

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/static"
)

func TestDefaultCatalog(t *testing.T) {
	entries, err := DefaultCatalog()
	require.NoError(t, err)

	var titles []string
	for _, e := range entries {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{
		"trigger: mouseover", "trigger: every 1s", "every 1s with fade",
		"get on load", "get after delay", "click to edit",
		"hx-indicator", "click to load", "open modal",
	}, titles)
}

func TestParseCatalog_Errors(t *testing.T) {
	_, err := ParseCatalog([]byte("- title: x\n"))
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))

	_, err = ParseCatalog([]byte("- title: x\n  template: y\n  colour: red\n"))
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))
}

func TestBuild_EmbeddedViews(t *testing.T) {
	r, err := NewRenderer(static.Views(), false)
	require.NoError(t, err)
	entries, err := DefaultCatalog()
	require.NoError(t, err)

	built, err := Build(r, entries)
	require.NoError(t, err)
	require.Len(t, built, len(entries))

	for _, ex := range built {
		assert.NotEmpty(t, ex.Component, ex.Title)
		assert.NotContains(t, string(ex.Component), "<no value>", ex.Title)
	}
	assert.Equal(t, "Trigger: Mouseover", built[0].Title)
	assert.Contains(t, string(built[0].Component), `hx-trigger="mouseenter"`)
	assert.Contains(t, string(built[0].Description), "<strong>hover</strong>")
	assert.Contains(t, string(built[2].Component), "transition-colors")
	assert.Contains(t, string(built[7].Component), `hx-get="/rows?page=2"`)
	assert.Contains(t, string(built[7].Component), "void5@null.org")
}

func TestRenderer_Layout(t *testing.T) {
	fsys := fstest.MapFS{
		"layouts/main.html": {Data: []byte(`<html><title>{{ .Data.Title }}</title>{{ .Content }}</html>`)},
		"page.html":         {Data: []byte(`<p>{{ .Title }} {{ escape "<&>" }}</p>`)},
		"notes.txt":         {Data: []byte(`{{ broken`)},
	}
	r, err := NewRenderer(fsys, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "page", map[string]string{"Title": "<hi>"}, "layouts/main"))
	assert.Equal(t, `<html><title>&lt;hi&gt;</title><p>&lt;hi&gt; &amp;lt;&amp;amp;&amp;gt;</p></html>`, buf.String())

	assert.True(t, r.Has("layouts/main"))
	assert.False(t, r.Has("notes"))

	err = r.Render(&buf, "missing", nil, "")
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))
}

func TestRenderer_ReloadMode(t *testing.T) {
	fsys := fstest.MapFS{"a.html": {Data: []byte("one")}}
	frozen, err := NewRenderer(fsys, false)
	require.NoError(t, err)
	live, err := NewRenderer(fsys, true)
	require.NoError(t, err)

	fsys["a.html"] = &fstest.MapFile{Data: []byte("two")}

	out, err := frozen.RenderHTML("a", nil)
	require.NoError(t, err)
	assert.Equal(t, "one", string(out))

	out, err = live.RenderHTML("a", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", string(out))
}

func TestNewRenderer_ParseError(t *testing.T) {
	_, err := NewRenderer(fstest.MapFS{"bad.html": {Data: []byte("{{ if }")}}, false)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bad.html"), err.Error())
}

func TestMarkdownAndTitle(t *testing.T) {
	out, err := Markdown("Uses `hx-indicator` <script>x</script>")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<code>hx-indicator</code>")
	assert.NotContains(t, string(out), "<script>")

	assert.Equal(t, "Get On Load", Title("get on load"))
	assert.Equal(t, "Click To Edit", Title("click to edit"))
}
