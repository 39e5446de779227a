// Package static carries the view templates and stylesheets served by the
// showcase. The server uses the embedded copies unless server.static_dir
// points at a directory on disk.
package static

import (
	"embed"
	"io/fs"
)

//go:embed views styles
var files embed.FS

// Views returns the view templates rooted at views/.
func Views() fs.FS {
	sub, err := fs.Sub(files, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// Styles returns the stylesheet directory rooted at styles/.
func Styles() fs.FS {
	sub, err := fs.Sub(files, "styles")
	if err != nil {
		panic(err)
	}
	return sub
}
