// Package examples loads the example catalog and renders the view
// templates the showcase is built from.
package examples

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Entry describes one example before rendering.
type Entry struct {
	Title       string         `yaml:"title"`
	Template    string         `yaml:"template"`
	Binding     map[string]any `yaml:"binding,omitempty"`
	Description string         `yaml:"description"`
	Attributes  []string       `yaml:"attributes,omitempty"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() ([]Entry, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes a catalog and checks every entry names a title and
// a template.
func ParseCatalog(data []byte) ([]Entry, error) {
	var entries []Entry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "decode example catalog").Build()
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Template) == "" {
			return nil, derrors.ConfigError(fmt.Sprintf("catalog entry %d needs a title and a template", i)).Build()
		}
	}
	return entries, nil
}
