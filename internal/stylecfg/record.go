// Package stylecfg holds the build configuration record handed to the
// utility-CSS (Tailwind) build step: which sources are scanned for class
// usage, theme extensions, plugins, and the safelist of classes that must be
// kept even though no scanned source spells them out.
//
// The record is declarative data. This package validates it, renders it in
// the loader format the external tool expects (tailwind.config.js),
// serialises it, and approximates the scan the tool performs so a project
// can be smoke-tested without running the tool.
package stylecfg

import (
	"slices"
	"strings"
)

// ColorPalette is the set of background classes the /color example rotates
// through. They are chosen at request time, so no template names them
// literally and the scanner cannot see them.
var ColorPalette = []string{
	"bg-gray-100",
	"bg-red-200",
	"bg-yellow-300",
	"bg-green-400",
	"bg-blue-500",
	"bg-indigo-600",
	"bg-purple-700",
	"bg-pink-800",
}

// Theme holds theme overrides. Absent keys mean "use the framework default".
type Theme struct {
	Extend map[string]any `yaml:"extend" json:"extend"`
}

// Record is the build configuration consumed once per build by the external tool.
type Record struct {
	// Content lists file patterns scanned for class usage. Order carries no
	// meaning for the scan but is preserved in every rendering.
	Content  []string `yaml:"content" json:"content"`
	Theme    Theme    `yaml:"theme" json:"theme"`
	Plugins  []string `yaml:"plugins" json:"plugins"`
	Safelist []string `yaml:"safelist" json:"safelist"`
}

// Target is a named record together with where its loader file is written.
type Target struct {
	Name   string `yaml:"name" json:"name"`
	Output string `yaml:"output" json:"output"`
	Record `yaml:",inline"`
}

const (
	TargetComponents = "components"
	TargetViews      = "views"

	// DefaultOutput is the loader file name the external tool looks for.
	DefaultOutput = "tailwind.config.js"
)

// OutputFor is the default loader path for a target name. The components
// target owns the conventional file; others get "tailwind.<name>.config.js"
// so both can live in one project root.
func OutputFor(name string) string {
	if name == "" || name == TargetComponents {
		return DefaultOutput
	}
	return "tailwind." + name + ".config.js"
}

func baseRecord(content string) Record {
	return Record{
		Content:  []string{content},
		Theme:    Theme{Extend: map[string]any{}},
		Plugins:  []string{},
		Safelist: slices.Clone(ColorPalette),
	}
}

// Components is the target scanning templ component sources.
func Components() Target {
	return Target{Name: TargetComponents, Output: DefaultOutput, Record: baseRecord("./components/*.templ")}
}

// Views is the target scanning the server's HTML view templates.
func Views() Target {
	return Target{Name: TargetViews, Output: OutputFor(TargetViews), Record: baseRecord("./static/views/**/*.html")}
}

// DefaultTargets returns both build targets. They differ only in content.
func DefaultTargets() []Target {
	return []Target{Components(), Views()}
}

// Find returns the target with the given name.
func Find(targets []Target, name string) (Target, bool) {
	for _, t := range targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// Clone returns a deep copy of the record's slices and top-level theme map.
func (r Record) Clone() Record {
	out := Record{
		Content:  slices.Clone(r.Content),
		Plugins:  slices.Clone(r.Plugins),
		Safelist: slices.Clone(r.Safelist),
	}
	if r.Theme.Extend != nil {
		out.Theme.Extend = make(map[string]any, len(r.Theme.Extend))
		for k, v := range r.Theme.Extend {
			out.Theme.Extend[k] = v
		}
	}
	return out
}

// Normalize trims entries, drops blank and duplicate safelist classes (first
// occurrence wins) and replaces nil collections with empty ones. It returns
// the classes that were removed as duplicates.
func (r *Record) Normalize() []string {
	for i, c := range r.Content {
		r.Content[i] = strings.TrimSpace(c)
	}
	plugins := make([]string, 0, len(r.Plugins))
	for _, p := range r.Plugins {
		if p = strings.TrimSpace(p); p != "" {
			plugins = append(plugins, p)
		}
	}
	r.Plugins = plugins

	var dups []string
	seen := make(map[string]bool, len(r.Safelist))
	safelist := make([]string, 0, len(r.Safelist))
	for _, c := range r.Safelist {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if seen[c] {
			dups = append(dups, c)
			continue
		}
		seen[c] = true
		safelist = append(safelist, c)
	}
	r.Safelist = safelist

	if r.Content == nil {
		r.Content = []string{}
	}
	if r.Theme.Extend == nil {
		r.Theme.Extend = map[string]any{}
	}
	return dups
}
