package stylecfg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

// classNamePattern is the utility class token grammar: optional variant
// prefixes ("hover:", "md:", "group-hover:"), an optional negative sign, then
// alphanumeric runs joined by '-', '/' or '.' ("w-1/2", "p-0.5").
var classNamePattern = regexp.MustCompile(`^(?:[A-Za-z0-9-]+:)*-?[A-Za-z0-9]+(?:[-/.][A-Za-z0-9]+)*$`)

// ValidClassName reports whether s is a class token the framework can emit.
func ValidClassName(s string) bool {
	return classNamePattern.MatchString(s)
}

// ValidGlob reports whether pattern is a usable content glob.
func ValidGlob(pattern string) bool {
	p := strings.TrimSpace(pattern)
	return p != "" && doublestar.ValidatePattern(filepath.ToSlash(p))
}

// Validate checks the record's invariants. Duplicate safelist entries are
// reported as warnings; every other violation is collected into a single
// validation error.
func (r Record) Validate() ([]string, error) {
	var problems []string
	if len(r.Content) == 0 {
		problems = append(problems, "content must list at least one glob")
	}
	for i, g := range r.Content {
		if !ValidGlob(g) {
			problems = append(problems, fmt.Sprintf("content[%d]: invalid glob %q", i, g))
		}
	}
	for i, p := range r.Plugins {
		if strings.TrimSpace(p) == "" {
			problems = append(problems, fmt.Sprintf("plugins[%d]: empty plugin name", i))
		}
	}

	var warnings []string
	seen := make(map[string]bool, len(r.Safelist))
	for i, c := range r.Safelist {
		if !ValidClassName(c) {
			problems = append(problems, fmt.Sprintf("safelist[%d]: invalid class name %q", i, c))
			continue
		}
		if seen[c] {
			warnings = append(warnings, fmt.Sprintf("safelist[%d]: duplicate class %q", i, c))
		}
		seen[c] = true
	}

	if len(problems) > 0 {
		return warnings, derrors.ValidationError("invalid build configuration").
			WithContext("problems", problems).
			Build()
	}
	return warnings, nil
}

// Validate checks the target name and its record.
func (t Target) Validate() ([]string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return nil, derrors.ValidationError("target name cannot be empty").Build()
	}
	warnings, err := t.Record.Validate()
	if err != nil {
		if c, ok := derrors.AsClassified(err); ok {
			return warnings, c.WithContext("target", t.Name)
		}
		return warnings, err
	}
	return warnings, nil
}
