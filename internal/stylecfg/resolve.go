package stylecfg

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

// GlobMatches holds the files one content glob resolved to, relative to the
// project root with forward slashes.
type GlobMatches struct {
	Pattern string   `json:"pattern"`
	Files   []string `json:"files"`
}

// Resolution is the result of expanding every content glob of a record.
type Resolution struct {
	Globs     []GlobMatches `json:"globs"`
	Unmatched []string      `json:"unmatched,omitempty"`
}

// Files returns every matched file once, in glob order.
func (r Resolution) Files() []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range r.Globs {
		for _, f := range g.Files {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// Resolve expands the record's content globs relative to root. A glob whose
// base directory does not exist resolves to no files rather than an error.
func Resolve(root string, rec Record) (Resolution, error) {
	var res Resolution
	for _, pattern := range rec.Content {
		files, err := resolveGlob(root, pattern)
		if err != nil {
			return Resolution{}, err
		}
		res.Globs = append(res.Globs, GlobMatches{Pattern: pattern, Files: files})
		if len(files) == 0 {
			res.Unmatched = append(res.Unmatched, pattern)
		}
	}
	return res, nil
}

func resolveGlob(root, pattern string) ([]string, error) {
	p := filepath.ToSlash(strings.TrimSpace(pattern))
	if p == "" || !doublestar.ValidatePattern(p) {
		return nil, derrors.ValidationError("invalid content glob").WithContext("glob", pattern).Build()
	}

	// Walk from the literal prefix of the pattern so "./" and "../" prefixes
	// work with an fs.FS rooted there.
	base, rest := doublestar.SplitPattern(p)
	dir := filepath.FromSlash(base)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "stat glob base").
			WithContext("glob", pattern).Build()
	}

	matches, err := doublestar.Glob(os.DirFS(dir), rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStyle, "expand content glob").
			WithContext("glob", pattern).Build()
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		abs := filepath.Join(dir, filepath.FromSlash(m))
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = abs
		}
		files = append(files, path.Clean(filepath.ToSlash(rel)))
	}
	slices.Sort(files)
	return files, nil
}

// Smoke checks that the record lists content and that every glob resolves
// to at least one file below root.
func Smoke(root string, rec Record) (Resolution, error) {
	if len(rec.Content) == 0 {
		return Resolution{}, derrors.ValidationError("content must list at least one glob").Build()
	}
	res, err := Resolve(root, rec)
	if err != nil {
		return res, err
	}
	if len(res.Unmatched) > 0 {
		return res, derrors.StyleError("content glob matched no files").
			WithContext("globs", res.Unmatched).
			WithContext("root", root).
			Build()
	}
	return res, nil
}
