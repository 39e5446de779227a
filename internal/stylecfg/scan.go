package stylecfg

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
)

// Report approximates what the external build would keep for a record:
// every class detected in the scanned sources plus the safelist.
type Report struct {
	Files     []string `json:"files"`
	Unmatched []string `json:"unmatched,omitempty"`
	Detected  []string `json:"detected"`
	Retained  []string `json:"retained"`
	// SafelistOnly lists safelist entries no scanned source mentions; these
	// are the classes that would vanish without the safelist.
	SafelistOnly []string `json:"safelist_only"`
	// Redundant lists safelist entries the scan finds anyway.
	Redundant []string `json:"redundant,omitempty"`
}

// Retains reports whether class survives the build.
func (r Report) Retains(class string) bool {
	_, found := slices.BinarySearch(r.Retained, class)
	return found
}

// Scan resolves the record's content globs below root, extracts class
// candidates from every matched file and combines them with the safelist.
func Scan(root string, rec Record) (Report, error) {
	res, err := Resolve(root, rec)
	if err != nil {
		return Report{}, err
	}
	return scanResolved(root, res, rec.Safelist)
}

// scanResolved reads the resolved files. A file removed since resolution
// is left out of the report.
func scanResolved(root string, res Resolution, safelist []string) (Report, error) {
	detected := map[string]bool{}
	var files []string
	for _, rel := range res.Files() {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("scanned file vanished", logfields.File(rel))
				continue
			}
			return Report{}, err
		}
		files = append(files, rel)
		for _, c := range ExtractClasses(rel, data) {
			detected[c] = true
		}
	}

	report := Report{
		Files:     files,
		Unmatched: res.Unmatched,
		Detected:  sortedKeys(detected),
	}
	retained := maps.Clone(detected)
	seen := map[string]bool{}
	for _, c := range safelist {
		c = strings.TrimSpace(c)
		if seen[c] || !ValidClassName(c) {
			continue
		}
		seen[c] = true
		retained[c] = true
		if detected[c] {
			report.Redundant = append(report.Redundant, c)
		} else {
			report.SafelistOnly = append(report.SafelistOnly, c)
		}
	}
	report.Retained = sortedKeys(retained)
	return report, nil
}

// MissingFromSafelist returns the classes the record does not safelist.
func MissingFromSafelist(rec Record, classes []string) []string {
	var missing []string
	for _, c := range classes {
		if !slices.Contains(rec.Safelist, c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// ExtractClasses returns the valid class tokens referenced by a source file.
// HTML files are tokenised and their class attributes read; other sources
// (templ components, Go) are searched for class attribute literals.
func ExtractClasses(name string, data []byte) []string {
	var values []string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		values = htmlClassValues(data)
	default:
		values = literalClassValues(data)
	}

	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		for _, tok := range strings.Fields(templateAction.ReplaceAllString(v, " ")) {
			if ValidClassName(tok) && !seen[tok] {
				seen[tok] = true
				out = append(out, tok)
			}
		}
	}
	return out
}

// templateAction matches Go template actions embedded in attribute values.
var templateAction = regexp.MustCompile(`\{\{.*?\}\}`)

func htmlClassValues(data []byte) []string {
	var values []string
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				slog.Debug("html tokenizer stopped early", logfields.Error(z.Err()))
			}
			return values
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			for _, a := range tok.Attr {
				if a.Key == "class" {
					values = append(values, a.Val)
				}
			}
		}
	}
}

var (
	classDouble = regexp.MustCompile(`\bclass\s*=\s*"([^"]*)"`)
	classSingle = regexp.MustCompile(`\bclass\s*=\s*'([^']*)'`)
	classExpr   = regexp.MustCompile(`\bclass\s*=\s*\{([^}]*)\}`)
	quoted      = regexp.MustCompile(`"([^"]*)"|` + "`([^`]*)`")
)

func literalClassValues(data []byte) []string {
	var values []string
	for _, re := range []*regexp.Regexp{classDouble, classSingle} {
		for _, m := range re.FindAllSubmatch(data, -1) {
			values = append(values, string(m[1]))
		}
	}
	for _, m := range classExpr.FindAllSubmatch(data, -1) {
		for _, q := range quoted.FindAllSubmatch(m[1], -1) {
			values = append(values, string(q[1])+" "+string(q[2]))
		}
	}
	return values
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
