package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/hxshowcase/internal/config"
	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
	"git.home.luguber.info/inful/hxshowcase/internal/stylecfg"
)

// StylesCmd groups the build-target subcommands.
type StylesCmd struct {
	Check StylesCheckCmd `cmd:"" help:"Validate targets, resolve their globs and summarise the scan"`
	Emit  StylesEmitCmd  `cmd:"" help:"Write tailwind.config.js for each target"`
	Scan  StylesScanCmd  `cmd:"" help:"Print the approximate class scan of each target"`
	Dump  StylesDumpCmd  `cmd:"" help:"Print the configured targets"`
}

// TargetFlag narrows a styles command to one target.
type TargetFlag struct {
	Target string `short:"t" name:"target" help:"Only act on the named target."`
}

// selectTargets returns the configured targets, or only the named one.
func selectTargets(cfg *config.Config, name string) ([]stylecfg.Target, error) {
	if name == "" {
		return cfg.Styles.Targets, nil
	}
	t, ok := stylecfg.Find(cfg.Styles.Targets, strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return nil, derrors.NotFoundError("unknown style target").WithContext("target", name).Build()
	}
	return []stylecfg.Target{t}, nil
}

// StylesCheckCmd validates and smoke-tests targets.
type StylesCheckCmd struct {
	TargetFlag `embed:""`
}

func (c *StylesCheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	targets, err := selectTargets(cfg, c.Target)
	if err != nil {
		return err
	}
	return RunStylesCheck(g.out(), cfg.Styles.Root, targets)
}

// RunStylesCheck checks every target and reports all of them before
// failing. The returned error names the failed targets.
func RunStylesCheck(out io.Writer, root string, targets []stylecfg.Target) error {
	var failed []string
	for _, t := range targets {
		if err := checkTarget(out, root, t); err != nil {
			_, _ = fmt.Fprintf(out, "✗ %s: %v\n", t.Name, err)
			slog.Debug("style target failed", logfields.Target(t.Name), logfields.Error(err))
			failed = append(failed, t.Name)
		}
	}
	if len(failed) > 0 {
		return derrors.StyleError(fmt.Sprintf("%d style target(s) failed", len(failed))).
			WithContext("targets", failed).Build()
	}
	return nil
}

func checkTarget(out io.Writer, root string, t stylecfg.Target) error {
	warnings, err := t.Validate()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		_, _ = fmt.Fprintf(out, "! %s: %s\n", t.Name, w)
	}
	if _, err := stylecfg.Smoke(root, t.Record); err != nil {
		return err
	}
	report, err := stylecfg.Scan(root, t.Record)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ %s: %d files, %d classes detected, %d retained, %d safelist-only\n",
		t.Name, len(report.Files), len(report.Detected), len(report.Retained), len(report.SafelistOnly))
	return nil
}

// StylesEmitCmd writes loader files.
type StylesEmitCmd struct {
	TargetFlag `embed:""`
	Stdout bool `name:"stdout" help:"Print the loader files instead of writing them."`
}

func (c *StylesEmitCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	targets, err := selectTargets(cfg, c.Target)
	if err != nil {
		return err
	}
	return RunStylesEmit(g.out(), cfg.Styles.Root, targets, c.Stdout)
}

// RunStylesEmit writes each target's loader file below root, or prints them
// when toStdout is set.
func RunStylesEmit(out io.Writer, root string, targets []stylecfg.Target, toStdout bool) error {
	for i, t := range targets {
		if toStdout {
			if len(targets) > 1 {
				if i > 0 {
					_, _ = fmt.Fprintln(out)
				}
				_, _ = fmt.Fprintf(out, "// %s -> %s\n", t.Name, t.Output)
			}
			if err := stylecfg.WriteJS(out, t.Record); err != nil {
				return err
			}
			continue
		}
		path, err := stylecfg.Emit(root, t)
		if err != nil {
			return err
		}
		slog.Info("Wrote tailwind config", logfields.Target(t.Name), logfields.Path(path))
		_, _ = fmt.Fprintf(out, "%s: %s\n", t.Name, path)
	}
	return nil
}

// StylesScanCmd prints scan reports.
type StylesScanCmd struct {
	TargetFlag `embed:""`
	Format string `name:"format" enum:"text,json" default:"text" help:"Output format (text, json)."`
}

func (c *StylesScanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	targets, err := selectTargets(cfg, c.Target)
	if err != nil {
		return err
	}
	return RunStylesScan(g.out(), cfg.Styles.Root, targets, c.Format)
}

// namedReport pairs a report with its target for JSON output.
type namedReport struct {
	Target string `json:"target"`
	stylecfg.Report
}

// RunStylesScan scans every target and writes the reports in format.
func RunStylesScan(out io.Writer, root string, targets []stylecfg.Target, format string) error {
	reports := make([]namedReport, 0, len(targets))
	for _, t := range targets {
		report, err := stylecfg.Scan(root, t.Record)
		if err != nil {
			return err
		}
		reports = append(reports, namedReport{Target: t.Name, Report: report})
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "encode scan report").Build()
		}
		return nil
	}

	for _, r := range reports {
		_, _ = fmt.Fprintf(out, "target %s\n", r.Target)
		_, _ = fmt.Fprintf(out, "  files (%d):\n", len(r.Files))
		for _, f := range r.Files {
			_, _ = fmt.Fprintf(out, "    %s\n", f)
		}
		for _, g := range r.Unmatched {
			_, _ = fmt.Fprintf(out, "  unmatched glob: %s\n", g)
		}
		_, _ = fmt.Fprintf(out, "  detected (%d): %s\n", len(r.Detected), strings.Join(r.Detected, " "))
		_, _ = fmt.Fprintf(out, "  safelist only (%d): %s\n", len(r.SafelistOnly), strings.Join(r.SafelistOnly, " "))
		if len(r.Redundant) > 0 {
			_, _ = fmt.Fprintf(out, "  redundant safelist (%d): %s\n", len(r.Redundant), strings.Join(r.Redundant, " "))
		}
		_, _ = fmt.Fprintf(out, "  retained: %d\n", len(r.Retained))
	}
	return nil
}

// StylesDumpCmd prints the serialised targets.
type StylesDumpCmd struct {
	TargetFlag `embed:""`
	Format string `name:"format" enum:"json,yaml" default:"json" help:"Output format (json, yaml)."`
}

func (c *StylesDumpCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	targets, err := selectTargets(cfg, c.Target)
	if err != nil {
		return err
	}
	return RunStylesDump(g.out(), targets, c.Format)
}

// RunStylesDump writes targets as JSON or YAML.
func RunStylesDump(out io.Writer, targets []stylecfg.Target, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(targets); err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "encode targets").Build()
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(targets); err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "encode targets").Build()
		}
		return nil
	}
}
