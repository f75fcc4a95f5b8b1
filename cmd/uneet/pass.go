// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/uneet/uneet/internal/config"
	"github.com/uneet/uneet/internal/issue"
	"github.com/uneet/uneet/internal/report"
	"github.com/uneet/uneet/internal/script"
	"github.com/uneet/uneet/pkg/dom"
	"github.com/uneet/uneet/pkg/uneet"
)

// stdinSource selects standard input as the document.
const stdinSource = "-"

var (
	// ErrIsDirectory is returned when a directory is given where a document is expected.
	ErrIsDirectory = errors.New("is a directory")
	// ErrTooManyDocuments is returned when TOML output is requested for more than one document.
	ErrTooManyDocuments = errors.New("toml output holds a single document")
)

type (
	// passFlagValues are the discovery flags shared by scan, run and watch.
	passFlagValues struct {
		namespaces   []string
		marker       string
		scope        string
		includeScope bool
		format       string
	}

	// passSettings are the flags merged over the configuration file.
	passSettings struct {
		namespaces   []string
		marker       string
		scope        string
		includeScope bool
		format       config.OutputFormat
	}

	// passMode selects between a discovery pass and a full initialization pass.
	passMode struct {
		initialize bool
		force      bool
	}

	// passRunner runs passes over documents and writes their manifests.
	passRunner struct {
		app      *App
		cfg      *config.Config
		settings passSettings
		mode     passMode
		log      uneet.Logger
	}
)

func (pf *passFlagValues) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVarP(&pf.namespaces, "namespace", "n", nil, "attribute namespace to scan, repeatable (default from config, then gf)")
	f.StringVar(&pf.marker, "marker", "", "marker property name (default from config, then uneet)")
	f.StringVar(&pf.scope, "scope", "", "CSS selector of the elements to search under (default <body>)")
	f.BoolVar(&pf.includeScope, "include-scope", false, "also test the scope elements themselves")
	f.StringVarP(&pf.format, "format", "o", "", "output format: text, json, yaml or toml")
}

// resolvePassSettings merges the flags over cfg and validates the result.
// Invalid settings are usage errors.
func resolvePassSettings(cfg *config.Config, pf *passFlagValues) (passSettings, error) {
	s := passSettings{
		namespaces:   cfg.Namespaces,
		marker:       cfg.MarkerName,
		scope:        cfg.ParentSelector,
		includeScope: cfg.IncludeParentSelector || pf.includeScope,
		format:       cfg.Output.Format,
	}
	if len(pf.namespaces) > 0 {
		s.namespaces = pf.namespaces
	}
	if pf.marker != "" {
		s.marker = pf.marker
	}
	if pf.scope != "" {
		s.scope = pf.scope
	}
	if pf.format != "" {
		s.format = config.OutputFormat(pf.format)
	}
	if len(s.namespaces) == 0 {
		s.namespaces = []string{uneet.DefaultNamespace}
	}
	if s.marker == "" {
		s.marker = uneet.DefaultMarkerName
	}
	if s.format == "" {
		s.format = config.FormatText
	}

	for _, ns := range s.namespaces {
		if err := uneet.ValidateNamespace(ns); err != nil {
			return passSettings{}, usageError(err, issue.InvalidNamespaceId)
		}
	}
	if err := uneet.ValidateMarkerName(s.marker); err != nil {
		return passSettings{}, usageError(err, issue.InvalidMarkerNameId)
	}
	if s.scope != "" {
		if _, err := dom.Compile(s.scope); err != nil {
			return passSettings{}, usageError(err, issue.InvalidSelectorId)
		}
	}
	if ok, errs := s.format.IsValid(); !ok {
		return passSettings{}, &ExitError{Code: ExitUsage, Err: errors.Join(errs...)}
	}
	return s, nil
}

func usageError(err error, id issue.Id) error {
	return &ExitError{Code: ExitUsage, Err: newServiceError(err, id, "")}
}

// newPassRunner resolves the pass logger and returns a runner for the
// given settings.
func (a *App) newPassRunner(cfg *config.Config, flags *rootFlagValues, s passSettings, mode passMode) (*passRunner, error) {
	log, err := a.logger(cfg, flags)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}
	return &passRunner{app: a, cfg: cfg, settings: s, mode: mode, log: log}, nil
}

// runSources runs one pass per source and writes each manifest as soon as it
// is built. The manifests written before a failure are returned with the error.
func (p *passRunner) runSources(ctx context.Context, sources []string) ([]*report.Manifest, error) {
	if p.settings.format == config.FormatTOML && len(sources) > 1 {
		return nil, &ExitError{Code: ExitUsage, Err: fmt.Errorf("%w, got %d", ErrTooManyDocuments, len(sources))}
	}

	multi := len(sources) > 1
	manifests := make([]*report.Manifest, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return manifests, err
		}
		m, err := p.run(ctx, src)
		if err != nil {
			return manifests, err
		}
		if err := p.write(m, multi); err != nil {
			return manifests, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// run executes a single pass over source.
func (p *passRunner) run(ctx context.Context, source string) (*report.Manifest, error) {
	doc, err := p.app.loadDocument(source)
	if err != nil {
		return nil, err
	}

	passID := uuid.NewString()
	opts := uneet.Options{
		Tree:         doc,
		Namespaces:   p.settings.namespaces,
		MarkerName:   p.settings.marker,
		IncludeScope: p.settings.includeScope,
		Force:        p.mode.force,
		Logger:       p.log,
		Shared: &uneet.Shared{Values: map[string]any{
			"pass_id": passID,
			"source":  source,
		}},
	}
	if p.settings.scope != "" {
		opts.Scope = uneet.ScopeSelector(p.settings.scope)
	}
	if p.mode.initialize {
		factories, err := p.factories(ctx, source)
		if err != nil {
			return nil, err
		}
		opts.Factories = factories
	}

	in := report.Input{
		PassID:     passID,
		Source:     source,
		Namespaces: p.settings.namespaces,
		MarkerName: p.settings.marker,
	}
	u := uneet.New(opts)
	if p.mode.initialize {
		res, err := u.Initialize(uneet.Overrides{})
		if err != nil {
			return nil, err
		}
		in.Registry, in.Report = res.Registry, res.Report
	} else {
		reg, err := u.Discover(uneet.Overrides{})
		if err != nil {
			return nil, err
		}
		in.Registry = reg
	}
	return report.Build(in)
}

// factories builds the script factories for a document. Scripts run in the
// document's directory; their stdout joins stderr when stdout carries a
// machine-readable manifest.
func (p *passRunner) factories(ctx context.Context, source string) (uneet.Factories, error) {
	r := &script.Runner{Stdout: p.app.stdout, Stderr: p.app.stderr}
	if p.settings.format != config.FormatText {
		r.Stdout = p.app.stderr
	}
	if source != stdinSource {
		r.Dir = filepath.Dir(source)
	}
	factories, err := r.Factories(ctx, p.cfg.Components)
	if err != nil {
		wrapped := issue.NewErrorContext().
			WithOperation("prepare component scripts").
			WithResource(source).
			WithSuggestion("Check the components list with `uneet config show`").
			Wrap(err).
			Build()
		return nil, usageError(wrapped, issue.ScriptFailedId)
	}
	return factories, nil
}

func (p *passRunner) write(m *report.Manifest, multi bool) error {
	w := p.app.stdout
	switch p.settings.format {
	case config.FormatText:
		if multi {
			writeLine(w, TitleStyle.Render(m.Source))
		}
		if len(m.Components) == 0 {
			renderIssue(p.app.stderr, issue.NoComponentsId, p.cfg.UI.ColorScheme)
		}
	case config.FormatYAML:
		if multi {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}
	}
	return report.Encode(w, p.settings.format, m)
}

// loadDocument parses a document from a file or, for "-", from stdin.
func (a *App) loadDocument(source string) (*dom.Document, error) {
	if source == stdinSource {
		doc, err := dom.Parse(a.stdin)
		if err != nil {
			return nil, newServiceError(issue.WrapWithContext(err, "parse document", "standard input"), issue.InvalidHTMLId, "")
		}
		return doc, nil
	}

	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newServiceError(err, issue.FileNotFoundId, ErrorStyle.Render("✗ ")+source+" does not exist\n")
		}
		return nil, issue.WrapWithContext(err, "load document", source)
	}
	if info.IsDir() {
		return nil, issue.NewErrorContext().
			WithOperation("load document").
			WithResource(source).
			WithSuggestions(
				"Use `uneet watch "+source+"` to follow a directory",
				"Name the documents inside it, for example "+filepath.Join(source, "index.html"),
			).
			Wrap(ErrIsDirectory).
			Build()
	}

	doc, err := dom.ParseFile(source)
	if err != nil {
		return nil, newServiceError(issue.WrapWithContext(err, "parse document", source), issue.InvalidHTMLId, "")
	}
	return doc, nil
}

// sourcesOrStdin returns args, or stdin when no document was named.
func sourcesOrStdin(args []string) []string {
	if len(args) == 0 {
		return []string{stdinSource}
	}
	return args
}
