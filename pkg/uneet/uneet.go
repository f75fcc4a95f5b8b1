// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"dario.cat/mergo"
	"github.com/uneet/uneet/pkg/dom"
)

type (
	// Options configures an Uneet. Only Tree is required.
	Options struct {
		Tree      dom.Tree
		Factories Factories
		// Shared is merged into the context handed to factories.
		Shared *Shared
		// Namespaces defaults to [DefaultNamespace].
		Namespaces []string
		// MarkerName defaults to DefaultMarkerName.
		MarkerName string
		// Scope defaults to the tree's default root.
		Scope Scope
		// IncludeScope also tests the scope roots themselves.
		IncludeScope bool
		Force        bool
		// Logger defaults to a charmbracelet/log logger on stderr at DefaultLevel.
		Logger Logger
	}

	// Overrides extends the base Options for a single call. Zero fields keep
	// the base value; a non-nil boolean replaces the base value either way.
	Overrides struct {
		Namespaces   []string
		MarkerName   string
		Scope        Scope
		IncludeScope *bool
		Force        *bool
		// Factories replaces the base factories when non-nil.
		Factories Factories
		// Shared.Log replaces the logger when set; Shared.Values are merged
		// over the base values.
		Shared *Shared
	}

	// Result is returned by Initialize.
	Result struct {
		Registry *Registry
		Shared   *Shared
		Report   *Report
	}

	// Uneet runs discovery and initialization passes over one tree.
	Uneet struct {
		opts Options
		log  Logger
	}

	// settings are the scalar and slice options that Overrides merge into.
	settings struct {
		Namespaces   []string
		MarkerName   string
		IncludeScope bool
		Force        bool
	}
)

// New returns an Uneet for opts.
func New(opts Options) *Uneet {
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(os.Stderr, DefaultLevel)
	}
	return &Uneet{opts: opts, log: logger}
}

// Discover runs discovery, parsing and linking without calling any factory.
// The returned registry can be filtered before a later Initialize call.
func (u *Uneet) Discover(o Overrides) (*Registry, error) {
	s, err := u.settings(o)
	if err != nil {
		return nil, err
	}
	return u.discover(s, u.scope(o))
}

// Initialize runs a full pass: Discover, then Initialize over the fresh
// registry with the merged factories and shared context.
func (u *Uneet) Initialize(o Overrides) (*Result, error) {
	s, err := u.settings(o)
	if err != nil {
		return nil, err
	}
	reg, err := u.discover(s, u.scope(o))
	if err != nil {
		return nil, err
	}

	factories := u.opts.Factories
	if o.Factories != nil {
		factories = o.Factories
	}
	shared := u.shared(o.Shared)
	report := Initialize(reg, factories, s.Force, shared)
	u.log.Debug("initialization finished",
		"initialized", report.Count(StateInitialized),
		"skipped", report.Count(StateSkipped),
		"missing", report.Count(StateMissing),
		"failed", report.Count(StateFailed))

	return &Result{Registry: reg, Shared: shared, Report: report}, nil
}

func (u *Uneet) discover(s settings, scope Scope) (*Registry, error) {
	tree := u.opts.Tree
	if tree == nil {
		return nil, ErrNoTree
	}

	roots, fellBack := resolveScope(tree, scope)
	if fellBack {
		u.log.Debug("scope did not resolve, using default root", "scope", scope.String())
	}
	selector := MarkerSelector(s.Namespaces, s.MarkerName)
	nodes, err := discoverUnder(tree, roots, selector, s.IncludeScope)
	if err != nil {
		return nil, fmt.Errorf("discover components: %w", err)
	}
	u.log.Trace("discovered nodes", "selector", selector, "count", len(nodes))

	reg := Build(tree, nodes, s.Namespaces, s.MarkerName)
	for _, d := range reg.Diagnostics() {
		u.logDiagnostic(d)
	}

	edges, err := CollectEdges(tree, nodes, reg, selector, tree.DefaultRoot())
	if err != nil {
		return nil, fmt.Errorf("link components: %w", err)
	}
	linked := ApplyEdges(edges, reg)
	u.log.Debug("components discovered", "count", reg.Len(), "edges", len(edges), "linked", linked)
	return reg, nil
}

func (u *Uneet) logDiagnostic(d Diagnostic) {
	kv := []any{"code", d.Code, "path", d.Path}
	if d.Cause != nil {
		kv = append(kv, "err", d.Cause)
	}
	if d.Severity == SeverityError {
		u.log.Error(d.Message, kv...)
		return
	}
	u.log.Warn(d.Message, kv...)
}

func (u *Uneet) settings(o Overrides) (settings, error) {
	s := settings{
		Namespaces:   []string{DefaultNamespace},
		MarkerName:   DefaultMarkerName,
		IncludeScope: u.opts.IncludeScope,
		Force:        u.opts.Force,
	}
	base := settings{Namespaces: slices.Clone(u.opts.Namespaces), MarkerName: u.opts.MarkerName}
	over := settings{Namespaces: slices.Clone(o.Namespaces), MarkerName: o.MarkerName}
	for _, layer := range []settings{base, over} {
		if err := mergo.Merge(&s, layer, mergo.WithOverride); err != nil {
			return settings{}, fmt.Errorf("merge options: %w", err)
		}
	}
	if o.IncludeScope != nil {
		s.IncludeScope = *o.IncludeScope
	}
	if o.Force != nil {
		s.Force = *o.Force
	}

	var errs []error
	for _, ns := range s.Namespaces {
		if err := ValidateNamespace(ns); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ValidateMarkerName(s.MarkerName); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return settings{}, errors.Join(errs...)
	}
	return s, nil
}

// Bool returns a pointer to b, for the boolean fields of Overrides.
func Bool(b bool) *bool { return &b }

func (u *Uneet) scope(o Overrides) Scope {
	if !o.Scope.IsZero() {
		return o.Scope
	}
	return u.opts.Scope
}

// shared builds the context of one Initialize call: the pass logger first,
// then the base Shared, then the call's Shared.
func (u *Uneet) shared(over *Shared) *Shared {
	s := &Shared{Log: u.log, Values: map[string]any{}}
	for _, layer := range []*Shared{u.opts.Shared, over} {
		if layer == nil {
			continue
		}
		if layer.Log != nil {
			s.Log = layer.Log
		}
		maps.Copy(s.Values, layer.Values)
	}
	return s
}
