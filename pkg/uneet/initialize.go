// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/sahilm/fuzzy"
	"github.com/uneet/uneet/pkg/dom"
	"golang.org/x/net/html"
)

const (
	// StateSkipped means the ancestor chain did not admit the descriptor.
	StateSkipped State = "skipped"
	// StateInitialized means the factory ran without error.
	StateInitialized State = "initialized"
	// StateMissing means no factory is registered under the descriptor name.
	StateMissing State = "missing"
	// StateFailed means the factory returned an error or panicked.
	StateFailed State = "failed"
	// StateUnnamed means the descriptor was admitted but has no name.
	StateUnnamed State = "unnamed"
)

// ErrFactoryFailed is wrapped by FactoryError.
var ErrFactoryFailed = errors.New("factory failed")

type (
	// Factory initializes one component.
	Factory interface {
		Init(c Component, shared *Shared) error
	}

	// FactoryFunc adapts a function to Factory.
	FactoryFunc func(c Component, shared *Shared) error

	// Factories maps component names to factories.
	Factories map[string]Factory

	// Shared is the context passed unchanged to every factory of a pass.
	Shared struct {
		Log    Logger
		Values map[string]any
	}

	// State is the final state of a descriptor after Initialize.
	State string

	// Outcome records what Initialize did with one descriptor.
	Outcome struct {
		Node  *html.Node
		Name  string
		State State
		// Suggestion is the closest registered factory name for missing components.
		Suggestion string
		Err        error
	}

	// Report lists one Outcome per descriptor, in registry order.
	Report struct {
		Outcomes []Outcome
	}

	// FactoryError wraps an error returned by a factory.
	FactoryError struct {
		Name  string
		Path  string
		Cause error
	}
)

// Init calls f.
func (f FactoryFunc) Init(c Component, shared *Shared) error { return f(c, shared) }

// Names returns the registered names in sorted order.
func (f Factories) Names() []string {
	return slices.Sorted(maps.Keys(f))
}

// Error implements the error interface.
func (e *FactoryError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("component %q at %s: %v", e.Name, e.Path, e.Cause)
	}
	return fmt.Sprintf("component %q: %v", e.Name, e.Cause)
}

// Unwrap exposes both ErrFactoryFailed and the factory's own error.
func (e *FactoryError) Unwrap() []error { return []error{ErrFactoryFailed, e.Cause} }

// Count returns the number of outcomes in state.
func (r *Report) Count(state State) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

// Err joins the errors of failed outcomes, or returns nil.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, o := range r.Outcomes {
		if o.State == StateFailed {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// ShouldInitialize reports whether d is admitted: force admits everything,
// otherwise d and every ancestor up to its root must keep AutoInitialize and
// every parent reference must resolve in reg.
func ShouldInitialize(d *Descriptor, reg *Registry, force bool) bool {
	if force {
		return true
	}
	visited := make(map[*html.Node]struct{})
	for cur := d; ; {
		if !cur.Enablement.AutoInitialize {
			return false
		}
		if cur.Parent == nil {
			return true
		}
		// A cycle can only come from a hand-built registry.
		if _, seen := visited[cur.Node]; seen {
			return false
		}
		visited[cur.Node] = struct{}{}

		parent, ok := reg.Get(cur.Parent)
		if !ok {
			return false
		}
		cur = parent
	}
}

// Initialize visits every descriptor of reg once, in registry order, and
// calls the factory registered under its name when ShouldInitialize admits
// it. Missing factories and factory errors are logged and recorded in the
// report; they never stop the pass.
func Initialize(reg *Registry, factories Factories, force bool, shared *Shared) *Report {
	if shared == nil {
		shared = &Shared{}
	}
	logger := shared.Log
	if logger == nil {
		logger = Discard()
	}

	report := &Report{}
	for n, d := range reg.All() {
		o := Outcome{Node: n, Name: d.Name}
		switch {
		case !ShouldInitialize(d, reg, force):
			o.State = StateSkipped
			logger.Debug("skipping component", "name", d.Name, "node", dom.Describe(n))
		case !d.Named():
			o.State = StateUnnamed
			logger.Debug("skipping unnamed component", "path", dom.Path(n))
		default:
			factory, ok := factories[d.Name]
			if !ok {
				o.State = StateMissing
				o.Suggestion = suggest(d.Name, factories)
				kv := []any{"name", d.Name, "path", dom.Path(n)}
				if o.Suggestion != "" {
					kv = append(kv, "did_you_mean", o.Suggestion)
				}
				logger.Warn("no factory registered for component", kv...)
				break
			}
			if err := callFactory(factory, d.Component(), shared); err != nil {
				o.State = StateFailed
				o.Err = &FactoryError{Name: d.Name, Path: dom.Path(n), Cause: err}
				logger.Error("component initialization failed", "name", d.Name, "path", dom.Path(n), "err", err)
				break
			}
			o.State = StateInitialized
			logger.Trace("component initialized", "name", d.Name, "node", dom.Describe(n))
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	return report
}

func callFactory(f Factory, c Component, shared *Shared) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return f.Init(c, shared)
}

func suggest(name string, factories Factories) string {
	if len(factories) == 0 {
		return ""
	}
	matches := fuzzy.Find(name, factories.Names())
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
