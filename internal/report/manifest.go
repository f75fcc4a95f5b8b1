// SPDX-License-Identifier: MPL-2.0

package report

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uneet/uneet/pkg/dom"
	"github.com/uneet/uneet/pkg/uneet"
)

// ErrNoRegistry is returned by Build when the input carries no registry.
var ErrNoRegistry = errors.New("no registry to report")

type (
	// Input is what a pass produced, plus the settings it ran with.
	Input struct {
		// PassID defaults to a fresh random UUID.
		PassID string
		// Source names the scanned document, a path or "-" for stdin.
		Source     string
		Namespaces []string
		MarkerName string
		Registry   *uneet.Registry
		// Report is nil for a discovery-only pass.
		Report *uneet.Report
		// Now defaults to time.Now.
		Now func() time.Time
	}

	// Manifest is the serializable view of one pass.
	Manifest struct {
		PassID      string      `json:"pass_id" yaml:"pass_id" toml:"pass_id"`
		Source      string      `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
		GeneratedAt time.Time   `json:"generated_at" yaml:"generated_at" toml:"generated_at"`
		Namespaces  []string    `json:"namespaces" yaml:"namespaces" toml:"namespaces"`
		MarkerName  string      `json:"marker_name" yaml:"marker_name" toml:"marker_name"`
		Components  []Component `json:"components" yaml:"components" toml:"components"`
		Diagnostics []Problem   `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" toml:"diagnostics,omitempty"`
		Summary     *Summary    `json:"summary,omitempty" yaml:"summary,omitempty" toml:"summary,omitempty"`
	}

	// Component is one registry entry. Elements are identified by path.
	Component struct {
		Path           string         `json:"path" yaml:"path" toml:"path"`
		Element        string         `json:"element" yaml:"element" toml:"element"`
		Name           string         `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
		Props          map[string]any `json:"props" yaml:"props" toml:"props"`
		AutoInitialize bool           `json:"auto_initialize" yaml:"auto_initialize" toml:"auto_initialize"`
		Extra          map[string]any `json:"extra,omitempty" yaml:"extra,omitempty" toml:"extra,omitempty"`
		Parent         string         `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
		Children       []string       `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
		State          string         `json:"state,omitempty" yaml:"state,omitempty" toml:"state,omitempty"`
		Suggestion     string         `json:"suggestion,omitempty" yaml:"suggestion,omitempty" toml:"suggestion,omitempty"`
		Error          string         `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	}

	// Problem is a serializable diagnostic.
	Problem struct {
		Severity string `json:"severity" yaml:"severity" toml:"severity"`
		Code     string `json:"code" yaml:"code" toml:"code"`
		Message  string `json:"message" yaml:"message" toml:"message"`
		Path     string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
		Cause    string `json:"cause,omitempty" yaml:"cause,omitempty" toml:"cause,omitempty"`
	}

	// Summary counts outcomes by state.
	Summary struct {
		Initialized int `json:"initialized" yaml:"initialized" toml:"initialized"`
		Skipped     int `json:"skipped" yaml:"skipped" toml:"skipped"`
		Missing     int `json:"missing" yaml:"missing" toml:"missing"`
		Failed      int `json:"failed" yaml:"failed" toml:"failed"`
		Unnamed     int `json:"unnamed" yaml:"unnamed" toml:"unnamed"`
	}
)

// Build converts a pass into a Manifest.
func Build(in Input) (*Manifest, error) {
	if in.Registry == nil {
		return nil, ErrNoRegistry
	}
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}

	passID := in.PassID
	if passID == "" {
		passID = uuid.NewString()
	}

	m := &Manifest{
		PassID:      passID,
		Source:      in.Source,
		GeneratedAt: now().UTC(),
		Namespaces:  in.Namespaces,
		MarkerName:  in.MarkerName,
		Components:  make([]Component, 0, in.Registry.Len()),
	}

	index := make(map[string]int, in.Registry.Len())
	for n, d := range in.Registry.All() {
		c := Component{
			Path:           dom.Path(n),
			Element:        dom.Describe(n),
			Name:           d.Name,
			Props:          map[string]any(d.Props.Clone()),
			AutoInitialize: d.Enablement.AutoInitialize,
			Extra:          d.Enablement.Extra,
		}
		if c.Props == nil {
			c.Props = map[string]any{}
		}
		if d.Parent != nil {
			c.Parent = dom.Path(d.Parent)
		}
		for child := range d.Children {
			c.Children = append(c.Children, dom.Path(child))
		}
		index[c.Path] = len(m.Components)
		m.Components = append(m.Components, c)
	}
	// Children come from a map; list them in document order.
	for i := range m.Components {
		slices.SortFunc(m.Components[i].Children, func(a, b string) int {
			return cmp.Compare(index[a], index[b])
		})
	}

	for _, d := range in.Registry.Diagnostics() {
		p := Problem{
			Severity: string(d.Severity),
			Code:     string(d.Code),
			Message:  d.Message,
			Path:     d.Path,
		}
		if d.Cause != nil {
			p.Cause = d.Cause.Error()
		}
		m.Diagnostics = append(m.Diagnostics, p)
	}

	if in.Report != nil {
		if err := m.applyReport(in.Report, index); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manifest) applyReport(r *uneet.Report, index map[string]int) error {
	m.Summary = &Summary{
		Initialized: r.Count(uneet.StateInitialized),
		Skipped:     r.Count(uneet.StateSkipped),
		Missing:     r.Count(uneet.StateMissing),
		Failed:      r.Count(uneet.StateFailed),
		Unnamed:     r.Count(uneet.StateUnnamed),
	}
	for _, o := range r.Outcomes {
		path := dom.Path(o.Node)
		i, ok := index[path]
		if !ok {
			return fmt.Errorf("outcome for %s has no registry entry", path)
		}
		c := &m.Components[i]
		c.State = string(o.State)
		c.Suggestion = o.Suggestion
		if o.Err != nil {
			c.Error = o.Err.Error()
		}
	}
	return nil
}

// HasErrors reports whether the pass recorded an error diagnostic or a failed component.
func (m *Manifest) HasErrors() bool {
	for _, p := range m.Diagnostics {
		if p.Severity == string(uneet.SeverityError) {
			return true
		}
	}
	return m.Summary != nil && m.Summary.Failed > 0
}
