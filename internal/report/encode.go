// SPDX-License-Identifier: MPL-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/uneet/uneet/internal/config"
	"github.com/uneet/uneet/pkg/uneet"
	"gopkg.in/yaml.v3"
)

// unnamedLabel stands in for the name of a component whose marker declared none.
const unnamedLabel = "(unnamed)"

var (
	nameStyle    = lipgloss.NewStyle().Bold(true)
	elementStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	stateStyles  = map[string]lipgloss.Style{
		string(uneet.StateInitialized): lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		string(uneet.StateSkipped):     lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		string(uneet.StateMissing):     lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		string(uneet.StateFailed):      lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		string(uneet.StateUnnamed):     lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// Encode writes m to w in the given format.
func Encode(w io.Writer, format config.OutputFormat, m *Manifest) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(m)
	case config.FormatText, "":
		_, err := io.WriteString(w, Text(m))
		return err
	default:
		return &config.InvalidOutputFormatError{Value: format}
	}
}

// Text renders m as a component tree followed by diagnostics and, after an
// initialization pass, a summary line.
func Text(m *Manifest) string {
	var b strings.Builder

	if len(m.Components) == 0 {
		b.WriteString("no components found\n")
	} else {
		root := tree.New()
		nodes := make(map[string]*tree.Tree, len(m.Components))
		for _, c := range m.Components {
			nodes[c.Path] = tree.Root(label(c))
		}
		// Components come in discovery order, which may list a child first.
		for _, c := range m.Components {
			if parent, ok := nodes[c.Parent]; ok && c.Parent != "" {
				parent.Child(nodes[c.Path])
				continue
			}
			root.Child(nodes[c.Path])
		}
		b.WriteString(root.String())
		b.WriteString("\n")
	}

	if len(m.Diagnostics) > 0 {
		b.WriteString("\n")
		for _, p := range m.Diagnostics {
			style := warningStyle
			if p.Severity == string(uneet.SeverityError) {
				style = errorStyle
			}
			line := fmt.Sprintf("%s [%s] %s", style.Render(p.Severity), p.Code, p.Message)
			if p.Path != "" {
				line += " (" + p.Path + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	if s := m.Summary; s != nil {
		fmt.Fprintf(&b, "\n%d initialized, %d skipped, %d missing, %d failed, %d unnamed\n",
			s.Initialized, s.Skipped, s.Missing, s.Failed, s.Unnamed)
	}
	return b.String()
}

func label(c Component) string {
	name := c.Name
	if name == "" {
		name = unnamedLabel
	}
	parts := []string{nameStyle.Render(name), elementStyle.Render(c.Element)}
	if len(c.Props) > 0 {
		if props, err := json.Marshal(c.Props); err == nil {
			parts = append(parts, string(props))
		}
	}
	if !c.AutoInitialize {
		parts = append(parts, "manual")
	}
	if c.State != "" {
		state := c.State
		if style, ok := stateStyles[c.State]; ok {
			state = style.Render(state)
		}
		parts = append(parts, "["+state+"]")
	}
	if c.Suggestion != "" {
		parts = append(parts, "did you mean "+c.Suggestion+"?")
	}
	return strings.Join(parts, " ")
}
