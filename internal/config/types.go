// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uneet/uneet/pkg/uneet"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// FormatText renders a styled component tree.
	FormatText OutputFormat = "text"
	// FormatJSON renders the pass manifest as JSON.
	FormatJSON OutputFormat = "json"
	// FormatYAML renders the pass manifest as YAML.
	FormatYAML OutputFormat = "yaml"
	// FormatTOML renders the pass manifest as TOML.
	FormatTOML OutputFormat = "toml"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidDebounce is the sentinel error wrapped by InvalidDebounceError.
	ErrInvalidDebounce = errors.New("invalid debounce duration")
	// ErrInvalidComponentEntry is the sentinel error wrapped by InvalidComponentEntryError.
	ErrInvalidComponentEntry = errors.New("invalid component entry")
	// ErrDuplicateComponent is returned when two component entries share a name.
	ErrDuplicateComponent = errors.New("duplicate component")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// OutputFormat selects how scan and run results are printed.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// Debounce is a Go duration string such as "500ms".
	Debounce string

	// InvalidDebounceError is returned when a Debounce value does not parse
	// or is not positive.
	InvalidDebounceError struct {
		Value Debounce
		Cause error
	}

	// InvalidComponentEntryError is returned when a ComponentEntry has invalid fields.
	InvalidComponentEntryError struct {
		Name        string
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// ComponentEntry declares a script factory for `uneet run`.
	ComponentEntry struct {
		// Name is the component name the script initializes.
		Name string `json:"name" mapstructure:"name"`
		// Script is a POSIX shell snippet run once per admitted component.
		Script string `json:"script" mapstructure:"script"`
		// Description is shown by `uneet config show`.
		Description string `json:"description,omitempty" mapstructure:"description"`
	}

	// Config holds the application configuration.
	Config struct {
		// Namespaces lists the attribute namespaces enabled for discovery
		Namespaces []string `json:"namespaces" mapstructure:"namespaces"`
		// MarkerName is the marker property name (data-<ns>-<marker>)
		MarkerName string `json:"marker_name" mapstructure:"marker_name"`
		// ParentSelector scopes discovery; empty means the body
		ParentSelector string `json:"parent_selector" mapstructure:"parent_selector"`
		// IncludeParentSelector also tests the scope element itself
		IncludeParentSelector bool `json:"include_parent_selector" mapstructure:"include_parent_selector"`
		// LogLevel is the threshold of the pass logger
		LogLevel string `json:"log_level" mapstructure:"log_level"`
		// Components declares the script factories used by `uneet run`
		Components []ComponentEntry `json:"components" mapstructure:"components"`
		// Watch configures `uneet watch`
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Output configures result rendering
		Output OutputConfig `json:"output" mapstructure:"output"`
	}

	// WatchConfig configures file watching.
	WatchConfig struct {
		// Patterns are doublestar globs of files that trigger a pass
		Patterns []string `json:"patterns" mapstructure:"patterns"`
		// Ignore are doublestar globs excluded from watching
		Ignore []string `json:"ignore" mapstructure:"ignore"`
		// Debounce delays a pass until changes settle
		Debounce Debounce `json:"debounce" mapstructure:"debounce"`
		// ClearScreen clears the terminal before each pass
		ClearScreen bool `json:"clear_screen" mapstructure:"clear_screen"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// OutputConfig configures result rendering.
	OutputConfig struct {
		Format OutputFormat `json:"format" mapstructure:"format"`
	}
)

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatText, FormatJSON, FormatYAML, FormatTOML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface for InvalidOutputFormatError.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, yaml, toml)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error {
	return ErrInvalidOutputFormat
}

// Duration parses the debounce value.
func (d Debounce) Duration() (time.Duration, error) {
	dur, err := time.ParseDuration(string(d))
	if err != nil {
		return 0, &InvalidDebounceError{Value: d, Cause: err}
	}
	if dur <= 0 {
		return 0, &InvalidDebounceError{Value: d, Cause: errors.New("must be positive")}
	}
	return dur, nil
}

// IsValid returns whether the Debounce parses to a positive duration.
func (d Debounce) IsValid() (bool, []error) {
	if _, err := d.Duration(); err != nil {
		return false, []error{err}
	}
	return true, nil
}

// Error implements the error interface for InvalidDebounceError.
func (e *InvalidDebounceError) Error() string {
	return fmt.Sprintf("invalid debounce %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidDebounce for errors.Is() compatibility.
func (e *InvalidDebounceError) Unwrap() error { return ErrInvalidDebounce }

// IsValid returns whether the ComponentEntry has a name and a script.
func (e ComponentEntry) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(e.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if strings.TrimSpace(e.Script) == "" {
		errs = append(errs, errors.New("script must not be empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidComponentEntryError{Name: e.Name, FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidComponentEntryError.
func (e *InvalidComponentEntryError) Error() string {
	return fmt.Sprintf("invalid component entry %q: %v", e.Name, errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidComponentEntry for errors.Is() compatibility.
func (e *InvalidComponentEntryError) Unwrap() error { return ErrInvalidComponentEntry }

// IsValid returns whether the Config has valid fields. It checks every
// namespace, the marker name, the log level, each component entry (and name
// uniqueness), the watch debounce, the color scheme and the output format.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, ns := range c.Namespaces {
		if err := uneet.ValidateNamespace(ns); err != nil {
			errs = append(errs, err)
		}
	}
	if err := uneet.ValidateMarkerName(c.MarkerName); err != nil {
		errs = append(errs, err)
	}
	if _, err := uneet.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]bool, len(c.Components))
	for _, entry := range c.Components {
		if valid, fieldErrs := entry.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
		if seen[entry.Name] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateComponent, entry.Name))
		}
		seen[entry.Name] = true
	}
	if valid, fieldErrs := c.Watch.Debounce.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Output.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns the IsValid errors as a single error.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Level returns the parsed log level, falling back to the default level.
func (c Config) Level() uneet.Level {
	level, err := uneet.ParseLevel(c.LogLevel)
	if err != nil {
		return uneet.DefaultLevel
	}
	return level
}

// ComponentsByName returns the component entries keyed by name.
func (c Config) ComponentsByName() map[string]ComponentEntry {
	out := make(map[string]ComponentEntry, len(c.Components))
	for _, entry := range c.Components {
		out[entry.Name] = entry
	}
	return out
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Namespaces:            []string{uneet.DefaultNamespace},
		MarkerName:            uneet.DefaultMarkerName,
		ParentSelector:        "",
		IncludeParentSelector: false,
		LogLevel:              uneet.DefaultLevel.String(),
		Components:            []ComponentEntry{},
		Watch: WatchConfig{
			Patterns:    []string{"**/*.html", "**/*.htm"},
			Ignore:      []string{},
			Debounce:    "500ms",
			ClearScreen: false,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}
