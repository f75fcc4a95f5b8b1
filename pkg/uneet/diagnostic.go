// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const (
	// SeverityWarning indicates a recoverable problem; the node is still usable.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a node-scoped configuration error.
	SeverityError Severity = "error"

	// CodeMissingName marks an object or array marker that declares no name.
	CodeMissingName DiagnosticCode = "missing_name"
	// CodeInvalidAutoInitialize marks an autoInitialize value that is not a boolean.
	CodeInvalidAutoInitialize DiagnosticCode = "invalid_auto_initialize"
)

var (
	// ErrInvalidSeverity is the sentinel error wrapped by InvalidSeverityError.
	ErrInvalidSeverity = errors.New("invalid severity")
	// ErrInvalidDiagnosticCode is the sentinel error wrapped by InvalidDiagnosticCodeError.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// Diagnostic describes a problem scoped to a single node. Diagnostics are
	// collected on the Registry instead of aborting the pass.
	Diagnostic struct {
		Severity Severity
		Code     DiagnosticCode
		Message  string
		// Node is the element the diagnostic refers to (set once registered).
		Node *html.Node
		// Path is a readable element path for Node.
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}

	// InvalidSeverityError is returned when a Severity value is not recognized.
	InvalidSeverityError struct {
		Value Severity
	}

	// InvalidDiagnosticCodeError is returned when a DiagnosticCode value is not recognized.
	InvalidDiagnosticCodeError struct {
		Value DiagnosticCode
	}
)

// String returns the string representation of the Severity.
func (s Severity) String() string { return string(s) }

// IsValid returns whether the Severity is one of the defined severities.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{&InvalidSeverityError{Value: s}}
	}
}

// String returns the string representation of the DiagnosticCode.
func (c DiagnosticCode) String() string { return string(c) }

// IsValid returns whether the DiagnosticCode is one of the defined codes.
func (c DiagnosticCode) IsValid() (bool, []error) {
	switch c {
	case CodeMissingName, CodeInvalidAutoInitialize:
		return true, nil
	default:
		return false, []error{&InvalidDiagnosticCodeError{Value: c}}
	}
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %s", d.Severity, d.Code, d.Message)
	if d.Path != "" {
		fmt.Fprintf(&sb, " (%s)", d.Path)
	}
	if d.Cause != nil {
		fmt.Fprintf(&sb, ": %v", d.Cause)
	}
	return sb.String()
}

// Error implements the error interface for InvalidSeverityError.
func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid severity %q (valid: warning, error)", e.Value)
}

// Unwrap returns ErrInvalidSeverity for errors.Is() compatibility.
func (e *InvalidSeverityError) Unwrap() error { return ErrInvalidSeverity }

// Error implements the error interface for InvalidDiagnosticCodeError.
func (e *InvalidDiagnosticCodeError) Error() string {
	return fmt.Sprintf("invalid diagnostic code %q", e.Value)
}

// Unwrap returns ErrInvalidDiagnosticCode for errors.Is() compatibility.
func (e *InvalidDiagnosticCodeError) Unwrap() error { return ErrInvalidDiagnosticCode }
