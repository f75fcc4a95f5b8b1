// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/uneet/uneet/internal/config"
	"github.com/uneet/uneet/internal/issue"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When a command returns a ServiceError, the styled message
// and the issue help text are written to stderr before the error reaches fang.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// renderServiceError renders a ServiceError in the CLI layer. It prints any
// styled message first, then the issue help section in the given glamour style.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, scheme config.ColorScheme) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	renderIssue(stderr, svcErr.IssueID, scheme)
}

// renderIssue writes the catalog entry for id rendered with glamour.
func renderIssue(w io.Writer, id issue.Id, scheme config.ColorScheme) {
	catalogEntry := issue.Get(id)
	if catalogEntry == nil {
		return
	}
	rendered, err := catalogEntry.Render(string(scheme))
	if err != nil {
		fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("(issue %d could not be rendered: %v)", id, err)))
		return
	}
	fmt.Fprint(w, rendered)
}

// renderErr renders err when it is a ServiceError, then the suggestions of
// any ActionableError in its chain, and returns err unchanged so RunE
// handlers can `return a.renderErr(cfg, err)`.
func (a *App) renderErr(cfg *config.Config, err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(a.stderr, svcErr, cfg.UI.ColorScheme)
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.HasSuggestions() {
		for _, s := range ae.Suggestions {
			fmt.Fprintln(a.stderr, SubtitleStyle.Render("  • "+s))
		}
	}
	return err
}
