// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/uneet/uneet/internal/report"
)

// ErrDiagnostics is returned by `scan --strict` when a pass reported an error diagnostic.
var ErrDiagnostics = errors.New("discovery reported errors")

// newScanCommand creates the `uneet scan` command.
func newScanCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	pf := &passFlagValues{}
	var strict bool

	cmd := &cobra.Command{
		Use:   "scan [file...]",
		Short: "Discover components and print the linked component tree",
		Long: `Discover components and print the linked component tree.

Each document is parsed, every element carrying a marker attribute is read
into a descriptor, and nested descriptors are linked to their closest marked
ancestor. No factory runs. Without a file, the document is read from stdin.`,
		Example: `  uneet scan index.html
  uneet scan -n app -n ui --scope '#main' page.html
  curl -s https://example.com | uneet scan --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runScan(cmd.Context(), rootFlags, pf, strict, args)
		},
	}
	pf.bind(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 1 when a diagnostic of severity error is reported")

	return cmd
}

func (a *App) runScan(ctx context.Context, rootFlags *rootFlagValues, pf *passFlagValues, strict bool, args []string) error {
	cfg := a.loadConfig(ctx, rootFlags)
	settings, err := resolvePassSettings(cfg, pf)
	if err != nil {
		return a.renderErr(cfg, err)
	}
	runner, err := a.newPassRunner(cfg, rootFlags, settings, passMode{})
	if err != nil {
		return err
	}

	manifests, err := runner.runSources(ctx, sourcesOrStdin(args))
	if err != nil {
		return a.renderErr(cfg, err)
	}
	if strict && anyErrors(manifests) {
		return &ExitError{Code: ExitFailure, Err: ErrDiagnostics}
	}
	return nil
}

func anyErrors(manifests []*report.Manifest) bool {
	for _, m := range manifests {
		if m.HasErrors() {
			return true
		}
	}
	return false
}
