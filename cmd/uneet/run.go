// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uneet/uneet/internal/issue"
	"github.com/uneet/uneet/internal/report"
)

// newRunCommand creates the `uneet run` command.
func newRunCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	pf := &passFlagValues{}
	var force bool

	cmd := &cobra.Command{
		Use:   "run [file...]",
		Short: "Discover components and initialize them with the configured scripts",
		Long: `Discover components and initialize them with the configured scripts.

Every component admitted by its ancestor chain runs the script declared for
its name in the components section of the configuration file. Scripts run in
an embedded POSIX shell in the document's directory and receive the component
through UNEET_* environment variables:

  UNEET_NAME, UNEET_PROPS (JSON), UNEET_PATH, UNEET_ELEMENT,
  UNEET_PARENT, UNEET_PARENT_PROPS, UNEET_CHILDREN, UNEET_SHARED (JSON)

Components without a script are reported as missing, with the closest
configured name as a suggestion. The command exits with status 1 when a
script fails.`,
		Example: `  uneet run index.html
  uneet run --force --format json index.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runRun(cmd.Context(), rootFlags, pf, force, args)
		},
	}
	pf.bind(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "initialize every component, ignoring autoInitialize settings")

	return cmd
}

func (a *App) runRun(ctx context.Context, rootFlags *rootFlagValues, pf *passFlagValues, force bool, args []string) error {
	cfg := a.loadConfig(ctx, rootFlags)
	settings, err := resolvePassSettings(cfg, pf)
	if err != nil {
		return a.renderErr(cfg, err)
	}
	if len(cfg.Components) == 0 {
		a.warn("no component scripts are configured; every named component will be reported as missing")
	}
	runner, err := a.newPassRunner(cfg, rootFlags, settings, passMode{initialize: true, force: force})
	if err != nil {
		return err
	}

	manifests, err := runner.runSources(ctx, sourcesOrStdin(args))
	if err != nil {
		return a.renderErr(cfg, err)
	}
	if failed := countFailed(manifests); failed > 0 {
		err := newServiceError(fmt.Errorf("%d component(s) failed to initialize", failed), issue.FactoryFailedId, "")
		return a.renderErr(cfg, &ExitError{Code: ExitFailure, Err: err})
	}
	return nil
}

func countFailed(manifests []*report.Manifest) int {
	n := 0
	for _, m := range manifests {
		if m.Summary != nil {
			n += m.Summary.Failed
		}
	}
	return n
}
