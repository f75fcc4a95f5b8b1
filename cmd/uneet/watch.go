// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/uneet/uneet/internal/issue"
	"github.com/uneet/uneet/internal/watch"
)

// newWatchCommand creates the `uneet watch` command.
func newWatchCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	pf := &passFlagValues{}
	var run, force bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-scan documents whenever they change",
		Long: `Re-scan documents whenever they change.

Every document below dir (default: the working directory) that matches the
watch patterns is scanned once at start-up and again each time it is saved.
Patterns, ignores and the debounce delay come from the watch section of the
configuration file. With --run the component scripts run on every pass.`,
		Example: `  uneet watch site/
  uneet watch --run --log-level debug`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return app.runWatch(cmd.Context(), rootFlags, pf, passMode{initialize: run, force: force}, dir)
		},
	}
	pf.bind(cmd)
	cmd.Flags().BoolVar(&run, "run", false, "run the component scripts on every pass")
	cmd.Flags().BoolVar(&force, "force", false, "with --run, initialize every component, ignoring autoInitialize settings")

	return cmd
}

func (a *App) runWatch(ctx context.Context, rootFlags *rootFlagValues, pf *passFlagValues, mode passMode, dir string) error {
	cfg := a.loadConfig(ctx, rootFlags)
	settings, err := resolvePassSettings(cfg, pf)
	if err != nil {
		return a.renderErr(cfg, err)
	}
	runner, err := a.newPassRunner(cfg, rootFlags, settings, mode)
	if err != nil {
		return err
	}

	wcfg, err := watch.FromConfig(cfg.Watch, dir)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	wcfg.Stdout = a.stdout
	wcfg.Logger = runner.log

	var base string
	wcfg.OnChange = func(ctx context.Context, changed []string) error {
		sources := make([]string, len(changed))
		for i, rel := range changed {
			sources[i] = filepath.Join(base, filepath.FromSlash(rel))
		}
		_, err := runner.runSources(ctx, sources)
		return a.renderErr(cfg, err)
	}

	w, err := watch.New(wcfg)
	if err != nil {
		return a.renderErr(cfg, newServiceError(err, issue.WatchFailedId, ""))
	}
	base = w.BaseDir()

	initial, err := matchDocuments(base, wcfg.Patterns, wcfg.Ignore)
	if err != nil {
		return a.renderErr(cfg, newServiceError(err, issue.WatchFailedId, ""))
	}
	if len(initial) > 0 {
		if _, err := runner.runSources(ctx, initial); err != nil {
			a.warn(a.renderErr(cfg, err).Error())
		}
	}

	writeLine(a.stderr, SubtitleStyle.Render("watching "+base+" (press Ctrl+C to stop)"))
	if err := w.Run(ctx); err != nil {
		return a.renderErr(cfg, newServiceError(err, issue.WatchFailedId, ""))
	}
	return nil
}

// matchDocuments returns the files below base matching patterns and not
// matching ignores, as sorted absolute paths. Empty patterns select the
// watcher's defaults and the built-in ignores always apply.
func matchDocuments(base string, patterns, ignores []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = watch.DefaultPatterns()
	}
	ignores = append(watch.DefaultIgnores(), ignores...)

	fsys := os.DirFS(base)
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup || ignored(ignores, m) {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	slices.Sort(out)
	for i, rel := range out {
		out[i] = filepath.Join(base, filepath.FromSlash(rel))
	}
	return out, nil
}

func ignored(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
