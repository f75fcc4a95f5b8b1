// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/uneet/uneet/internal/config"
	"github.com/uneet/uneet/pkg/uneet"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reads configuration and streams through it.
	App struct {
		Config ConfigProvider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates the CLI application.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads the configuration selected by --config. A broken file is
// reported as a warning and the defaults are used, so a bad config never
// blocks a scan.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) *config.Config {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		a.warn(formatErrorForDisplay(err, flags.verbose))
		return config.DefaultConfig()
	}
	if cfg.UI.Verbose {
		flags.verbose = true
	}
	return cfg
}

// logger builds the pass logger. --log-level wins over the config file and
// --verbose lowers the threshold to debug.
func (a *App) logger(cfg *config.Config, flags *rootFlagValues) (uneet.Logger, error) {
	level := cfg.Level()
	if flags.logLevel != "" {
		parsed, err := uneet.ParseLevel(flags.logLevel)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	if flags.verbose && level > uneet.LevelDebug {
		level = uneet.LevelDebug
	}
	return uneet.NewLogger(a.stderr, level), nil
}

func (a *App) warn(msg string) {
	writeLine(a.stderr, WarningStyle.Render("Warning: ")+msg)
}

func writeLine(w io.Writer, s string) {
	_, _ = io.WriteString(w, s+"\n")
}
