// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uneet/uneet/internal/config"
	"github.com/uneet/uneet/internal/issue"
)

// ErrUnknownConfigKey is returned by `config set` for keys it cannot change.
var ErrUnknownConfigKey = errors.New("unknown configuration key")

// settableKeys lists the keys `config set` accepts, in display order.
var settableKeys = []string{
	"namespaces",
	"marker_name",
	"parent_selector",
	"include_parent_selector",
	"log_level",
	"watch.debounce",
	"watch.clear_screen",
	"ui.color_scheme",
	"ui.verbose",
	"output.format",
}

// newConfigCommand creates the `uneet config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage uneet configuration",
		Long: `Manage uneet configuration.

Configuration is stored in:
  - Linux: ~/.config/uneet/config.cue
  - macOS: ~/Library/Application Support/uneet/config.cue
  - Windows: %APPDATA%\uneet\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd.Context(), rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.initConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfigPath(rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value.\n\nKeys: " + strings.Join(settableKeys, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.setConfigValue(cmd.Context(), rootFlags, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rootFlags.configPath})
			if err != nil {
				return app.configLoadFailed(err)
			}
			_, err = io.WriteString(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	return cfgCmd
}

func (a *App) configLoadFailed(err error) error {
	return a.renderErr(config.DefaultConfig(), newServiceError(err, issue.ConfigLoadFailedId, ""))
}

// configFile returns the file the configuration is read from: --config when
// set, otherwise the default location.
func configFile(rootFlags *rootFlagValues) (string, error) {
	if rootFlags.configPath != "" {
		return rootFlags.configPath, nil
	}
	return config.FilePath("")
}

func (a *App) showConfig(ctx context.Context, rootFlags *rootFlagValues) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return a.configLoadFailed(err)
	}

	w := a.stdout
	keyStyle := KeyStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if cfgPath, pathErr := configFile(rootFlags); pathErr == nil && fileExists(cfgPath) {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfgPath)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("namespaces"), valueStyle.Render(strings.Join(cfg.Namespaces, ", ")))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("marker_name"), valueStyle.Render(cfg.MarkerName))
	parent := SubtitleStyle.Render("(document body)")
	if cfg.ParentSelector != "" {
		parent = valueStyle.Render(cfg.ParentSelector)
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("parent_selector"), parent)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("include_parent_selector"), valueStyle.Render(strconv.FormatBool(cfg.IncludeParentSelector)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(cfg.LogLevel))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("components"))
	if len(cfg.Components) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		for _, c := range cfg.Components {
			if c.Description != "" {
				fmt.Fprintf(w, "  - %s %s\n", valueStyle.Render(c.Name), SubtitleStyle.Render(c.Description))
			} else {
				fmt.Fprintf(w, "  - %s\n", valueStyle.Render(c.Name))
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("watch"))
	fmt.Fprintf(w, "  patterns: %s\n", valueStyle.Render(strings.Join(cfg.Watch.Patterns, ", ")))
	if len(cfg.Watch.Ignore) > 0 {
		fmt.Fprintf(w, "  ignore: %s\n", valueStyle.Render(strings.Join(cfg.Watch.Ignore, ", ")))
	}
	fmt.Fprintf(w, "  debounce: %s\n", valueStyle.Render(string(cfg.Watch.Debounce)))
	fmt.Fprintf(w, "  clear_screen: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Watch.ClearScreen)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("output"))
	fmt.Fprintf(w, "  format: %s\n", valueStyle.Render(string(cfg.Output.Format)))

	return nil
}

func (a *App) initConfig() error {
	cfgPath, err := config.CreateDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	fmt.Fprintf(a.stdout, "%s Configuration file at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

func (a *App) showConfigPath(rootFlags *rootFlagValues) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cfgPath, err := configFile(rootFlags)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(a.stdout, "Config file: %s\n", cfgPath)
	return nil
}

func (a *App) setConfigValue(ctx context.Context, rootFlags *rootFlagValues, key, value string) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return a.configLoadFailed(err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if rootFlags.configPath != "" {
		err = os.WriteFile(rootFlags.configPath, []byte(config.GenerateCUE(cfg)), 0o644)
	} else {
		err = config.Save(cfg)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), KeyStyle.Render(key), value)
	return nil
}

// applyConfigValue sets one key of cfg from its command-line representation.
func applyConfigValue(cfg *config.Config, key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		return b, nil
	}

	var err error
	switch key {
	case "namespaces":
		var namespaces []string
		for ns := range strings.SplitSeq(value, ",") {
			if ns = strings.TrimSpace(ns); ns != "" {
				namespaces = append(namespaces, ns)
			}
		}
		cfg.Namespaces = namespaces
	case "marker_name":
		cfg.MarkerName = value
	case "parent_selector":
		cfg.ParentSelector = value
	case "include_parent_selector":
		cfg.IncludeParentSelector, err = parseBool()
	case "log_level":
		cfg.LogLevel = value
	case "watch.debounce":
		cfg.Watch.Debounce = config.Debounce(value)
	case "watch.clear_screen":
		cfg.Watch.ClearScreen, err = parseBool()
	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)
	case "ui.verbose":
		cfg.UI.Verbose, err = parseBool()
	case "output.format":
		cfg.Output.Format = config.OutputFormat(value)
	default:
		return fmt.Errorf("%w %q (valid keys: %s)", ErrUnknownConfigKey, key, strings.Join(settableKeys, ", "))
	}
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
