// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/uneet/uneet/internal/issue"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.cue")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if diff := cmp.Diff([]string{"gf"}, cfg.Namespaces); diff != "" {
		t.Errorf("Namespaces mismatch (-want +got):\n%s", diff)
	}
	if cfg.MarkerName != "uneet" {
		t.Errorf("MarkerName = %q, want uneet", cfg.MarkerName)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.Output.Format != FormatText {
		t.Errorf("Output.Format = %q, want text", cfg.Output.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	loaded, err := LoadWithPath(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Path != "" {
		t.Errorf("Path = %q, want empty for defaults", loaded.Path)
	}
	if diff := cmp.Diff(DefaultConfig(), loaded.Config, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
namespaces: ["gf", "app"]
marker_name: "widget"
log_level: "debug"
components: [
	{name: "Menu", script: "echo menu $UNEET_NAME", description: "prints the menu"},
]
watch: {
	debounce: "2s"
}
output: format: "yaml"
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{"gf", "app"}, cfg.Namespaces); diff != "" {
		t.Errorf("Namespaces mismatch (-want +got):\n%s", diff)
	}
	if cfg.MarkerName != "widget" || cfg.LogLevel != "debug" {
		t.Errorf("MarkerName/LogLevel = %q/%q", cfg.MarkerName, cfg.LogLevel)
	}
	want := []ComponentEntry{{Name: "Menu", Script: "echo menu $UNEET_NAME", Description: "prints the menu"}}
	if diff := cmp.Diff(want, cfg.Components); diff != "" {
		t.Errorf("Components mismatch (-want +got):\n%s", diff)
	}
	if cfg.Watch.Debounce != "2s" {
		t.Errorf("Watch.Debounce = %q, want 2s", cfg.Watch.Debounce)
	}
	// Fields the file leaves out keep their defaults.
	if diff := cmp.Diff([]string{"**/*.html", "**/*.htm"}, cfg.Watch.Patterns); diff != "" {
		t.Errorf("Watch.Patterns mismatch (-want +got):\n%s", diff)
	}
	if cfg.Output.Format != FormatYAML {
		t.Errorf("Output.Format = %q, want yaml", cfg.Output.Format)
	}
}

func TestLoad_ConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(path, []byte(`include_parent_selector: true`), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadWithPath(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Path != path || !loaded.Config.IncludeParentSelector {
		t.Errorf("loaded = %+v, want %s with include_parent_selector", loaded, path)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `namespaces: [`, "config.cue"},
		{"unknown field", `colour: "red"`, "colour"},
		{"bad namespace", `namespaces: ["G-F"]`, "namespaces"},
		{"empty namespaces", `namespaces: []`, "namespaces"},
		{"bad log level", `log_level: "loud"`, "log_level"},
		{"bad format", `output: format: "xml"`, "output.format"},
		{"component without script", `components: [{name: "A", script: ""}]`, "components"},
		{"duplicate components", `components: [{name: "A", script: "true"}, {name: "A", script: "false"}]`, "duplicate component"},
		{"zero debounce", `watch: debounce: "0s"`, "debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, tt.content)
			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatalf("Load() should fail for %s", tt.name)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T", err)
			}
			if !strings.Contains(ae.Format(true), tt.want) {
				t.Errorf("error %q should mention %q", ae.Format(true), tt.want)
			}
		})
	}
}

func TestLoad_MissingCustomPath(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T (%v)", err, err)
	}
	if !ae.HasSuggestions() || ae.Operation != "load configuration" {
		t.Errorf("ActionableError = %+v", ae)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Namespaces = []string{"gf", "app"}
	cfg.ParentSelector = "#main"
	cfg.Components = []ComponentEntry{
		{Name: "Menu", Script: `echo "menu"`, Description: "menu"},
		{Name: "Tabs", Script: "true"},
	}
	cfg.Watch.Ignore = []string{"dist/**"}
	cfg.Output.Format = FormatTOML

	path := writeConfig(t, GenerateCUE(cfg))
	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load(generated) error = %v\n%s", err, GenerateCUE(cfg))
	}
	if diff := cmp.Diff(cfg, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil || got != dir {
		t.Errorf("ConfigDir() = %q, %v, want %q", got, err, dir)
	}

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("CreateDefaultConfig() path = %q", path)
	}

	cfg := DefaultConfig()
	cfg.LogLevel = "info"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadWithPath(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Config.LogLevel != "info" {
		t.Errorf("LogLevel after Save = %q, want info", loaded.Config.LogLevel)
	}
}
