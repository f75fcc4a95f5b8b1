// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/uneet/uneet/internal/config"
	"github.com/uneet/uneet/internal/issue"
	"github.com/uneet/uneet/internal/report"
	"github.com/uneet/uneet/internal/script"
	"github.com/uneet/uneet/internal/testutil"
	"github.com/uneet/uneet/pkg/dom"
	"github.com/uneet/uneet/pkg/uneet"
)

const menuPage = `<!doctype html><html><body>
<nav id="menu" data-gf-uneet="Menu" data-gf-sticky="true">
  <a id="home" data-gf-uneet="Item" data-gf-label="home"></a>
</nav>
</body></html>`

type (
	stubConfigProvider struct {
		cfg *config.Config
		err error
	}

	testApp struct {
		*App
		stdin  *strings.Reader
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	}
)

func (s stubConfigProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cfg, nil
}

// newTestApp returns an App reading cfg (the defaults when nil) with
// in-memory streams.
func newTestApp(t *testing.T, cfg *config.Config, stdin string) *testApp {
	t.Helper()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ta := &testApp{
		stdin:  strings.NewReader(stdin),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	ta.App = NewApp(Dependencies{
		Config: stubConfigProvider{cfg: cfg},
		Stdin:  ta.stdin,
		Stdout: ta.stdout,
		Stderr: ta.stderr,
	})
	return ta
}

func (ta *testApp) execute(args ...string) error {
	root := NewRootCommand(ta.App)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func decodeManifest(t *testing.T, data []byte) *report.Manifest {
	t.Helper()

	var m report.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("stdout is not a JSON manifest: %v\n%s", err, data)
	}
	return &m
}

func TestScan_TextFromFile(t *testing.T) {
	t.Parallel()

	path := testutil.MustWriteFile(t, t.TempDir(), "index.html", menuPage)
	ta := newTestApp(t, nil, "")

	if err := ta.execute("scan", path); err != nil {
		t.Fatalf("scan error = %v\nstderr: %s", err, ta.stderr)
	}

	out := ta.stdout.String()
	for _, want := range []string{`Menu nav#menu {"sticky":true}`, `Item a#home {"label":"home"}`} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "initialized") {
		t.Errorf("a scan must not report initialization states:\n%s", out)
	}
}

func TestScan_JSONFromStdin(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, nil, menuPage)
	if err := ta.execute("scan", "--format", "json"); err != nil {
		t.Fatalf("scan error = %v", err)
	}

	m := decodeManifest(t, ta.stdout.Bytes())
	if _, err := uuid.Parse(m.PassID); err != nil {
		t.Errorf("pass_id %q is not a UUID", m.PassID)
	}
	if m.Source != stdinSource {
		t.Errorf("source = %q, want %q", m.Source, stdinSource)
	}
	names := make([]string, len(m.Components))
	for i, c := range m.Components {
		names[i] = c.Name
	}
	if diff := cmp.Diff([]string{"Menu", "Item"}, names); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
	if m.Components[1].Parent != m.Components[0].Path {
		t.Errorf("Item parent = %q, want %q", m.Components[1].Parent, m.Components[0].Path)
	}
}

func TestScan_ConfigNamespaces(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Namespaces = []string{"app"}
	cfg.Output.Format = config.FormatJSON
	page := testutil.Page(`<div data-app-uneet="Widget"></div><div data-gf-uneet="Menu"></div>`)

	ta := newTestApp(t, cfg, page)
	if err := ta.execute("scan"); err != nil {
		t.Fatalf("scan error = %v", err)
	}
	m := decodeManifest(t, ta.stdout.Bytes())
	if len(m.Components) != 1 || m.Components[0].Name != "Widget" {
		t.Errorf("components = %+v, want only Widget", m.Components)
	}

	// Flags win over the configuration file.
	ta = newTestApp(t, cfg, page)
	if err := ta.execute("scan", "-n", "gf"); err != nil {
		t.Fatalf("scan -n gf error = %v", err)
	}
	m = decodeManifest(t, ta.stdout.Bytes())
	if len(m.Components) != 1 || m.Components[0].Name != "Menu" {
		t.Errorf("components = %+v, want only Menu", m.Components)
	}
}

func TestScan_MultipleDocuments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := testutil.MustWriteFile(t, dir, "a.html", menuPage)
	second := testutil.MustWriteFile(t, dir, "b.html", testutil.Page(`<p>nothing here</p>`))

	ta := newTestApp(t, nil, "")
	if err := ta.execute("scan", first, second); err != nil {
		t.Fatalf("scan error = %v", err)
	}
	out := ta.stdout.String()
	if !strings.Contains(out, first) || !strings.Contains(out, second) {
		t.Errorf("each document should get a header, got:\n%s", out)
	}
	if !strings.Contains(out, "no components found") {
		t.Errorf("empty document should be reported, got:\n%s", out)
	}

	ta = newTestApp(t, nil, "")
	err := ta.execute("scan", "--format", "toml", first, second)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != ExitUsage {
		t.Fatalf("toml with two documents: error = %v, want usage ExitError", err)
	}
	if !errors.Is(err, ErrTooManyDocuments) {
		t.Errorf("error = %v, want ErrTooManyDocuments", err)
	}
}

func TestScan_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page := testutil.MustWriteFile(t, dir, "index.html", menuPage)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantIs   error
		wantID   issue.Id
		wantOp   string
	}{
		{"missing file", []string{"scan", filepath.Join(dir, "nope.html")}, 0, nil, issue.FileNotFoundId, ""},
		{"directory", []string{"scan", dir}, 0, ErrIsDirectory, 0, "load document"},
		{"invalid namespace", []string{"scan", "-n", "Bad-NS", page}, ExitUsage, uneet.ErrInvalidNamespace, issue.InvalidNamespaceId, ""},
		{"invalid marker", []string{"scan", "--marker", "9x", page}, ExitUsage, uneet.ErrInvalidMarkerName, issue.InvalidMarkerNameId, ""},
		{"invalid scope", []string{"scan", "--scope", "div[", page}, ExitUsage, dom.ErrInvalidSelector, issue.InvalidSelectorId, ""},
		{"invalid format", []string{"scan", "--format", "xml", page}, ExitUsage, config.ErrInvalidOutputFormat, 0, ""},
		{"invalid log level", []string{"scan", "--log-level", "loud", page}, ExitUsage, uneet.ErrInvalidLevel, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ta := newTestApp(t, nil, "")
			err := ta.execute(tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantCode != 0 {
				var exitErr *ExitError
				if !errors.As(err, &exitErr) || exitErr.Code != tt.wantCode {
					t.Errorf("error = %v, want ExitError with code %d", err, tt.wantCode)
				}
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want errors.Is %v", err, tt.wantIs)
			}
			if tt.wantID != 0 {
				var svcErr *ServiceError
				if !errors.As(err, &svcErr) || svcErr.IssueID != tt.wantID {
					t.Errorf("error = %v, want ServiceError with issue %d", err, tt.wantID)
				}
				if ta.stderr.Len() == 0 {
					t.Error("the issue help should be rendered to stderr")
				}
			}
			if tt.wantOp != "" {
				var ae *issue.ActionableError
				if !errors.As(err, &ae) || ae.Operation != tt.wantOp {
					t.Fatalf("error = %v, want an ActionableError for %q", err, tt.wantOp)
				}
				for _, sug := range ae.Suggestions {
					if !strings.Contains(ta.stderr.String(), sug) {
						t.Errorf("stderr should list suggestion %q, got:\n%s", sug, ta.stderr)
					}
				}
			}
		})
	}
}

func TestScan_Strict(t *testing.T) {
	t.Parallel()

	page := testutil.Page(`<div data-gf-uneet='{"autoInitialize":false}'></div>`)

	ta := newTestApp(t, nil, page)
	if err := ta.execute("scan"); err != nil {
		t.Fatalf("scan without --strict error = %v", err)
	}

	ta = newTestApp(t, nil, page)
	err := ta.execute("scan", "--strict")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != ExitFailure || !errors.Is(err, ErrDiagnostics) {
		t.Errorf("scan --strict error = %v, want ExitFailure with ErrDiagnostics", err)
	}
}

func TestRun_Scripts(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Components = []config.ComponentEntry{
		{Name: "Menu", Script: `echo "menu $UNEET_PROPS $UNEET_CHILDREN"`},
		{Name: "Item", Script: `echo "item ${PWD##*/} $UNEET_PARENT_PROPS"`},
	}
	dir := t.TempDir()
	path := testutil.MustWriteFile(t, dir, "index.html", menuPage)

	ta := newTestApp(t, cfg, "")
	if err := ta.execute("run", path); err != nil {
		t.Fatalf("run error = %v\nstderr: %s", err, ta.stderr)
	}

	out := ta.stdout.String()
	for _, want := range []string{
		`menu {"sticky":true} 1`,
		`item ` + filepath.Base(dir) + ` {"sticky":true}`,
		"2 initialized, 0 skipped, 0 missing, 0 failed, 0 unnamed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got:\n%s", want, out)
		}
	}
}

func TestRun_JSONKeepsScriptOutputOffStdout(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Components = []config.ComponentEntry{{Name: "Menu", Script: `echo "$UNEET_SHARED"`}}

	ta := newTestApp(t, cfg, menuPage)
	if err := ta.execute("run", "--format", "json"); err != nil {
		t.Fatalf("run error = %v", err)
	}

	m := decodeManifest(t, ta.stdout.Bytes())
	if m.Summary == nil || m.Summary.Initialized != 1 || m.Summary.Missing != 1 {
		t.Errorf("summary = %+v, want 1 initialized and 1 missing", m.Summary)
	}
	if !strings.Contains(ta.stderr.String(), `"pass_id":"`+m.PassID+`"`) {
		t.Errorf("script output should reach stderr with the pass id, got:\n%s", ta.stderr)
	}
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	t.Run("script exit status", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Components = []config.ComponentEntry{{Name: "Menu", Script: "exit 4"}}
		ta := newTestApp(t, cfg, menuPage)

		err := ta.execute("run")
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != ExitFailure {
			t.Fatalf("run error = %v, want ExitFailure", err)
		}
		var svcErr *ServiceError
		if !errors.As(err, &svcErr) || svcErr.IssueID != issue.FactoryFailedId {
			t.Errorf("error = %v, want FactoryFailedId", err)
		}
		if !strings.Contains(ta.stdout.String(), "1 failed") {
			t.Errorf("summary should count the failure:\n%s", ta.stdout)
		}
	})

	t.Run("script syntax", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Components = []config.ComponentEntry{{Name: "Menu", Script: "if then fi"}}
		ta := newTestApp(t, cfg, menuPage)

		err := ta.execute("run")
		var syntaxErr *script.SyntaxError
		if !errors.As(err, &syntaxErr) || syntaxErr.Component != "Menu" {
			t.Fatalf("run error = %v, want a SyntaxError for Menu", err)
		}
		var svcErr *ServiceError
		if !errors.As(err, &svcErr) || svcErr.IssueID != issue.ScriptFailedId {
			t.Errorf("error = %v, want ScriptFailedId", err)
		}
		var ae *issue.ActionableError
		if !errors.As(err, &ae) || ae.Operation != "prepare component scripts" || ae.Resource != stdinSource {
			t.Errorf("error = %v, want an ActionableError naming the document", err)
		}
		if !strings.Contains(ta.stderr.String(), "uneet config show") {
			t.Errorf("stderr should suggest `uneet config show`, got:\n%s", ta.stderr)
		}
	})

	t.Run("no scripts configured", func(t *testing.T) {
		t.Parallel()

		ta := newTestApp(t, nil, menuPage)
		if err := ta.execute("run"); err != nil {
			t.Fatalf("run error = %v", err)
		}
		if !strings.Contains(ta.stderr.String(), "no component scripts are configured") {
			t.Errorf("stderr should warn about the empty components list:\n%s", ta.stderr)
		}
		if !strings.Contains(ta.stdout.String(), "2 missing") {
			t.Errorf("every component should be missing:\n%s", ta.stdout)
		}
	})
}

func TestRun_Force(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Components = []config.ComponentEntry{{Name: "Widget", Script: "true"}}
	page := testutil.Page(`<div data-gf-uneet='{"name":"Widget","autoInitialize":false}'></div>`)

	ta := newTestApp(t, cfg, page)
	if err := ta.execute("run"); err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(ta.stdout.String(), "0 initialized, 1 skipped") {
		t.Errorf("without --force the widget should be skipped:\n%s", ta.stdout)
	}

	ta = newTestApp(t, cfg, page)
	if err := ta.execute("run", "--force"); err != nil {
		t.Fatalf("run --force error = %v", err)
	}
	if !strings.Contains(ta.stdout.String(), "1 initialized, 0 skipped") {
		t.Errorf("--force should initialize the widget:\n%s", ta.stdout)
	}
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	stderr := &bytes.Buffer{}
	app := NewApp(Dependencies{
		Config: stubConfigProvider{err: errors.New("broken config.cue")},
		Stdout: io.Discard,
		Stderr: stderr,
	})

	cfg := app.loadConfig(context.Background(), &rootFlagValues{})
	if diff := cmp.Diff(config.DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr.String(), "broken config.cue") {
		t.Errorf("the load error should be reported as a warning, got %q", stderr)
	}
}

func TestResolvePassSettings(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Namespaces = []string{"app", "ui"}
	cfg.ParentSelector = "#main"
	cfg.IncludeParentSelector = true
	cfg.Output.Format = config.FormatYAML

	tests := []struct {
		name  string
		flags passFlagValues
		want  passSettings
	}{
		{
			name:  "config values",
			flags: passFlagValues{},
			want: passSettings{
				namespaces:   []string{"app", "ui"},
				marker:       "uneet",
				scope:        "#main",
				includeScope: true,
				format:       config.FormatYAML,
			},
		},
		{
			name:  "flags override",
			flags: passFlagValues{namespaces: []string{"gf"}, marker: "widget", scope: "body > main", format: "json"},
			want: passSettings{
				namespaces:   []string{"gf"},
				marker:       "widget",
				scope:        "body > main",
				includeScope: true,
				format:       config.FormatJSON,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolvePassSettings(cfg, &tt.flags)
			if err != nil {
				t.Fatalf("resolvePassSettings() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(passSettings{})); diff != "" {
				t.Errorf("settings mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("empty config falls back to defaults", func(t *testing.T) {
		t.Parallel()

		got, err := resolvePassSettings(&config.Config{}, &passFlagValues{})
		if err != nil {
			t.Fatalf("resolvePassSettings() error = %v", err)
		}
		want := passSettings{namespaces: []string{"gf"}, marker: "uneet", format: config.FormatText}
		if diff := cmp.Diff(want, got, cmp.AllowUnexported(passSettings{})); diff != "" {
			t.Errorf("settings mismatch (-want +got):\n%s", diff)
		}
	})
}
