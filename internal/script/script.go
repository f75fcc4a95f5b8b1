// SPDX-License-Identifier: MPL-2.0

package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/uneet/uneet/internal/config"
	"github.com/uneet/uneet/pkg/dom"
	"github.com/uneet/uneet/pkg/uneet"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	EnvName        = "UNEET_NAME"
	EnvProps       = "UNEET_PROPS"
	EnvPath        = "UNEET_PATH"
	EnvElement     = "UNEET_ELEMENT"
	EnvParent      = "UNEET_PARENT"
	EnvParentProps = "UNEET_PARENT_PROPS"
	EnvChildren    = "UNEET_CHILDREN"
	EnvShared      = "UNEET_SHARED"
)

var (
	// ErrEmptyScript is returned when a component entry has no script body.
	ErrEmptyScript = errors.New("script has no content to execute")

	// ErrScriptExit is wrapped by ExitError.
	ErrScriptExit = errors.New("script exited with non-zero status")
)

type (
	// Runner turns component scripts into factories that run in an embedded
	// POSIX shell. A Runner is safe to reuse across passes.
	Runner struct {
		// Dir is the working directory of every script. Empty means the process
		// working directory.
		Dir string
		// Env is the base environment, in KEY=value form. Nil inherits os.Environ.
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// SyntaxError reports a script that could not be parsed.
	SyntaxError struct {
		Component string
		Cause     error
	}

	// ExitError reports a script that exited with a non-zero status.
	ExitError struct {
		Component string
		Status    int
		Stderr    string
	}

	program struct {
		name string
		file *syntax.File
	}
)

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("script for component %q: %v", e.Component, e.Cause)
}

func (e *SyntaxError) Unwrap() error { return e.Cause }

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("script for component %q exited with status %d", e.Component, e.Status)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return ErrScriptExit }

// Parse checks that source is a valid script without running it.
func Parse(name, source string) (*syntax.File, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &SyntaxError{Component: name, Cause: ErrEmptyScript}
	}
	file, err := syntax.NewParser().Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, &SyntaxError{Component: name, Cause: err}
	}
	return file, nil
}

// Factories parses every entry and returns one factory per component name.
// Scripts run under ctx; canceling it stops the script that is running.
func (r *Runner) Factories(ctx context.Context, entries []config.ComponentEntry) (uneet.Factories, error) {
	factories := make(uneet.Factories, len(entries))
	var errs []error
	for _, e := range entries {
		file, err := Parse(e.Name, e.Script)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p := &program{name: e.Name, file: file}
		factories[e.Name] = uneet.FactoryFunc(func(c uneet.Component, shared *uneet.Shared) error {
			return r.run(ctx, p, c, shared)
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return factories, nil
}

func (r *Runner) run(ctx context.Context, p *program, c uneet.Component, shared *uneet.Shared) error {
	env, err := r.environ(c, shared)
	if err != nil {
		return err
	}

	stdout := r.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	// stderr is captured so a failing script explains itself in the report.
	var stderr bytes.Buffer
	var errOut io.Writer = &stderr
	if r.Stderr != nil {
		errOut = io.MultiWriter(r.Stderr, &stderr)
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, errOut),
	}
	if r.Dir != "" {
		opts = append(opts, interp.Dir(r.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if shared != nil && shared.Log != nil {
		shared.Log.Trace("running script", "component", p.name)
	}

	err = runner.Run(ctx, p.file)
	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ExitError{Component: p.name, Status: int(exitStatus), Stderr: stderr.String()}
		}
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

func (r *Runner) environ(c uneet.Component, shared *uneet.Shared) ([]string, error) {
	base := r.Env
	if base == nil {
		base = os.Environ()
	}
	env := append([]string(nil), base...)

	props, err := encode(c.Props)
	if err != nil {
		return nil, fmt.Errorf("failed to encode props: %w", err)
	}
	env = append(env,
		EnvName+"="+c.Name,
		EnvProps+"="+props,
		EnvPath+"="+dom.Path(c.Node),
		EnvElement+"="+dom.Describe(c.Node),
		EnvChildren+"="+strconv.Itoa(len(c.Children)),
	)

	if c.Parent != nil {
		parentProps, err := encode(c.Parent.Props)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parent props: %w", err)
		}
		env = append(env,
			EnvParent+"="+dom.Path(c.Parent.Node),
			EnvParentProps+"="+parentProps,
		)
	}

	if shared != nil && len(shared.Values) > 0 {
		values, err := encode(shared.Values)
		if err != nil {
			return nil, fmt.Errorf("failed to encode shared values: %w", err)
		}
		env = append(env, EnvShared+"="+values)
	}
	return env, nil
}

func encode[M ~map[string]any](m M) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
