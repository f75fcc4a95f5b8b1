// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a pass when HTML documents change.
//
// A Watcher monitors a directory tree, filters events through doublestar
// globs and calls OnChange once the tree has been quiet for the debounce
// window. Events inside the window are coalesced into one sorted list of
// changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/uneet/uneet/internal/config"
	"github.com/uneet/uneet/pkg/uneet"
)

const defaultDebounce = 500 * time.Millisecond

// clearScreen clears the terminal and homes the cursor.
const clearScreen = "\033[2J\033[H"

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")

	// ErrInvalidPattern is the sentinel error wrapped by InvalidPatternError.
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// defaultPatterns select the documents a pass can parse.
	defaultPatterns = []string{"**/*.html", "**/*.htm"}

	// defaultIgnores are always excluded: VCS metadata, dependency and build
	// output, editor swap files.
	defaultIgnores = []string{
		"**/.git/**",
		"**/node_modules/**",
		"**/dist/**",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
	}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns are doublestar globs relative to BaseDir. Empty selects
		// HTML documents.
		Patterns []string
		// Ignore is merged with the built-in ignores.
		Ignore []string
		// Debounce defaults to 500ms.
		Debounce    time.Duration
		ClearScreen bool
		// BaseDir defaults to the working directory.
		BaseDir string
		// OnChange receives the changed paths relative to BaseDir. A returned
		// error is logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error
		// Stdout receives the clear-screen sequence. Defaults to os.Stdout.
		Stdout io.Writer
		// Logger defaults to a discarding logger.
		Logger uneet.Logger
	}

	// InvalidPatternError reports a glob that doublestar rejects.
	InvalidPatternError struct {
		Kind    string
		Pattern string
	}

	// Watcher monitors BaseDir. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		patterns []string
		ignores  []string
		stdout   io.Writer
		log      uneet.Logger
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}
)

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("watch: invalid %s pattern %q", e.Kind, e.Pattern)
}

func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// FromConfig builds a Config from the watch section of the configuration file.
func FromConfig(wc config.WatchConfig, baseDir string) (Config, error) {
	cfg := Config{
		Patterns:    slices.Clone(wc.Patterns),
		Ignore:      slices.Clone(wc.Ignore),
		ClearScreen: wc.ClearScreen,
		BaseDir:     baseDir,
	}
	if wc.Debounce != "" {
		d, err := wc.Debounce.Duration()
		if err != nil {
			return Config{}, err
		}
		cfg.Debounce = d
	}
	return cfg, nil
}

// IsValid checks every pattern. It does not touch the filesystem.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, p := range c.Patterns {
		if !doublestar.ValidatePattern(p) || p == "" {
			errs = append(errs, &InvalidPatternError{Kind: "watch", Pattern: p})
		}
	}
	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) || p == "" {
			errs = append(errs, &InvalidPatternError{Kind: "ignore", Pattern: p})
		}
	}
	return len(errs) == 0, errs
}

// New validates cfg, resolves BaseDir and registers every non-ignored
// directory below it.
func New(cfg Config) (*Watcher, error) {
	if ok, errs := cfg.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}
	info, err := os.Stat(absBase)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", absBase)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = uneet.Discard()
	}
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = defaultPatterns
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		patterns: patterns,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		stdout:   stdout,
		log:      logger,
		debounce: debounce,
		baseDir:  absBase,
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("closing watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// BaseDir returns the absolute directory being watched.
func (w *Watcher) BaseDir() string { return w.baseDir }

// Run blocks until ctx is canceled. It returns nil on cancellation and an
// error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation since it is scheduled by AfterFunc.
	// Only one callback runs at a time; a busy watcher re-arms the timer so
	// pending paths are not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.log.Debug("pass still running, deferring changes")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.ClearScreen {
			fmt.Fprint(w.stdout, clearScreen)
		}
		w.log.Info("documents changed", "count", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.log.Error("pass failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.log.Warn("closing fsnotify watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(rel) {
				continue
			}
			// New directories are watched even though they never match a
			// document pattern themselves.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.matches(rel) || evt.Op == fsnotify.Chmod {
				continue
			}

			w.log.Trace("change", "path", rel, "op", evt.Op.String())
			mu.Lock()
			pending[filepath.ToSlash(rel)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.log.Warn("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.log.Warn("skipping inaccessible path", "path", path, "err", walkErr)
			return nil //nolint:nilerr // unreadable subtrees are skipped
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if rel != "." && w.isIgnoredDir(rel) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil || w.isIgnoredDir(rel) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn("watching new directory", "path", path, "err", err)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// isIgnoredDir also tries rel with a trailing slash so "**/dist/**" matches
// the dist directory itself.
func (w *Watcher) isIgnoredDir(rel string) bool {
	return w.isIgnored(rel) || w.isIgnored(rel+"/")
}

func (w *Watcher) matches(rel string) bool {
	return matchAny(w.patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultPatterns returns a copy of the patterns used when none are configured.
func DefaultPatterns() []string { return slices.Clone(defaultPatterns) }

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string { return slices.Clone(defaultIgnores) }
