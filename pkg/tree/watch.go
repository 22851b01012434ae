package tree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

const (
	// DefaultSettle is how long the tree must be quiet before a re-render.
	DefaultSettle = 150 * time.Millisecond
	// DefaultMinInterval is the shortest gap allowed between two renders.
	DefaultMinInterval = 500 * time.Millisecond
)

type WatchOpts struct {
	Settle      time.Duration
	MinInterval time.Duration
	// OnRender is called after every completed render, including the first.
	OnRender func(stats *Stats)
}

func (o *WatchOpts) OK() error {
	problems := []string{}

	if o.Settle <= 0 {
		problems = append(problems, "settle delay must be positive")
	}

	if o.MinInterval < 0 {
		problems = append(problems, "minimum render interval must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("options error: %s", strings.Join(problems, "; "))
	}

	return nil
}

// Watcher re-renders a Walker's tree whenever something under its root changes.
type Watcher struct {
	walker  *Walker
	opts    *WatchOpts
	out     io.Writer
	watcher *fsnotify.Watcher
	limiter *rate.Limiter
	rules   *ignoreRules
}

// NewWatcher sets up the fsnotify watcher. Nil opts uses DefaultSettle and DefaultMinInterval.
func NewWatcher(walker *Walker, out io.Writer, opts *WatchOpts) (*Watcher, error) {
	if opts == nil {
		opts = &WatchOpts{
			Settle:      DefaultSettle,
			MinInterval: DefaultMinInterval,
		}
	}

	if err := opts.OK(); err != nil {
		return nil, fmt.Errorf("invalid watch options: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fsnotify watcher: %w", err)
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	return &Watcher{
		walker:  walker,
		opts:    opts,
		out:     out,
		watcher: watcher,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Run renders the tree once, then again after every settled burst of changes. It blocks until ctx is done, returning
// nil on cancellation or the first error that stops rendering.
func (w *Watcher) Run(ctx context.Context) error {
	if w.walker.opts.Gitignore {
		rules, err := loadIgnoreRules(w.walker.Root())
		if err != nil {
			return err
		}

		w.rules = rules
	}

	if err := w.watchDirRecursive(w.walker.Root()); err != nil {
		return err
	}

	if err := w.render(ctx, false); err != nil {
		return err
	}

	var (
		settle  <-chan time.Time
		pending int
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if w.ignoreEvent(event) {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				w.handleCreate(event.Name)
			}

			slog.Debug("Tree changed", "name", event.Name, "op", event.Op.String())

			pending++
			settle = time.After(w.opts.Settle)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			slog.Error("watcher error", "error", err)
		case <-settle:
			settle = nil

			slog.Debug("Re-rendering tree", "changes", pending)
			pending = 0

			if err := w.render(ctx, true); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}

				return err
			}
		}
	}
}

func (w *Watcher) Close() error {
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to shut down fsnotify watcher: %w", err)
	}

	return nil
}

func (w *Watcher) render(ctx context.Context, again bool) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("render throttled: %w", err)
	}

	if again {
		fmt.Fprintln(w.out)
	}

	stats, err := w.walker.Walk(ctx, w.out)
	if err != nil {
		return err
	}

	if w.opts.OnRender != nil {
		w.opts.OnRender(stats)
	}

	return nil
}

// watchDirRecursive adds a watch for path and every directory below it that the walk would descend into.
func (w *Watcher) watchDirRecursive(path string) error {
	err := filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			if walkPath == path {
				return err
			}

			slog.Warn("Not watching unreadable directory", "path", walkPath, "error", err)

			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if walkPath != path && w.skipDir(walkPath) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(walkPath); err != nil {
			return fmt.Errorf("failed to monitor directory %q: %w", walkPath, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set up recursive directory watching for %q: %w", path, err)
	}

	slog.Debug("Watch list", "paths", w.watcher.WatchList())

	return nil
}

func (w *Watcher) handleCreate(name string) {
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() || w.skipDir(name) {
		return
	}

	if err := w.watchDirRecursive(name); err != nil {
		slog.Error("failed to watch new directory", "path", name, "error", err)
	}
}

// skipDir reports whether the walk would leave the directory at path unlisted or unvisited.
func (w *Watcher) skipDir(path string) bool {
	name := filepath.Base(path)
	if name == gitDir || w.walker.isExcluded(name) {
		return true
	}

	return w.rules.ignored(w.relPath(path), true)
}

// relPath splits path into components relative to the walk root, or returns nil if it lies outside it.
func (w *Watcher) relPath(path string) []string {
	rel, err := filepath.Rel(w.walker.Root(), path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}

	return strings.Split(rel, string(filepath.Separator))
}

func (w *Watcher) ignoreEvent(event fsnotify.Event) bool {
	if strings.Contains(event.Name, string(filepath.Separator)+gitDir+string(filepath.Separator)) {
		return true
	}

	// Ignore VIM temp files: backups (~, .swp), swap (numeric names)
	base := filepath.Base(event.Name)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || isNumeric(base) {
		return true
	}

	if w.rules != nil {
		info, err := os.Stat(event.Name)
		isDir := err == nil && info.IsDir()

		return w.rules.ignored(w.relPath(event.Name), isDir)
	}

	return false
}

func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}
