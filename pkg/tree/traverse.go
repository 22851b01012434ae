package tree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var ErrNotDirectory = errors.New("not a directory")

// Stats counts what one walk printed.
type Stats struct {
	Dirs         int
	MatchedFiles int
	OtherFiles   int
	Warnings     int
}

type Walker struct {
	opts       *Options
	extensions []string
	excluded   map[string]struct{}
	marker     string
	style      *style
}

func New(opts *Options) (*Walker, error) {
	if err := opts.OK(); err != nil {
		return nil, fmt.Errorf("invalid tree options: %w", err)
	}

	extensions, err := opts.Extensions()
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(opts.ExcludedDirs))
	for _, dir := range opts.ExcludedDirs {
		excluded[dir] = struct{}{}
	}

	return &Walker{
		opts:       opts,
		extensions: extensions,
		excluded:   excluded,
		marker:     opts.marker(),
		style:      newStyle(opts.NoColor),
	}, nil
}

func (w *Walker) Root() string {
	return w.opts.Root
}

func (w *Walker) Extensions() []string {
	return slices.Clone(w.extensions)
}

// Walk prints the tree under the root to out, depth first. Each directory lists its matched files with their
// contents, then its other files, then its subdirectories. Unreadable files and subdirectories produce a warning
// line and the walk carries on. Only an unreadable root is returned as an error.
func (w *Walker) Walk(ctx context.Context, out io.Writer) (*Stats, error) {
	root := w.opts.Root

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root %q: %w", root, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("root %q: %w", root, ErrNotDirectory)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list root %q: %w", root, err)
	}

	var rules *ignoreRules
	if w.opts.Gitignore {
		if rules, err = loadIgnoreRules(root); err != nil {
			return nil, err
		}
	}

	current := &walk{
		Walker: w,
		out:    out,
		rules:  rules,
		stats:  &Stats{},
	}

	name := rootName(root)
	current.dirLine("", name)

	if w.isExcluded(name) {
		return current.stats, nil
	}

	if err := current.entries(ctx, root, nil, entries); err != nil {
		return current.stats, err
	}

	slog.Debug("Walked tree", "root", root, "stats", *current.stats)

	return current.stats, nil
}

func (w *Walker) isExcluded(name string) bool {
	_, ok := w.excluded[name]
	return ok
}

func (w *Walker) isMatch(name string) bool {
	for _, ext := range w.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}

	return false
}

// walk is the state of a single Walk call.
type walk struct {
	*Walker

	out   io.Writer
	rules *ignoreRules
	stats *Stats
}

func (wk *walk) dir(ctx context.Context, path string, rel []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("walk interrupted: %w", err)
	}

	name := rel[len(rel)-1]
	indent := indentFor(len(rel))

	wk.dirLine(indent, name)

	if wk.isExcluded(name) {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		slog.Warn("Skipping unreadable directory", "path", path, "error", err)
		wk.warning(indent+indentUnit, "Error listing "+name, err)

		return nil
	}

	return wk.entries(ctx, path, rel, entries)
}

func (wk *walk) entries(ctx context.Context, path string, rel []string, entries []os.DirEntry) error {
	indent := indentFor(len(rel))

	var matched, other, dirs []string

	links := map[string]struct{}{}

	for _, entry := range entries {
		name := entry.Name()
		if wk.rules.ignored(childRel(rel, name), entry.IsDir()) {
			continue
		}

		switch {
		case entry.IsDir():
			dirs = append(dirs, name)
		case isDirLink(filepath.Join(path, name), entry):
			links[name] = struct{}{}
			dirs = append(dirs, name)
		case wk.isMatch(name):
			matched = append(matched, name)
		default:
			other = append(other, name)
		}
	}

	for _, name := range matched {
		wk.matchedFile(indent, filepath.Join(path, name), name)
	}

	for _, name := range other {
		wk.stats.OtherFiles++
		fmt.Fprintf(wk.out, "%s%s%s%s\n", indent, indentUnit, otherIcon, wk.style.other.Sprint(name))
	}

	for _, name := range dirs {
		// Symlinked directories are listed but not followed.
		if _, ok := links[name]; ok {
			wk.dirLine(indent+indentUnit, name)
			continue
		}

		if err := wk.dir(ctx, filepath.Join(path, name), childRel(rel, name)); err != nil {
			return err
		}
	}

	return nil
}

func (wk *walk) matchedFile(indent, path, name string) {
	wk.stats.MatchedFiles++

	fmt.Fprintf(wk.out, "%s%s%s%s\n", indent, indentUnit, wk.marker, wk.style.matched.Sprint(name))

	result := ReadFile(path)
	if !result.OK() {
		slog.Warn("Failed to read matched file", "path", path, "error", result.Err)
		wk.warning(indent+indentUnit+indentUnit, "Error reading "+name, result.Err)

		return
	}

	fmt.Fprintf(wk.out, "%s%s%sContents of %s:\n", indent, indentUnit, indentUnit, name)
	fmt.Fprintln(wk.out, wk.style.rule.Sprint(separator))
	fmt.Fprintln(wk.out, result.Content)
	fmt.Fprintln(wk.out, wk.style.rule.Sprint(separator))
}

func (wk *walk) dirLine(indent, name string) {
	wk.stats.Dirs++
	fmt.Fprintf(wk.out, "%s%s%s\n", indent, dirIcon, wk.style.dir.Sprint(name))
}

func (wk *walk) warning(indent, what string, err error) {
	wk.stats.Warnings++
	fmt.Fprintf(wk.out, "%s%s\n", indent, wk.style.warning.Sprintf("%s%s: %v", warningIcon, what, err))
}

func isDirLink(path string, entry os.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func childRel(rel []string, name string) []string {
	return append(rel[:len(rel):len(rel)], name)
}

// rootName is the base name of root, resolving "." and friends to the real directory name.
func rootName(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	return filepath.Base(root)
}
