package tree_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cneill/devtools/pkg/tree"
)

// writeTree creates files (relative path -> content) under a fresh "project" directory and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "project")
	require.NoError(t, os.MkdirAll(root, 0o755))

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return root
}

func walkTree(t *testing.T, opts *tree.Options) (string, *tree.Stats) {
	t.Helper()

	opts.NoColor = true

	walker, err := tree.New(opts)
	require.NoError(t, err)

	out := &bytes.Buffer{}

	stats, err := walker.Walk(t.Context(), out)
	require.NoError(t, err)

	return out.String(), stats
}

func optsFor(root string, exts ...string) *tree.Options {
	opts := tree.DefaultOptions()
	opts.Root = root
	opts.MatchExtensions = exts

	return opts
}

func TestWalk_Layout(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.js":      "const a = 1;",
		"b.txt":     "not printed",
		"sub/c.jsx": "<C />",
	})

	output, stats := walkTree(t, optsFor(root, ".js", ".jsx"))

	rule := strings.Repeat("-", 40)
	expected := strings.Join([]string{
		"📁 project",
		"    🐈 a.js",
		"        Contents of a.js:",
		rule,
		"const a = 1;",
		rule,
		"    📄 b.txt",
		"    📁 sub",
		"        🐈 c.jsx",
		"            Contents of c.jsx:",
		rule,
		"<C />",
		rule,
	}, "\n") + "\n"

	require.Equal(t, expected, output)
	require.Equal(t, tree.Stats{Dirs: 2, MatchedFiles: 2, OtherFiles: 1}, *stats)
}

func TestWalk_MatchedBeforeOtherBeforeDirs(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"z.py":       "z",
		"a.md":       "a",
		"m.js":       "m",
		"aaa/b.jsx":  "b",
		"zzz/README": "r",
	})

	output, _ := walkTree(t, optsFor(root))

	order := []string{"🐈 m.js", "🐈 z.py", "📄 a.md", "📁 aaa", "🐈 b.jsx", "📁 zzz", "📄 README"}
	last := -1

	for _, marker := range order {
		idx := strings.Index(output, marker)
		require.Greater(t, idx, last, "%q out of order in:\n%s", marker, output)
		last = idx
	}
}

func TestWalk_ExcludedDirsNotDescended(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"index.js":                       "ok",
		"node_modules/lib.js":            "secret",
		"node_modules/pkg/deep/index.js": "secret",
		"vendor/dep.js":                  "vendored",
	})

	output, stats := walkTree(t, optsFor(root, ".js"))

	require.Contains(t, output, "    📁 node_modules\n")
	require.NotContains(t, output, "lib.js")
	require.NotContains(t, output, "pkg")
	require.NotContains(t, output, "secret")
	require.Contains(t, output, "vendored")
	require.Equal(t, 3, stats.Dirs)

	opts := optsFor(root, ".js")
	opts.ExcludedDirs = []string{"vendor"}

	output, _ = walkTree(t, opts)
	require.Contains(t, output, "secret")
	require.NotContains(t, output, "vendored")
}

func TestWalk_ReadFailuresContinue(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a_binary.js":  "\x00\x01\x02",
		"b_latin1.js":  "caf\xe9",
		"c_fine.js":    "still printed",
		"sub/d_ok.jsx": "also printed",
	})

	output, stats := walkTree(t, optsFor(root, ".js", ".jsx"))

	require.Contains(t, output, "    🐈 a_binary.js\n        ⚠️ Error reading a_binary.js: "+tree.ErrBinaryContent.Error()+"\n")
	require.Contains(t, output, "    🐈 b_latin1.js\n        ⚠️ Error reading b_latin1.js: "+tree.ErrInvalidUTF8.Error()+"\n")
	require.Contains(t, output, "still printed")
	require.Contains(t, output, "also printed")
	require.NotContains(t, output, "Contents of a_binary.js")
	require.Equal(t, 2, stats.Warnings)
	require.Equal(t, 4, stats.MatchedFiles)
}

func TestWalk_SymlinkedDirectoryWithMatchingName(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"real/x.txt": "x"})
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link.js")))

	output, stats := walkTree(t, optsFor(root, ".js"))

	require.Contains(t, output, "    📁 link.js\n    📁 real\n")
	require.NotContains(t, output, "🐈 link.js")
	require.Zero(t, stats.Warnings)
	require.Equal(t, 3, stats.Dirs)
	require.Equal(t, 1, strings.Count(output, "x.txt"), "symlinked directories are not followed")
}

func TestWalk_PresetMarkers(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"app.js": "app", "view.jsx": "view"})

	opts := optsFor(root)
	opts.Preset = tree.PresetJS

	output, _ := walkTree(t, opts)
	require.Contains(t, output, "    🐍 app.js\n")
	require.Contains(t, output, "    📄 view.jsx\n")

	opts = optsFor(root)
	opts.Preset = tree.PresetJS
	opts.MatchExtensions = []string{".jsx"}

	output, _ = walkTree(t, opts)
	require.Contains(t, output, "    🐍 view.jsx\n", "explicit extensions keep the preset marker")

	output, _ = walkTree(t, optsFor(root))
	require.Contains(t, output, "    🐈 app.js\n")
	require.Contains(t, output, "    🐈 view.jsx\n")
}

func TestWalk_UnreadableSubdirectory(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := writeTree(t, map[string]string{
		"locked/hidden.js": "hidden",
		"open/seen.js":     "seen",
	})

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	output, stats := walkTree(t, optsFor(root, ".js"))

	require.Contains(t, output, "    📁 locked\n        ⚠️ Error listing locked: ")
	require.NotContains(t, output, "hidden")
	require.Contains(t, output, "seen")
	require.Equal(t, 1, stats.Warnings)
}

func TestWalk_RootErrors(t *testing.T) {
	t.Parallel()

	walker, err := tree.New(optsFor(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	_, err = walker.Walk(t.Context(), out)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Empty(t, out.String())

	file := filepath.Join(t.TempDir(), "file.js")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	walker, err = tree.New(optsFor(file))
	require.NoError(t, err)

	_, err = walker.Walk(t.Context(), out)
	require.ErrorIs(t, err, tree.ErrNotDirectory)
}

func TestWalk_Cancelled(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"sub/a.js": "a"})

	walker, err := tree.New(optsFor(root, ".js"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = walker.Walk(ctx, &bytes.Buffer{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWalk_Gitignore(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		".gitignore":         "dist/\n*.log\n",
		".git/HEAD":          "ref: refs/heads/main",
		"app.js":             "app",
		"debug.log":          "noise",
		"dist/bundle.js":     "built",
		"src/.gitignore":     "generated.js\n",
		"src/generated.js":   "generated",
		"src/handwritten.js": "handwritten",
	})

	opts := optsFor(root, ".js")
	opts.Gitignore = true

	output, _ := walkTree(t, opts)

	require.Contains(t, output, "🐈 app.js")
	require.Contains(t, output, "📄 .gitignore")
	require.Contains(t, output, "handwritten")
	require.NotContains(t, output, "debug.log")
	require.NotContains(t, output, "dist")
	require.NotContains(t, output, "generated.js")
	require.NotContains(t, output, "📁 .git\n")

	// Without the option everything is listed.
	output, _ = walkTree(t, optsFor(root, ".js"))
	require.Contains(t, output, "debug.log")
	require.Contains(t, output, "📁 .git\n")
}
