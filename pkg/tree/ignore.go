package tree

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const gitDir = ".git"

// ignoreRules answers whether a path, relative to the walk root and split into components, should be omitted.
type ignoreRules struct {
	matcher gitignore.Matcher
}

// loadIgnoreRules reads every .gitignore under root. Nested files apply to their own subtree, as git does.
func loadIgnoreRules(root string) (*ignoreRules, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore patterns under %q: %w", root, err)
	}

	return &ignoreRules{matcher: gitignore.NewMatcher(patterns)}, nil
}

func (i *ignoreRules) ignored(rel []string, isDir bool) bool {
	if i == nil || len(rel) == 0 {
		return false
	}

	if isDir && rel[len(rel)-1] == gitDir {
		return true
	}

	return i.matcher.Match(rel, isDir)
}
