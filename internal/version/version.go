package version

import (
	"runtime/debug"
	"strings"
)

// Set via -ldflags at release time. All three are empty for local builds.
//
//nolint:gochecknoglobals
var (
	Version string
	Commit  string
	Date    string
)

// String returns the version shown by --version, picking the first of:
//  1. Version from ldflags
//  2. the module version recorded by `go install pkg@vX.Y.Z`
//  3. "dev-" plus a short commit, from ldflags or VCS build info, with "-dirty" for modified trees
//  4. "dev"
func String() string {
	if v := strings.TrimSpace(Version); v != "" {
		return withDate(v)
	}

	info, ok := debug.ReadBuildInfo()
	if ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	if c := strings.TrimSpace(Commit); c != "" {
		return withDate(shaVersion(c, false))
	}

	if ok {
		var revision string

		var modified bool

		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value == "true"
			}
		}

		if revision != "" {
			return shaVersion(revision, modified)
		}
	}

	return "dev"
}

func shaVersion(sha string, dirty bool) string {
	sha = strings.TrimSpace(sha)
	if len(sha) >= 7 {
		sha = sha[:7]
	}

	if dirty {
		sha += "-dirty"
	}

	return "dev-" + sha
}

func withDate(v string) string {
	if d := strings.TrimSpace(Date); d != "" {
		return v + " (" + d + ")"
	}

	return v
}
