package tree

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

const (
	PresetJS  = "js"
	PresetWeb = "web"

	DefaultPreset = PresetWeb
)

var ErrUnknownPreset = errors.New("unknown preset")

// DefaultExcludedDirs are listed but never descended into.
func DefaultExcludedDirs() []string {
	return []string{"node_modules"}
}

// preset is a historical walker configuration: the extensions whose contents get printed and the icon marking them.
type preset struct {
	extensions []string
	marker     string
}

//nolint:gochecknoglobals
var presets = map[string]preset{
	PresetJS:  {extensions: []string{".js"}, marker: "🐍 "},
	PresetWeb: {extensions: []string{".py", ".js", ".jsx"}, marker: "🐈 "},
}

// PresetNames returns the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// PresetExtensions returns a copy of the extensions for the named preset.
func PresetExtensions(name string) ([]string, error) {
	p, err := lookupPreset(name)
	if err != nil {
		return nil, err
	}

	return slices.Clone(p.extensions), nil
}

func lookupPreset(name string) (preset, error) {
	p, ok := presets[strings.ToLower(name)]
	if !ok {
		return preset{}, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownPreset, name, strings.Join(PresetNames(), ", "))
	}

	return p, nil
}

// NormalizeExtension trims whitespace and makes sure ext starts with a dot.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}

	return "." + ext
}

type Options struct {
	Root string

	// Preset picks the match marker, and the extension list when MatchExtensions is empty.
	Preset string
	// MatchExtensions overrides Preset when set.
	MatchExtensions []string
	// ExcludedDirs are directory base names that are printed but not descended into.
	ExcludedDirs []string

	// Gitignore omits anything matched by .gitignore files under Root, along with .git itself.
	Gitignore bool
	NoColor   bool
}

func DefaultOptions() *Options {
	return &Options{
		Root:         ".",
		Preset:       DefaultPreset,
		ExcludedDirs: DefaultExcludedDirs(),
	}
}

func (o *Options) OK() error {
	problems := []string{}

	if o.Root == "" {
		problems = append(problems, "must supply root directory")
	}

	if _, err := lookupPreset(o.presetName()); err != nil {
		problems = append(problems, err.Error())
	}

	for _, ext := range o.MatchExtensions {
		if NormalizeExtension(ext) == "" {
			problems = append(problems, "match extensions must not be empty")
			break
		}
	}

	for _, dir := range o.ExcludedDirs {
		if dir == "" || strings.ContainsAny(dir, `/\`) {
			problems = append(problems, fmt.Sprintf("excluded dir %q must be a plain directory name", dir))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("options error: %s", strings.Join(problems, "; "))
	}

	return nil
}

// Extensions resolves the normalised extension list, preferring MatchExtensions over Preset.
func (o *Options) Extensions() ([]string, error) {
	if len(o.MatchExtensions) == 0 {
		return PresetExtensions(o.presetName())
	}

	exts := make([]string, 0, len(o.MatchExtensions))

	for _, ext := range o.MatchExtensions {
		normalized := NormalizeExtension(ext)
		if normalized == "" || slices.Contains(exts, normalized) {
			continue
		}

		exts = append(exts, normalized)
	}

	return exts, nil
}

// marker is the icon printed before matched file names.
func (o *Options) marker() string {
	p, err := lookupPreset(o.presetName())
	if err != nil {
		return presets[DefaultPreset].marker
	}

	return p.marker
}

func (o *Options) presetName() string {
	if o.Preset == "" {
		return DefaultPreset
	}

	return o.Preset
}
