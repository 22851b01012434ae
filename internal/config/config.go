package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cneill/devtools/pkg/tones"
	"github.com/cneill/devtools/pkg/tree"
)

type Config struct {
	Tones *TonesConfig `toml:"tones" yaml:"tones"`
	Tree  *TreeConfig  `toml:"tree" yaml:"tree"`
}

type TonesConfig struct {
	OutputDir  string            `toml:"output_dir" yaml:"output_dir"`
	SampleRate int               `toml:"sample_rate" yaml:"sample_rate"`
	Amplitude  float64           `toml:"amplitude" yaml:"amplitude"`
	Format     string            `toml:"format" yaml:"format"`
	KeepGoing  bool              `toml:"keep_going" yaml:"keep_going"`
	Verify     bool              `toml:"verify" yaml:"verify"`
	Tones      []tones.NamedTone `toml:"tone" yaml:"tone"`
}

type TreeConfig struct {
	Preset       string   `toml:"preset" yaml:"preset"`
	Extensions   []string `toml:"extensions" yaml:"extensions"`
	ExcludedDirs []string `toml:"excluded_dirs" yaml:"excluded_dirs"`
	Gitignore    bool     `toml:"gitignore" yaml:"gitignore"`
}

// Default returns the built-in settings: the UI sound table written as FLAC to public/sounds, and the "web" tree
// preset with node_modules excluded.
func Default() *Config {
	return &Config{
		Tones: &TonesConfig{
			OutputDir:  tones.DefaultOutputDir,
			SampleRate: tones.DefaultSampleRate,
			Amplitude:  tones.DefaultAmplitude,
			Format:     tones.DefaultCodec,
			Tones:      tones.DefaultTones(),
		},
		Tree: &TreeConfig{
			Preset:       tree.DefaultPreset,
			ExcludedDirs: tree.DefaultExcludedDirs(),
		},
	}
}

func (c *Config) OK() error {
	if c.Tones != nil {
		if _, err := c.Tones.BatchConfig(); err != nil {
			return fmt.Errorf("error with tones config: %w", err)
		}
	}

	if c.Tree != nil {
		if err := c.Tree.Options(".").OK(); err != nil {
			return fmt.Errorf("error with tree config: %w", err)
		}
	}

	return nil
}

// BatchConfig converts the section into validated batch settings.
func (t *TonesConfig) BatchConfig() (*tones.BatchConfig, error) {
	codec, err := tones.LookupCodec(t.Format)
	if err != nil {
		return nil, err
	}

	cfg := &tones.BatchConfig{
		OutputDir:  t.OutputDir,
		SampleRate: t.SampleRate,
		Amplitude:  t.Amplitude,
		Codec:      codec,
		Tones:      slices.Clone(t.Tones),
		Verify:     t.Verify,
		KeepGoing:  t.KeepGoing,
	}

	if err := cfg.OK(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Options converts the section into walk options rooted at root.
func (t *TreeConfig) Options(root string) *tree.Options {
	return &tree.Options{
		Root:            root,
		Preset:          t.Preset,
		MatchExtensions: slices.Clone(t.Extensions),
		ExcludedDirs:    slices.Clone(t.ExcludedDirs),
		Gitignore:       t.Gitignore,
	}
}

// Load reads and parses the configuration file on top of Default. Files ending in .yaml or .yml are read as YAML,
// anything else as TOML. If no path is supplied, the default path is used and a missing file there just means the
// defaults apply. An explicitly supplied path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""

	if !explicit {
		path = DefaultConfigPath()
		if path == "" {
			return nil, fmt.Errorf("could not determine proper default config path")
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if explicit {
			return nil, fmt.Errorf("config file %q does not exist", path)
		}

		slog.Debug("No config file found, using defaults", "path", path)

		return Default(), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg *Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	default:
		cfg, err = Parse(string(data))
	}

	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}

	slog.Debug("Loaded config file", "path", path)

	return cfg, nil
}

// Parse decodes TOML text over Default and validates the result. Unknown keys are rejected.
func Parse(data string) (*Config, error) {
	return decode(func(cfg *Config) error {
		meta, err := toml.Decode(data, cfg)
		if err != nil {
			return err
		}

		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}

			return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}

		return nil
	})
}

// ParseYAML is Parse for YAML documents, using the same key names.
func ParseYAML(data []byte) (*Config, error) {
	return decode(func(cfg *Config) error {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		return nil
	})
}

func decode(fn func(cfg *Config) error) (*Config, error) {
	cfg := Default()

	// A tone list in the file replaces the default table rather than extending it.
	defaultTones := cfg.Tones.Tones
	cfg.Tones.Tones = nil

	if err := fn(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Tones == nil || cfg.Tree == nil {
		return nil, fmt.Errorf("config sections must not be empty")
	}

	if len(cfg.Tones.Tones) == 0 {
		cfg.Tones.Tones = defaultTones
	}

	if err := cfg.OK(); err != nil {
		return nil, fmt.Errorf("error with config: %w", err)
	}

	return cfg, nil
}

// DefaultConfigDir returns $HOME/.config/devtools
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Error("Failed to locate user home directory", "error", err)
		return ""
	}

	return filepath.Join(home, ".config", "devtools")
}

// DefaultConfigPath returns the default configuration file path ($HOME/.config/devtools/config.toml)
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, "config.toml")
}
