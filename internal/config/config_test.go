package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cneill/devtools/internal/config"
	"github.com/cneill/devtools/pkg/tones"
	"github.com/cneill/devtools/pkg/tree"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.OK())

	batch, err := cfg.Tones.BatchConfig()
	require.NoError(t, err)

	defaults, err := tones.DefaultBatchConfig()
	require.NoError(t, err)

	require.Equal(t, defaults.OutputDir, batch.OutputDir)
	require.Equal(t, defaults.SampleRate, batch.SampleRate)
	require.InDelta(t, defaults.Amplitude, batch.Amplitude, 0)
	require.Equal(t, defaults.Codec.Name(), batch.Codec.Name())
	require.Equal(t, tones.DefaultTones(), batch.Tones)

	opts := cfg.Tree.Options("src")
	require.Equal(t, "src", opts.Root)
	require.Equal(t, tree.PresetWeb, opts.Preset)
	require.Equal(t, []string{"node_modules"}, opts.ExcludedDirs)
}

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(`
[tones]
output_dir = "assets/ui"
format = "wav"
verify = true

[[tones.tone]]
name = "beep"
frequency = 440
duration = 0.1

[tree]
preset = "js"
excluded_dirs = ["node_modules", "dist"]
gitignore = true
`)
	require.NoError(t, err)

	require.Equal(t, "assets/ui", cfg.Tones.OutputDir)
	require.Equal(t, "wav", cfg.Tones.Format)
	require.True(t, cfg.Tones.Verify)
	require.False(t, cfg.Tones.KeepGoing)
	require.Equal(t, tones.DefaultSampleRate, cfg.Tones.SampleRate, "unset keys keep their defaults")
	require.Equal(t, []tones.NamedTone{
		{Name: "beep", ToneSpec: tones.ToneSpec{Frequency: 440, Duration: 0.1}},
	}, cfg.Tones.Tones)

	require.Equal(t, tree.PresetJS, cfg.Tree.Preset)
	require.Equal(t, []string{"node_modules", "dist"}, cfg.Tree.ExcludedDirs)
	require.True(t, cfg.Tree.Gitignore)
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[tones"},
		{"unknown key", "[tones]\nvolume = 11\n"},
		{"bad sample rate", "[tones]\nsample_rate = -1\n"},
		{"unknown format", "[tones]\nformat = \"aiff\"\n"},
		{"bad tone", "[[tones.tone]]\nname = \"x\"\nfrequency = 0\nduration = 1\n"},
		{"duplicate tones", "[[tones.tone]]\nname = \"x\"\nfrequency = 1\nduration = 1\n[[tones.tone]]\nname = \"x\"\nfrequency = 2\nduration = 1\n"},
		{"unknown preset", "[tree]\npreset = \"cobol\"\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse(test.data)
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tones]\namplitude = 0.25\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.InDelta(t, 0.25, cfg.Tones.Amplitude, 0)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "does not exist")
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	cfg, err := config.ParseYAML([]byte(`
tones:
  format: ulaw
  keep_going: true
  tone:
    - name: ring
      frequency: 425
      duration: 1
tree:
  extensions: [go, .mod]
`))
	require.NoError(t, err)

	require.Equal(t, "ulaw", cfg.Tones.Format)
	require.True(t, cfg.Tones.KeepGoing)
	require.Equal(t, tones.DefaultOutputDir, cfg.Tones.OutputDir)
	require.Equal(t, []tones.NamedTone{
		{Name: "ring", ToneSpec: tones.ToneSpec{Frequency: 425, Duration: 1}},
	}, cfg.Tones.Tones)

	exts, err := cfg.Tree.Options(".").Extensions()
	require.NoError(t, err)
	require.Equal(t, []string{".go", ".mod"}, exts)

	_, err = config.ParseYAML([]byte("tones:\n  volume: 11\n"))
	require.Error(t, err, "unknown keys are rejected")

	cfg, err = config.ParseYAML(nil)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoad_YAMLByExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("tree:\n  gitignore: true\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Tree.Gitignore)
}
