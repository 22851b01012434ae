package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/cneill/devtools/pkg/tones"
	"github.com/cneill/devtools/pkg/tree"
)

const (
	FlagDebug   = "debug"
	EnvDebug    = "DEVTOOLS_DEBUG"
	FlagNoColor = "no-color"
	EnvNoColor  = "DEVTOOLS_NO_COLOR"
	FlagConfig  = "config"
	EnvConfig   = "DEVTOOLS_CONFIG"
)

func generalFlags() []cli.Flag {
	category := "general"

	return []cli.Flag{
		&cli.BoolFlag{
			Name:     FlagDebug,
			Aliases:  []string{"D"},
			Category: category,
			Sources:  cli.EnvVars(EnvDebug),
			Value:    false,
			Usage:    "Write debug logs to a file (devtools_debug.log) in current directory.",
		},
		&cli.BoolFlag{
			Name:     FlagNoColor,
			Aliases:  []string{"C"},
			Category: category,
			Sources:  cli.EnvVars(EnvNoColor),
			Value:    false,
			Usage:    "Disable coloration.",
		},
		&cli.StringFlag{
			Name:     FlagConfig,
			Aliases:  []string{"c"},
			Category: category,
			Sources:  cli.EnvVars(EnvConfig),
			Usage:    "Read settings from the TOML `FILE` (default: $HOME/.config/devtools/config.toml).",
		},
	}
}

const (
	FlagOutputDir  = "output-dir"
	EnvOutputDir   = "DEVTOOLS_OUTPUT_DIR"
	FlagFormat     = "format"
	EnvFormat      = "DEVTOOLS_FORMAT"
	FlagSampleRate = "sample-rate"
	EnvSampleRate  = "DEVTOOLS_SAMPLE_RATE"
	FlagAmplitude  = "amplitude"
	EnvAmplitude   = "DEVTOOLS_AMPLITUDE"
	FlagKeepGoing  = "keep-going"
	EnvKeepGoing   = "DEVTOOLS_KEEP_GOING"
	FlagVerify     = "verify"
	EnvVerify      = "DEVTOOLS_VERIFY"
)

func tonesFlags() []cli.Flag {
	category := "tones"

	return []cli.Flag{
		&cli.StringFlag{
			Name:     FlagOutputDir,
			Aliases:  []string{"o"},
			Category: category,
			Sources:  cli.EnvVars(EnvOutputDir),
			Value:    tones.DefaultOutputDir,
			Usage:    "The `DIRECTORY` the sound files are written to.",
		},
		&cli.StringFlag{
			Name:     FlagFormat,
			Aliases:  []string{"f"},
			Category: category,
			Sources:  cli.EnvVars(EnvFormat),
			Value:    tones.DefaultCodec,
			Usage:    fmt.Sprintf("Audio `FORMAT` to encode (%s).", strings.Join(tones.CodecNames(), ", ")),
		},
		&cli.IntFlag{
			Name:     FlagSampleRate,
			Aliases:  []string{"r"},
			Category: category,
			Sources:  cli.EnvVars(EnvSampleRate),
			Value:    tones.DefaultSampleRate,
			Usage:    "Samples per second.",
		},
		&cli.FloatFlag{
			Name:     FlagAmplitude,
			Aliases:  []string{"a"},
			Category: category,
			Sources:  cli.EnvVars(EnvAmplitude),
			Value:    tones.DefaultAmplitude,
			Usage:    "Peak amplitude between 0 and 1.",
		},
		&cli.BoolFlag{
			Name:     FlagKeepGoing,
			Aliases:  []string{"k"},
			Category: category,
			Sources:  cli.EnvVars(EnvKeepGoing),
			Value:    false,
			Usage:    "Attempt every tone even after one fails.",
		},
		&cli.BoolFlag{
			Name:     FlagVerify,
			Category: category,
			Sources:  cli.EnvVars(EnvVerify),
			Value:    false,
			Usage:    "Decode each written file and check its duration.",
		},
	}
}

const (
	FlagRoot      = "root"
	EnvRoot       = "DEVTOOLS_ROOT"
	FlagPreset    = "preset"
	EnvPreset     = "DEVTOOLS_PRESET"
	FlagExt       = "ext"
	EnvExt        = "DEVTOOLS_EXT"
	FlagExclude   = "exclude"
	EnvExclude    = "DEVTOOLS_EXCLUDE"
	FlagGitignore = "gitignore"
	EnvGitignore  = "DEVTOOLS_GITIGNORE"
	FlagWatch     = "watch"
	EnvWatch      = "DEVTOOLS_WATCH"
)

func treeFlags() []cli.Flag {
	category := "tree"

	return []cli.Flag{
		&cli.StringFlag{
			Name:     FlagRoot,
			Aliases:  []string{"d"},
			Category: category,
			Sources:  cli.EnvVars(EnvRoot),
			Value:    ".",
			Usage:    "The `DIRECTORY` to explore.",
		},
		&cli.StringFlag{
			Name:     FlagPreset,
			Aliases:  []string{"p"},
			Category: category,
			Sources:  cli.EnvVars(EnvPreset),
			Value:    tree.DefaultPreset,
			Usage:    fmt.Sprintf("Extension `PRESET` whose contents are printed (%s).", strings.Join(tree.PresetNames(), ", ")),
		},
		&cli.StringSliceFlag{
			Name:     FlagExt,
			Aliases:  []string{"e"},
			Category: category,
			Sources:  cli.EnvVars(EnvExt),
			Usage:    "Print contents of files with this `EXTENSION` instead of the preset. Repeatable.",
		},
		&cli.StringSliceFlag{
			Name:     FlagExclude,
			Aliases:  []string{"x"},
			Category: category,
			Sources:  cli.EnvVars(EnvExclude),
			Value:    tree.DefaultExcludedDirs(),
			Usage:    "Directory `NAME` to list without descending into. Repeatable.",
		},
		&cli.BoolFlag{
			Name:     FlagGitignore,
			Aliases:  []string{"g"},
			Category: category,
			Sources:  cli.EnvVars(EnvGitignore),
			Value:    false,
			Usage:    "Omit files matched by .gitignore, and the .git directory.",
		},
		&cli.BoolFlag{
			Name:     FlagWatch,
			Aliases:  []string{"w"},
			Category: category,
			Sources:  cli.EnvVars(EnvWatch),
			Value:    false,
			Usage:    "Print the tree again whenever something under the root changes.",
		},
	}
}

const (
	FlagSoundDir = "dir"
	EnvSoundDir  = "DEVTOOLS_DIR"
)

func playFlags() []cli.Flag {
	category := "play"

	return []cli.Flag{
		&cli.StringFlag{
			Name:     FlagSoundDir,
			Aliases:  []string{"d"},
			Category: category,
			Sources:  cli.EnvVars(EnvSoundDir),
			Usage:    "The `DIRECTORY` to load sounds from (default: the tones output directory).",
		},
	}
}
