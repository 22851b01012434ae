package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/cneill/devtools/internal/config"
	"github.com/cneill/devtools/pkg/tones"
	"github.com/cneill/devtools/pkg/tree"
)

func tonesCommand() *cli.Command {
	return &cli.Command{
		Name:   "tones",
		Usage:  "Synthesize the UI sound table and write it as audio files.",
		Flags:  tonesFlags(),
		Action: runTones,
	}
}

func runTones(ctx context.Context, cmd *cli.Command) error {
	cfg, cleanup, err := setupCommon(cmd)
	defer cleanup()

	if err != nil {
		return err
	}

	applyTonesFlags(cmd, cfg.Tones)

	batch, err := cfg.Tones.BatchConfig()
	if err != nil {
		return fmt.Errorf("invalid tones settings: %w", err)
	}

	batch.Out = cmd.Root().Writer

	if _, err := tones.RunBatch(ctx, batch); err != nil {
		return fmt.Errorf("tone generation failed: %w", err)
	}

	return nil
}

// applyTonesFlags overrides config values with flags that were set on the command line or through the environment.
func applyTonesFlags(cmd *cli.Command, cfg *config.TonesConfig) {
	if cmd.IsSet(FlagOutputDir) {
		cfg.OutputDir = cmd.String(FlagOutputDir)
	}

	if cmd.IsSet(FlagFormat) {
		cfg.Format = cmd.String(FlagFormat)
	}

	if cmd.IsSet(FlagSampleRate) {
		cfg.SampleRate = cmd.Int(FlagSampleRate)
	}

	if cmd.IsSet(FlagAmplitude) {
		cfg.Amplitude = cmd.Float(FlagAmplitude)
	}

	if cmd.IsSet(FlagKeepGoing) {
		cfg.KeepGoing = cmd.Bool(FlagKeepGoing)
	}

	if cmd.IsSet(FlagVerify) {
		cfg.Verify = cmd.Bool(FlagVerify)
	}
}

func treeCommand() *cli.Command {
	return &cli.Command{
		Name:   "tree",
		Usage:  "Print a directory tree along with the contents of matching source files.",
		Flags:  treeFlags(),
		Action: runTree,
	}
}

func runTree(ctx context.Context, cmd *cli.Command) error {
	cfg, cleanup, err := setupCommon(cmd)
	defer cleanup()

	if err != nil {
		return err
	}

	applyTreeFlags(cmd, cfg.Tree)

	opts := cfg.Tree.Options(cmd.String(FlagRoot))
	opts.NoColor = color.NoColor

	walker, err := tree.New(opts)
	if err != nil {
		return fmt.Errorf("failed to set up tree: %w", err)
	}

	out := cmd.Root().Writer

	fmt.Fprintln(out, "Exploring directory structure...")

	if !cmd.Bool(FlagWatch) {
		if _, err := walker.Walk(ctx, out); err != nil {
			return fmt.Errorf("tree walk failed: %w", err)
		}

		return nil
	}

	watcher, err := tree.NewWatcher(walker, out, nil)
	if err != nil {
		return fmt.Errorf("failed to set up tree watcher: %w", err)
	}

	defer watcher.Close()

	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("tree watch failed: %w", err)
	}

	return nil
}

func applyTreeFlags(cmd *cli.Command, cfg *config.TreeConfig) {
	if cmd.IsSet(FlagPreset) {
		cfg.Preset = cmd.String(FlagPreset)
		// An explicit preset beats extensions from the config file.
		cfg.Extensions = nil
	}

	if cmd.IsSet(FlagExt) {
		cfg.Extensions = cmd.StringSlice(FlagExt)
	}

	if cmd.IsSet(FlagExclude) {
		cfg.ExcludedDirs = cmd.StringSlice(FlagExclude)
	}

	if cmd.IsSet(FlagGitignore) {
		cfg.Gitignore = cmd.Bool(FlagGitignore)
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play generated sounds through the default output device.",
		ArgsUsage: "[NAME ...]",
		Flags:     playFlags(),
		Action:    runPlay,
	}
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	cfg, cleanup, err := setupCommon(cmd)
	defer cleanup()

	if err != nil {
		return err
	}

	dir := cfg.Tones.OutputDir
	if cmd.IsSet(FlagSoundDir) {
		dir = cmd.String(FlagSoundDir)
	}

	player := tones.NewPlayer()
	defer player.Close()

	if err := player.AddDir(dir); err != nil {
		return err
	}

	names := cmd.Args().Slice()
	if len(names) == 0 {
		names = player.Names()
	}

	if len(names) == 0 {
		return fmt.Errorf("no playable sounds in %q", dir)
	}

	out := cmd.Root().Writer

	for _, name := range names {
		fmt.Fprintf(out, "Playing %s\n", name)

		if err := player.PlaySound(ctx, name); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return fmt.Errorf("failed to play %q: %w", name, err)
		}
	}

	return nil
}
