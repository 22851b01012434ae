package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/cneill/devtools/internal/config"
	"github.com/cneill/devtools/internal/version"
)

func run(ctx context.Context, args []string) error {
	cmd := rootCommand()

	if err := cmd.Run(ctx, args); err != nil {
		return fmt.Errorf("command: %w", err)
	}

	return nil
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "devtools",
		Usage:   "Generate UI sounds and print annotated source trees.",
		Version: version.String(),
		Flags:   generalFlags(),
		Commands: []*cli.Command{
			tonesCommand(),
			treeCommand(),
			playCommand(),
		},
	}
}

// setupCommon applies the general flags and loads the config file. The returned cleanup closes the debug log.
func setupCommon(cmd *cli.Command) (*config.Config, func(), error) {
	color.NoColor = color.NoColor || cmd.Bool(FlagNoColor)

	cleanup := func() {}

	if cmd.Bool(FlagDebug) {
		file, err := setupLogging(cmd)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to set up logging: %w", err)
		}

		cleanup = func() { file.Close() }
	}

	cfg, err := config.Load(cmd.String(FlagConfig))
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, cleanup, nil
}

func setupLogging(cmd *cli.Command) (*os.File, error) {
	level := slog.LevelInfo
	if cmd.Bool(FlagDebug) {
		level = slog.LevelDebug
	}

	var (
		logFileName = "devtools_debug.log"
		err         error
	)

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	sync.OnceFunc(func() {
		handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{AddSource: true, Level: level})
		logger := slog.New(handler)
		slog.SetDefault(logger)
	})()

	return logFile, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, os.Args)

	stop()

	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
