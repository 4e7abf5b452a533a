package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cdensity/internal/logging"
	"github.com/panbanda/cdensity/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errThresholdsExceeded makes the process exit with status 1.
var errThresholdsExceeded = errors.New("thresholds exceeded")

// Exit codes.
const (
	exitExceeded = 1
	exitError    = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errThresholdsExceeded):
		os.Exit(exitExceeded)
	default:
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "cdensity",
		Usage:     "Comment density analysis for PHP",
		Version:   version,
		Metadata:  make(map[string]interface{}),
		Writer:    stdout,
		ErrWriter: stderr,
		Description: `cdensity classifies every comment of a PHP codebase (docBlock, license,
todo, fixme, regular), reports declarations missing a required docblock and
scores the result as the comment density score (CDS) and the comment to
code ratio (Com/LoC). A run fails when a configured threshold is exceeded.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CDENSITY_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log progress details; repeat for debug output",
				Count:   new(int),
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Log errors only and hide progress bars",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides --verbose)",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := newLogger(c)
			if err != nil {
				return err
			}
			c.App.Metadata["logger"] = logger

			if prefix := c.String("pprof"); prefix != "" {
				cpuFile, err := os.Create(prefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			prefix := c.String("pprof")
			if prefix == "" {
				return nil
			}
			pprof.StopCPUProfile()
			if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
				cpuFile.Close()
			}

			memFile, err := os.Create(prefix + ".mem.pprof")
			if err != nil {
				return fmt.Errorf("failed to create memory profile: %w", err)
			}
			defer memFile.Close()

			runtime.GC()
			if err := pprof.WriteHeapProfile(memFile); err != nil {
				return fmt.Errorf("failed to write memory profile: %w", err)
			}
			loggerFrom(c).Info("profiles written", "prefix", prefix)
			return nil
		},
		// Errors are reported by main so that tests can inspect them.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			analyzeCmd(),
			baselineCmd(),
			initCmd(),
			configCmd(),
			watchCmd(),
			mcpCmd(),
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return newApp(stdout, stderr).RunContext(ctx, args)
}

// newLogger builds the logger selected by the global flags.
func newLogger(c *cli.Context) (*slog.Logger, error) {
	level := logging.LevelFromFlags(c.Count("verbose"), c.Bool("quiet"))
	if name := c.String("log-level"); name != "" {
		var ok bool
		if level, ok = logging.ParseLevel(name); !ok {
			return nil, fmt.Errorf("invalid log level %q", name)
		}
	}
	return logging.New(c.App.ErrWriter, level), nil
}

func loggerFrom(c *cli.Context) *slog.Logger {
	if l, ok := c.App.Metadata["logger"].(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// loadConfig validates and loads the file named by --config, or the first
// config file found in the working directory.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	if result.Source != "" {
		loggerFrom(c).Debug("config loaded", "path", result.Source)
	}
	return result, nil
}
