package main

import (
	"context"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cdensity/internal/output"
	"github.com/panbanda/cdensity/internal/service/analysis"
	"github.com/panbanda/cdensity/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Re-run the analysis whenever a PHP file changes",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "only",
				Usage: "Report only these categories",
			},
			&cli.StringSliceFlag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Override a threshold as name=value",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon (default from config)",
			},
			&cli.BoolFlag{
				Name:  "no-baseline",
				Usage: "Ignore the configured baseline",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of files processed concurrently (default: number of CPUs)",
			},
			&cli.IntFlag{
				Name:  "max-findings",
				Value: 20,
				Usage: "List at most this many findings per run (0 lists all)",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Wait until files are unchanged for this long",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	logger := loggerFrom(c)

	thresholds, err := parseThresholds(c.StringSlice("threshold"))
	if err != nil {
		return err
	}

	dir := c.Args().First()
	if dir == "" {
		dir = "."
	}
	req := analysis.Request{
		Paths:      []string{dir},
		Only:       c.StringSlice("only"),
		Thresholds: thresholds,
		NoBaseline: c.Bool("no-baseline"),
		Workers:    c.Int("workers"),
	}

	format := output.ParseFormat(firstNonEmpty(c.String("format"), cfg.Output.Format))
	formatter := output.NewWriterFormatter(format, c.App.Writer, cfg.Output.Color && !color.NoColor)
	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))

	// The first run reports configuration errors before anything is watched.
	if err := analyzeOnce(c.Context, svc, req, formatter, c.Int("max-findings")); err != nil {
		return err
	}

	w, err := watch.New(dir, cfg, watch.WithDebounce(c.Duration("debounce")), watch.WithLogger(logger))
	if err != nil {
		return err
	}
	defer w.Close()

	formatter.Info("Watching %s for changes, press Ctrl+C to stop", w.Root())
	err = w.Run(c.Context, func(changed []string) {
		for _, path := range changed {
			rel, _ := filepath.Rel(w.Root(), path)
			formatter.Info("Changed: %s", rel)
		}
		if err := analyzeOnce(c.Context, svc, req, formatter, c.Int("max-findings")); err != nil {
			formatter.Error("%v", err)
		}
	})
	if c.Context.Err() != nil {
		return nil
	}
	return err
}

// analyzeOnce runs one analysis and prints its report. Exceeded thresholds
// are part of the report and not an error here.
func analyzeOnce(ctx context.Context, svc *analysis.Service, req analysis.Request, formatter *output.Formatter, maxFindings int) error {
	res, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}
	if res.Files == 0 {
		formatter.Warning("No PHP files found")
		return nil
	}
	view := densityView(res, req.Paths)
	view.MaxFindings = maxFindings
	view.MaxFiles = 0
	return formatter.Output(view)
}
