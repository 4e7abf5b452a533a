package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cdensity/internal/output"
	"github.com/panbanda/cdensity/internal/progress"
	"github.com/panbanda/cdensity/internal/report"
	"github.com/panbanda/cdensity/internal/service/analysis"
)

// runFlags are shared by analyze and baseline.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "rev",
			Usage: "Analyze a git revision (branch, tag, hash) instead of the working tree",
		},
		&cli.StringSliceFlag{
			Name:  "only",
			Usage: "Report only these categories (regular, todo, fixme, license, docBlock, missingDocblock)",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Disable caching",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of files processed concurrently (default: number of CPUs)",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Hide progress bars",
		},
	}
}

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Classify comments, find missing docblocks and score the result",
		ArgsUsage: "[path... | owner/repo[@ref]]",
		Description: `Analyzes the given paths, or the configured directories, and prints the
findings, the per-category statistics and the CDS and Com/LoC metrics.

Exits with status 1 when any configured threshold is exceeded.

Examples:
  cdensity analyze src
  cdensity analyze --only missingDocblock -t missingDocblock=0
  cdensity analyze --rev main -f json -o report.json
  cdensity analyze -f html -o report.html
  cdensity analyze laravel/framework@v11.0.0`,
		Flags: append(runFlags(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon, html (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.StringSliceFlag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Override a threshold as name=value, e.g. CDS=0.5 or regular=10",
			},
			&cli.StringFlag{
				Name:  "baseline",
				Usage: "Hide the findings recorded in this baseline file",
			},
			&cli.BoolFlag{
				Name:  "no-baseline",
				Usage: "Ignore the configured baseline",
			},
			&cli.IntFlag{
				Name:  "max-findings",
				Usage: "List at most this many findings in text and markdown output (0 lists all)",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: 10,
				Usage: "Number of lowest scoring files to list (0 hides the table)",
			},
		),
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	thresholds, err := parseThresholds(c.StringSlice("threshold"))
	if err != nil {
		return err
	}

	req := requestFrom(c)
	req.Thresholds = thresholds
	req.Baseline = c.String("baseline")
	req.NoBaseline = c.Bool("no-baseline")

	format := output.ParseFormat(firstNonEmpty(c.String("format"), cfg.Output.Format))
	outFile := firstNonEmpty(c.String("output"), cfg.Output.File)
	colored := cfg.Output.Color && !color.NoColor

	var formatter *output.Formatter
	if outFile != "" {
		if formatter, err = output.NewFormatter(format, outFile, false); err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
	} else {
		formatter = output.NewWriterFormatter(format, c.App.Writer, colored)
	}
	defer formatter.Close()

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(loggerFrom(c)))

	phases := showProgress(c)
	if phases != nil {
		req.Progress = phases.Update
	}
	start := time.Now()
	res, err := svc.Run(c.Context, req)
	if phases != nil {
		phases.Done()
	}
	if err != nil {
		return err
	}
	loggerFrom(c).Info("analysis complete", "files", res.Files, "elapsed", time.Since(start).Round(time.Millisecond))

	if res.Files == 0 {
		formatter.Warning("No PHP files found")
		return nil
	}

	view := densityView(res, req.Paths)
	view.MaxFindings = c.Int("max-findings")
	view.MaxFiles = c.Int("top")

	if err := formatter.Output(view); err != nil {
		return err
	}
	if outFile != "" {
		loggerFrom(c).Info("report written", "path", outFile)
	}

	if !res.Report.Passed() {
		return errThresholdsExceeded
	}
	return nil
}

// densityView wraps a run result with the metadata of this invocation.
func densityView(res *analysis.Result, paths []string) *output.DensityView {
	name := filepath.Base(res.Root)
	if res.Remote != nil {
		name = res.Remote.Name()
	}
	return output.NewDensityView(res.Report, report.Metadata{
		Repository:  name,
		GeneratedAt: time.Now(),
		Commit:      res.Report.Commit,
		Version:     version,
		Paths:       paths,
		Root:        res.Root,
	})
}

// requestFrom reads the flags shared by analyze and baseline.
func requestFrom(c *cli.Context) analysis.Request {
	return analysis.Request{
		Paths:   c.Args().Slice(),
		Rev:     c.String("rev"),
		Only:    c.StringSlice("only"),
		NoCache: c.Bool("no-cache"),
		Workers: c.Int("workers"),
	}
}

// showProgress returns progress bars when stderr is an interactive terminal.
func showProgress(c *cli.Context) *progress.Phases {
	if c.Bool("no-progress") || c.Bool("quiet") {
		return nil
	}
	if c.App.ErrWriter != os.Stderr || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return progress.NewPhases()
}
