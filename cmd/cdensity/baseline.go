package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/cdensity/internal/service/analysis"
)

func baselineCmd() *cli.Command {
	return &cli.Command{
		Name:      "baseline",
		Usage:     "Record the current findings so later runs report only new ones",
		ArgsUsage: "[path...]",
		Description: `Analyzes the given paths and writes every finding to a baseline file.
Later analyze runs that use the baseline hide these findings and count them
as suppressed. Findings are matched by file, category, line and text, so an
edited comment shows up again.

Examples:
  cdensity baseline                        # writes the configured baseline
  cdensity baseline --file .cdensity/baseline.bin src`,
		Flags: append(runFlags(),
			&cli.StringFlag{
				Name:  "file",
				Usage: "Baseline file to write (default from config)",
			},
		),
		Action: runBaselineCmd,
	}
}

func runBaselineCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc := analysis.New(analysis.WithConfig(loaded.Config), analysis.WithLogger(loggerFrom(c)))
	req := requestFrom(c)
	if phases := showProgress(c); phases != nil {
		req.Progress = phases.Update
		defer phases.Done()
	}

	path, n, err := svc.WriteBaseline(c.Context, req, c.String("file"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Recorded %d findings in %s\n", n, path)
	return nil
}
