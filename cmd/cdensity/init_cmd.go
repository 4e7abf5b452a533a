package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cdensity/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new cdensity configuration file",
		Description: `Creates a new cdensity.toml configuration file in the current directory
with the default settings. Use --output to specify a different location.

Examples:
  cdensity init                             # Creates cdensity.toml
  cdensity init -o .cdensity/cdensity.toml  # Creates config in .cdensity
  cdensity init --force                     # Overwrite existing config file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "cdensity.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Created %s\n", outputPath)
	fmt.Fprintln(c.App.Writer, "Edit this file to set thresholds and docblock requirements.")
	return nil
}

func generateDefaultConfig() (string, error) {
	cfg := config.DefaultConfig()
	// Empty tables are dropped by the encoder; show the keys instead.
	cfg.Thresholds = map[string]float64{"CDS": 0, "Com/LoC": 0}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# cdensity configuration\n")
	buf.WriteString("# Threshold keys: CDS, Com/LoC and the categories regular, todo, fixme,\n")
	buf.WriteString("# license, docBlock, missingDocblock. CDS, Com/LoC, license and docBlock\n")
	buf.WriteString("# are minimums; the other categories are maximums.\n\n")
	buf.Write(content)

	return buf.String(), nil
}
