package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/cdensity/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a cdensity configuration file against its schema and reports
every invalid key and value.

Examples:
  cdensity config validate                  # Validates default config locations
  cdensity -c cdensity.toml config validate # Validates specific file`,
				Action: runConfigValidateCmd,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the configuration from defaults and config file.

Examples:
  cdensity config show              # Show effective config as TOML
  cdensity config show --format yaml`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "toml",
						Usage:   "Output format: toml or yaml",
					},
				},
				Action: runConfigShowCmd,
			},
		},
	}
}

func runConfigValidateCmd(c *cli.Context) error {
	result, err := loadConfig(c)
	if err != nil {
		w := c.App.ErrWriter
		color.New(color.FgRed).Fprintln(w, "Configuration validation failed:")
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, cause := range verr.Causes {
				fmt.Fprintf(w, "  - %s\n", cause)
			}
		} else {
			fmt.Fprintf(w, "  - %s\n", err)
		}
		return err
	}

	if result.Source != "" {
		color.New(color.FgGreen).Fprintf(c.App.Writer, "Configuration valid: %s\n", result.Source)
	} else {
		color.New(color.FgYellow).Fprintln(c.App.Writer, "No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	result, err := loadConfig(c)
	if err != nil {
		return err
	}

	var content []byte
	switch c.String("format") {
	case "yaml", "yml":
		content, err = yaml.Marshal(result.Config)
	case "toml":
		content, err = toml.Marshal(result.Config)
	default:
		return fmt.Errorf("unsupported format %q (want toml or yaml)", c.String("format"))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if result.Source != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}
	fmt.Fprint(c.App.Writer, string(content))
	return nil
}
