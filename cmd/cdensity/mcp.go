package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/cdensity/internal/logging"
	"github.com/panbanda/cdensity/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the comment density
analysis as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "cdensity": {
        "command": "cdensity",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_comments   Classify comments, find missing docblocks, score CDS
  - list_categories    Category weights, colors and threshold directions`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr as JSON lines.
	level := logging.LevelFromFlags(c.Count("verbose"), c.Bool("quiet"))
	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(loaded.Config),
		mcpserver.WithLogger(logging.NewJSON(c.App.ErrWriter, level)),
	)
	return server.Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
