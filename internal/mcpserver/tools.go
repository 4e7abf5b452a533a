package mcpserver

import (
	"bytes"
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/cdensity/internal/output"
	"github.com/panbanda/cdensity/internal/report"
	"github.com/panbanda/cdensity/internal/service/analysis"
	"github.com/panbanda/cdensity/pkg/analyzer/comments"
)

// AnalyzeInput is the base input for all analyze tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to the configured directories if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// AnalyzeCommentsInput adds the density analysis options.
type AnalyzeCommentsInput struct {
	AnalyzeInput
	Only        []string           `json:"only,omitempty" jsonschema:"Report only these categories: regular, todo, fixme, license, docBlock, missingDocblock."`
	Thresholds  map[string]float64 `json:"thresholds,omitempty" jsonschema:"Limits keyed by category name, CDS or Com/LoC. Override the configured limits."`
	Rev         string             `json:"rev,omitempty" jsonschema:"Analyze a git revision (branch, tag or hash) instead of the working tree."`
	NoBaseline  bool               `json:"no_baseline,omitempty" jsonschema:"Report findings recorded in the configured baseline too."`
	MaxFindings int                `json:"max_findings,omitempty" jsonschema:"Limit the findings listed in markdown output. Default 200."`
}

// CategoriesInput selects the output format of list_categories.
type CategoriesInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return nil
	}
	return input.Paths
}

func getFormat(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func render(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := render(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleAnalyzeComments(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeCommentsInput) (*mcp.CallToolResult, any, error) {
	svc := analysis.New(analysis.WithConfig(s.config), analysis.WithLogger(s.logger))
	res, err := svc.Run(ctx, analysis.Request{
		Paths:      getPaths(input.AnalyzeInput),
		Rev:        input.Rev,
		Only:       input.Only,
		Thresholds: input.Thresholds,
		NoBaseline: input.NoBaseline,
	})
	if err != nil {
		return toolError(err.Error())
	}
	if res.Files == 0 {
		return toolError("no PHP files found")
	}

	view := output.NewDensityView(res.Report, report.Metadata{Root: res.Root, Commit: res.Report.Commit})
	view.MaxFindings = input.MaxFindings
	if view.MaxFindings <= 0 {
		view.MaxFindings = 200
	}
	return toolResult(view, getFormat(input.Format))
}

// CategoryInfo describes the scoring rule of one category.
type CategoryInfo struct {
	Category  comments.Category `json:"category" toon:"category"`
	Weight    float64           `json:"weight" toon:"weight"`
	Color     comments.Color    `json:"color" toon:"color"`
	Threshold string            `json:"threshold" toon:"threshold"`
}

func categoryInfos() []CategoryInfo {
	rules := comments.Rules()
	out := make([]CategoryInfo, len(rules))
	for i, r := range rules {
		threshold := "at_most"
		if r.Direction == comments.AtLeast {
			threshold = "at_least"
		}
		out[i] = CategoryInfo{Category: r.Category, Weight: r.Weight, Color: r.Color, Threshold: threshold}
	}
	return out
}

func handleListCategories(ctx context.Context, req *mcp.CallToolRequest, input CategoriesInput) (*mcp.CallToolResult, any, error) {
	return toolResult(categoryInfos(), getFormat(input.Format))
}
