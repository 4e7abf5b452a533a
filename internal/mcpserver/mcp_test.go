package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/cdensity/internal/output"
	"github.com/panbanda/cdensity/internal/testutil"
	"github.com/panbanda/cdensity/pkg/config"
)

const fixture = `<?php
namespace App;

// TODO: cache this
function users(): array
{
    return [];
}

/**
 * Adds two numbers.
 */
function add(int $a, int $b): int
{
    return $a + $b;
}
`

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	return NewServer("1.0.0-test", WithConfig(cfg))
}

func writeFixture(t *testing.T) string {
	t.Helper()
	return testutil.Project(t, map[string]string{"users.php": fixture})
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return text.Text
}

func TestServerCreation(t *testing.T) {
	server := testServer(t)
	require.NotNil(t, server.server)
	assert.NotNil(t, server.config)

	assert.NotNil(t, NewServer(""))
}

func TestToolDescriptions(t *testing.T) {
	for name, fn := range map[string]func() string{
		"analyze_comments": describeAnalyzeComments,
		"list_categories":  describeListCategories,
	} {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			for _, section := range []string{"USE WHEN:", "INTERPRETING RESULTS:", "METRICS RETURNED:"} {
				assert.Contains(t, desc, section)
			}
		})
	}
}

func TestGetPaths(t *testing.T) {
	assert.Nil(t, getPaths(AnalyzeInput{}))
	assert.Equal(t, []string{"/a", "/b"}, getPaths(AnalyzeInput{Paths: []string{"/a", "/b"}}))
}

func TestGetFormat(t *testing.T) {
	tests := map[string]output.Format{
		"":         output.FormatTOON,
		"toon":     output.FormatTOON,
		"json":     output.FormatJSON,
		"markdown": output.FormatMarkdown,
		"md":       output.FormatMarkdown,
		"html":     output.FormatTOON,
	}
	for in, want := range tests {
		assert.Equal(t, want, getFormat(in), in)
	}
}

func TestToolError(t *testing.T) {
	result, out, err := toolError("boom")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: boom", textOf(t, result))
}

func TestHandleAnalyzeComments(t *testing.T) {
	dir := writeFixture(t)
	s := testServer(t)

	result, _, err := s.handleAnalyzeComments(context.Background(), nil, AnalyzeCommentsInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{dir}, Format: "json"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, textOf(t, result))

	var decoded struct {
		Findings []struct {
			Category string `json:"category"`
			Line     int    `json:"line"`
		} `json:"findings"`
		TotalLOC int `json:"total_loc"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &decoded))

	got := map[string]int{}
	for _, f := range decoded.Findings {
		got[f.Category] = f.Line
	}
	assert.Equal(t, map[string]int{"todo": 4, "missingDocblock": 5, "docBlock": 10}, got)
	assert.Equal(t, 16, decoded.TotalLOC)
}

func TestHandleAnalyzeCommentsFormats(t *testing.T) {
	dir := writeFixture(t)
	s := testServer(t)

	toonResult, _, err := s.handleAnalyzeComments(context.Background(), nil, AnalyzeCommentsInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{dir}},
		Only:         []string{"todo"},
	})
	require.NoError(t, err)
	text := textOf(t, toonResult)
	assert.Contains(t, text, "TODO: cache this")
	assert.NotContains(t, text, "missingDocblock")

	mdResult, _, err := s.handleAnalyzeComments(context.Background(), nil, AnalyzeCommentsInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{dir}, Format: "markdown"},
		Thresholds:   map[string]float64{"todo": 0},
	})
	require.NoError(t, err)
	md := textOf(t, mdResult)
	assert.True(t, strings.HasPrefix(md, "# Comment Density Report"))
	assert.Contains(t, md, "| todo | 1 | 1 | exceeded |")
}

func TestHandleAnalyzeCommentsErrors(t *testing.T) {
	s := testServer(t)

	empty, _, err := s.handleAnalyzeComments(context.Background(), nil, AnalyzeCommentsInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{t.TempDir()}},
	})
	require.NoError(t, err)
	assert.True(t, empty.IsError)
	assert.Contains(t, textOf(t, empty), "no PHP files found")

	bad, _, err := s.handleAnalyzeComments(context.Background(), nil, AnalyzeCommentsInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{writeFixture(t)}},
		Only:         []string{"hack"},
	})
	require.NoError(t, err)
	assert.True(t, bad.IsError)
	assert.Contains(t, textOf(t, bad), "unknown category")
}

func TestHandleListCategories(t *testing.T) {
	result, _, err := handleListCategories(context.Background(), nil, CategoriesInput{Format: "json"})
	require.NoError(t, err)

	var infos []CategoryInfo
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &infos))
	require.Len(t, infos, 6)
	assert.Equal(t, "license", string(infos[0].Category))
	assert.Equal(t, "at_least", infos[1].Threshold)
	assert.Equal(t, "at_most", infos[5].Threshold)
	assert.Equal(t, -1.0, infos[5].Weight)
}

func TestParseFrontmatter(t *testing.T) {
	fm, body := parseFrontmatter([]byte("---\ndescription: Test\narguments:\n  - name: path\n    default: src\n---\nBody {{path}}\n"))
	assert.Equal(t, "Test", fm.Description)
	require.Len(t, fm.Arguments, 1)
	assert.Equal(t, "src", fm.Arguments[0].Default)
	assert.Equal(t, "Body {{path}}\n", body)

	fm, body = parseFrontmatter([]byte("no header"))
	assert.Empty(t, fm.Description)
	assert.Equal(t, "no header", body)

	_, body = parseFrontmatter([]byte("---\ndescription: unterminated\n"))
	assert.Equal(t, "---\ndescription: unterminated\n", body)
}

func TestSubstitute(t *testing.T) {
	args := []promptArgument{{Name: "path", Default: "."}}
	assert.Equal(t, "scan src", substitute("scan {{path}}", args, map[string]string{"path": "src"}))
	assert.Equal(t, "scan .", substitute("scan {{path}}", args, nil))
	assert.Equal(t, "scan {{other}}", substitute("scan {{other}}", args, nil))
}

func TestPromptFiles(t *testing.T) {
	entries, err := promptFiles.ReadDir("prompts")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		content, err := promptFiles.ReadFile("prompts/" + entry.Name())
		require.NoError(t, err)

		fm, body := parseFrontmatter(content)
		assert.NotEmpty(t, fm.Description, entry.Name())
		assert.Contains(t, body, "analyze_comments", entry.Name())

		handler := makePromptHandler(fm, body)
		result, err := handler(context.Background(), &mcp.GetPromptRequest{
			Params: &mcp.GetPromptParams{Name: entry.Name(), Arguments: map[string]string{"path": "app"}},
		})
		require.NoError(t, err)
		require.Len(t, result.Messages, 1)
		text := result.Messages[0].Content.(*mcp.TextContent).Text
		assert.Contains(t, text, "`app`")
		assert.NotContains(t, text, "{{")
	}
}

func TestServerOverTransport(t *testing.T) {
	ctx := context.Background()
	dir := writeFixture(t)
	s := testServer(t)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_comments", "list_categories"}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_comments",
		Arguments: map[string]any{"paths": []string{dir}, "only": []string{"todo"}},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), "TODO: cache this")

	prompts, err := session.ListPrompts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, prompts.Prompts, 2)
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "io.github.panbanda/cdensity", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	require.Len(t, m.Packages, 1)
	assert.Equal(t, "ghcr.io/panbanda/cdensity:1.2.3", m.Packages[0].Identifier)
	assert.Equal(t, "stdio", m.Packages[0].Transport.Type)
	require.Len(t, m.Packages[0].EnvironmentVariables, 1)
	assert.Equal(t, "CDENSITY_CONFIG", m.Packages[0].EnvironmentVariables[0].Name)

	for _, v := range []string{"", "dev"} {
		data, err = GenerateManifest(v)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"version": "0.0.0"`)
	}

	data, err = GenerateManifest("v2.0.1")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"identifier": "ghcr.io/panbanda/cdensity:2.0.1"`)
}
