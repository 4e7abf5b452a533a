// Package output renders analysis results as text, JSON, Markdown, TOON or
// HTML.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
	FormatHTML     Format = "html"
)

// ErrUnsupportedFormat is returned when data cannot be rendered in the
// requested format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	case "html":
		return FormatHTML
	default:
		return FormatText
	}
}

// Renderable defines data that can render itself in multiple formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the underlying data for JSON and TOON serialization.
	RenderData() any
}

// HTMLRenderable is a Renderable that also renders a standalone HTML page.
type HTMLRenderable interface {
	Renderable
	RenderHTML(w io.Writer) error
}

// Formatter writes Renderables in one format.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a formatter writing to stdout, or to the file output
// when it is set. Files are never colored.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	f := &Formatter{format: format, writer: os.Stdout, colored: colored}
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return nil, err
		}
		f.writer, f.file, f.colored = file, file, false
	}
	return f, nil
}

// NewWriterFormatter creates a formatter writing to w.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Colored returns whether colored output is enabled.
func (f *Formatter) Colored() bool {
	return f.colored
}

// Output writes data in the configured format. Data that is not Renderable
// is serialized, as JSON for the text and Markdown formats.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	if !ok {
		return f.outputRaw(data)
	}

	switch f.format {
	case FormatJSON:
		return f.outputJSON(r.RenderData())
	case FormatTOON:
		return f.outputTOON(r.RenderData())
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	case FormatHTML:
		h, ok := r.(HTMLRenderable)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.format)
		}
		return h.RenderHTML(f.writer)
	default:
		return r.RenderText(f.writer, f.colored)
	}
}

func (f *Formatter) outputRaw(data any) error {
	switch f.format {
	case FormatTOON:
		return f.outputTOON(data)
	case FormatHTML:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.format)
	case FormatMarkdown:
		fmt.Fprintln(f.writer, "```json")
		if err := f.outputJSON(data); err != nil {
			return err
		}
		fmt.Fprintln(f.writer, "```")
		return nil
	default:
		return f.outputJSON(data)
	}
}

func (f *Formatter) outputJSON(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (f *Formatter) outputTOON(data any) error {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", out)
	return err
}

// Table is a Renderable table. Rows may carry a color used by colored text
// output.
type Table struct {
	Title     string
	Headers   []string
	Rows      [][]string
	RowColors []comments.Color
	Footer    []string
	Data      any
}

// RenderData returns Data, or the rows keyed by header.
func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	result := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		result[i] = m
	}
	return result
}

func heading(w io.Writer, title, underline string, colored bool, attrs ...color.Attribute) {
	if title == "" {
		return
	}
	if colored {
		color.New(attrs...).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(underline, len(title)))
}

// RenderText writes the table without borders.
func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		heading(w, t.Title, "=", colored, color.Bold)
		fmt.Fprintln(w)
	}

	left := tw.CellAlignment{Global: tw.AlignLeft}
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: left, Formatting: tw.CellFormatting{AutoFormat: tw.On}},
			Row:    tw.CellConfig{Alignment: left},
			Footer: tw.CellConfig{Alignment: left},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders:  tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.Off}},
		}),
	)

	table.Header(t.Headers)
	for i, row := range t.Rows {
		if colored && i < len(t.RowColors) {
			painted := make([]string, len(row))
			for j, cell := range row {
				painted[j] = Colorize(t.RowColors[i], cell)
			}
			row = painted
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		footer := make([]any, len(t.Footer))
		for i, cell := range t.Footer {
			footer[i] = cell
		}
		table.Footer(footer...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// RenderMarkdown writes the table as a GitHub-flavored Markdown table.
func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}

	row := func(cells []string) {
		escaped := make([]string, len(cells))
		for i, c := range cells {
			escaped[i] = markdownCell(c)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
	}

	row(t.Headers)
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, r := range t.Rows {
		row(r)
	}
	if len(t.Footer) > 0 {
		row(t.Footer)
	}

	fmt.Fprintln(w)
	return nil
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", "<br>")
}

// Section is a Renderable titled block of text with nested sections.
type Section struct {
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Data     any       `json:"data,omitempty"`
}

// RenderData returns Data, or the section itself.
func (s *Section) RenderData() any {
	if s.Data != nil {
		return s.Data
	}
	return s
}

// RenderText writes the section with underlined titles.
func (s *Section) RenderText(w io.Writer, colored bool) error {
	s.renderText(w, colored, 0)
	return nil
}

func (s *Section) renderText(w io.Writer, colored bool, level int) {
	underline := "="
	if level > 0 {
		underline = "-"
	}
	heading(w, s.Title, underline, colored, color.Bold)
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
	}
	for _, sub := range s.Sections {
		fmt.Fprintln(w)
		sub.renderText(w, colored, level+1)
	}
}

// RenderMarkdown writes the section starting at a level-2 heading.
func (s *Section) RenderMarkdown(w io.Writer) error {
	s.renderMarkdown(w, 2)
	return nil
}

func (s *Section) renderMarkdown(w io.Writer, level int) {
	if s.Title != "" {
		fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), s.Title)
	}
	if s.Content != "" {
		fmt.Fprintf(w, "%s\n\n", s.Content)
	}
	for _, sub := range s.Sections {
		sub.renderMarkdown(w, level+1)
	}
}

// Report is a compound Renderable of sections and tables.
type Report struct {
	Title    string
	Sections []Renderable
	Data     any
}

// RenderData returns Data, or the data of every section.
func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	parts := make([]any, len(r.Sections))
	for i, s := range r.Sections {
		parts[i] = s.RenderData()
	}
	return map[string]any{"title": r.Title, "sections": parts}
}

// RenderText writes every section under the report title.
func (r *Report) RenderText(w io.Writer, colored bool) error {
	if r.Title != "" {
		heading(w, r.Title, "=", colored, color.Bold, color.FgCyan)
		fmt.Fprintln(w)
	}
	for i, s := range r.Sections {
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
		if i < len(r.Sections)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

// RenderMarkdown writes every section under a level-1 title.
func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", r.Title)
	}
	for _, s := range r.Sections {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

// Message helpers for colored output

func (f *Formatter) Success(format string, args ...any) {
	f.message(color.FgGreen, "", format, args...)
}

func (f *Formatter) Warning(format string, args ...any) {
	f.message(color.FgYellow, "WARNING: ", format, args...)
}

func (f *Formatter) Error(format string, args ...any) {
	f.message(color.FgRed, "ERROR: ", format, args...)
}

func (f *Formatter) Info(format string, args ...any) {
	f.message(color.FgCyan, "", format, args...)
}

func (f *Formatter) message(attr color.Attribute, prefix, format string, args ...any) {
	if f.colored {
		color.New(attr).Fprintf(f.writer, format+"\n", args...)
		return
	}
	fmt.Fprintf(f.writer, prefix+format+"\n", args...)
}

// Colorize paints text in a report color. White leaves text unchanged.
func Colorize(c comments.Color, text string) string {
	switch c {
	case comments.ColorGreen:
		return color.GreenString(text)
	case comments.ColorYellow:
		return color.YellowString(text)
	case comments.ColorRed:
		return color.RedString(text)
	default:
		return text
	}
}
