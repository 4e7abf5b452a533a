// Package report renders a density report as a standalone HTML page.
package report

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
)

//go:embed template.html
var templateFS embed.FS

// Renderer renders reports with the embedded template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a new renderer with the embedded template.
func NewRenderer() (*Renderer, error) {
	printer := message.NewPrinter(language.English)
	funcMap := template.FuncMap{
		// colorClass maps a report color to a CSS class.
		"colorClass": func(c comments.Color) string {
			switch c {
			case comments.ColorGreen:
				return "good"
			case comments.ColorYellow:
				return "warning"
			case comments.ColorRed:
				return "danger"
			default:
				return "neutral"
			}
		},
		"cdsClass": func(cds float64) string {
			if cds >= 0.8 {
				return "good"
			}
			if cds >= 0.5 {
				return "warning"
			}
			return "danger"
		},
		"title": cases.Title(language.English).String,
		"truncatePath": func(s string, n int) string {
			if len(s) <= n {
				return s
			}
			parts := strings.Split(s, "/")
			filename := parts[len(parts)-1]
			if len(parts) <= 2 || len(filename) >= n-4 {
				return "..." + s[len(s)-n+3:]
			}
			prefix := strings.Join(parts[:len(parts)-1], "/")
			remaining := n - len(filename) - 5
			if len(prefix) > remaining {
				prefix = prefix[len(prefix)-remaining:]
			}
			return ".../" + prefix + "/" + filename
		},
		"limit": func(rows []FileRow, n int) []FileRow {
			if len(rows) > n {
				return rows[:n]
			}
			return rows
		},
		"pct": func(v float64) string {
			return printer.Sprintf("%.1f%%", v)
		},
		"num": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"json": func(v any) template.JS {
			b, _ := json.Marshal(v)
			return template.JS(b)
		},
	}

	tmplContent, err := templateFS.ReadFile("template.html")
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("report").Funcs(funcMap).Parse(string(tmplContent))
	if err != nil {
		return nil, err
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page for data to w.
func (r *Renderer) Render(data *RenderData, w io.Writer) error {
	return r.tmpl.Execute(w, data)
}

// RenderToFile writes the page for data to outputPath.
func (r *Renderer) RenderToFile(data *RenderData, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := r.Render(data, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
