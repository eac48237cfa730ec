// Package renderer renders the engine's reports to markdown, suitable for a
// terminal markdown renderer or a plain pager.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	loans "github.com/jeff-stratofied/loan-dashboard"
)

//go:embed templates/*.md
var templates embed.FS

// funcs are the formatting helpers available to all report templates.
var funcs = template.FuncMap{
	"money":  func(v float64) string { return loans.USD(v).String() },
	"signed": func(v float64) string { return loans.USD(v).SignedString() },
	"pct":    func(v float64) string { return loans.Percent(v * 100).SignedString() },
	"flag": func(b bool) string {
		if b {
			return "yes"
		}
		return ""
	},
}

// renderTemplate is a generic utility to render a report template against its
// data.
func renderTemplate(templateName, mainFile string, data any) string {
	content, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(content))
	if err != nil {
		return fmt.Sprintf("error parsing template %q: %v", mainFile, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
