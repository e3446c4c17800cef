package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rubiojr/omnibox/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Width(12)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	permissionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

var titleCaser = cases.Title(language.English)

// formatHeader renders the line shown above a result list.
func formatHeader(query string, provider *core.Descriptor) string {
	if provider == nil {
		return titleStyle.Render(fmt.Sprintf("%q", query))
	}
	return titleStyle.Render(fmt.Sprintf("%s › %q", provider.Name, query))
}

// formatResults renders results one per line, numbered from 1.
func formatResults(results []core.Result) string {
	if len(results) == 0 {
		return noDataStyle.Render("No results")
	}

	var b strings.Builder
	for i, r := range results {
		b.WriteString(fmt.Sprintf("%2d. ", i+1))
		b.WriteString(kindStyle.Render(titleCaser.String(string(r.Kind()))))
		b.WriteString(r.Title())
		if detail := resultDetail(r); detail != "" {
			b.WriteString("\n    ")
			b.WriteString(detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func resultDetail(r core.Result) string {
	switch v := r.(type) {
	case core.AppResult:
		return metaStyle.Render(v.App.Exec)
	case core.WebResult:
		if v.Subtitle != "" {
			return metaStyle.Render(v.Subtitle) + " " + urlStyle.Render(v.URL)
		}
		return urlStyle.Render(v.URL)
	case core.YouTubeResult:
		return urlStyle.Render(v.URL)
	case core.URLResult:
		return urlStyle.Render(v.URL)
	case core.ContactResult:
		parts := []string{}
		if v.Email != "" {
			parts = append(parts, v.Email)
		}
		if v.Phone != "" {
			parts = append(parts, v.Phone)
		}
		return metaStyle.Render(strings.Join(parts, " · "))
	case core.FileResult:
		return metaStyle.Render(v.Path)
	case core.PermissionRequiredResult:
		return permissionStyle.Render(fmt.Sprintf("grant with: omnibox permissions grant %s", v.Permission))
	}
	return ""
}
