package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/palette/internal/types"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// writeStructured writes v as JSON or YAML. It reports false for other
// formats so the caller can render text.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	case "", "text", "table":
		return false, nil
	default:
		return true, fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

// renderTable lays rows out in padded columns under a header.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string, style *lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if style != nil {
				padded = style.Render(padded)
			}
			parts[i] = padded
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	lines := []string{line(header, &headerStyle)}
	for _, row := range rows {
		lines = append(lines, line(row, nil))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statusText(status types.RuntimeStatus) string {
	switch status {
	case types.StatusSuccess:
		return okStyle.Render(string(status))
	case types.StatusError:
		return errorStyle.Render(string(status))
	case types.StatusLoading:
		return warnStyle.Render(string(status))
	default:
		return mutedStyle.Render(string(status))
	}
}

// renderDiagnostics writes one block per diagnostic.
func renderDiagnostics(w io.Writer, diagnostics []types.Diagnostic) {
	for _, d := range diagnostics {
		style := warnStyle
		if d.Level == types.LevelError {
			style = errorStyle
		}
		fmt.Fprintf(w, "%s %s [%s/%s] %s\n", style.Render(string(d.Level)), d.Code, d.LibraryID, d.Stage, d.Message)
		if d.Hint != "" {
			fmt.Fprintln(w, mutedStyle.Render("  hint: "+d.Hint))
		}
	}
}
