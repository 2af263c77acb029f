package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SummaryTable renders static tabular data with padded columns.
type SummaryTable struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewSummaryTable creates a table with the given title and headers.
func NewSummaryTable(title string, headers []string) *SummaryTable {
	return &SummaryTable{Title: title, Headers: headers}
}

// AddRow appends a row.
func (t *SummaryTable) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render formats the table as aligned text.
func (t *SummaryTable) Render() string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(titleStyle.Render(t.Title))
		sb.WriteString("\n")
	}

	headerCells := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		headerCells[i] = pad(h, widths[i])
	}
	sb.WriteString(headerStyle.Render(strings.Join(headerCells, "  ")))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			cells[i] = pad(cell, w)
		}
		sb.WriteString(strings.Join(cells, "  "))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
