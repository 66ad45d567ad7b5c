package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func scenariosTable(scenarios []model.Scenario) string {
	t := newTable("SCENARIO", "DESCRIPTION")
	for _, s := range scenarios {
		t.Row(s.ScenarioID, s.Description)
	}
	return t.Render()
}

// itemsTable renders a set with secrets masked.
func itemsTable(items []model.ConfigItem) string {
	t := newTable("NAME", "TYPE", "VALUE", "DESCRIPTION")
	for _, item := range model.Redact(items) {
		t.Row(item.Name, string(item.Type), displayValue(item.Value), item.Description)
	}
	return t.Render()
}

func displayValue(v model.Value) string {
	if v.IsAbsent() {
		return subtleStyle.Render("-")
	}
	return v.String()
}

// warnFallback tells the user that defaults are shown instead of source data.
func warnFallback[T any](w io.Writer, res loader.Result[T]) {
	if !res.IsFallback() {
		return
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Config source unavailable, showing defaults: %v", res.Err)))
}
