package format

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/shll/contractsync/pkg/syncer"
)

var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	reportColumns = []table.Column{
		{Title: "NAME", Width: 20},
		{Title: "ACTION", Width: 10},
		{Title: "ADDRESS", Width: 44},
		{Title: "ITEMS", Width: 6},
		{Title: "DIFF", Width: 6},
		{Title: "ABI", Width: 40},
	}
)

// TableFormatter renders a report as a heading line followed by one row per
// entry.
type TableFormatter struct {
	writer io.Writer
}

func (f *TableFormatter) Format(report *syncer.Report) error {
	if _, err := fmt.Fprintf(f.writer, "%s: %s (run %s)\n", report.Target, reportState(report), report.RunID); err != nil {
		return err
	}

	if len(report.Entries) == 0 {
		_, err := fmt.Fprintln(f.writer, mutedStyle.Italic(true).Render("No contracts configured"))
		return err
	}

	rows := lo.Map(report.Entries, func(e syncer.EntryReport, _ int) table.Row {
		return table.Row{
			e.Name,
			string(e.Action),
			e.Address,
			strconv.Itoa(e.Items),
			diffOpsCell(e.DiffOps),
			summaryCell(e),
		}
	})

	t := table.New(
		table.WithColumns(reportColumns),
		table.WithRows(rows),
		table.WithFocused(false),
		// Rows plus the header and its bottom border.
		table.WithHeight(len(rows)+2),
		table.WithWidth(256),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedStyle.GetForeground()).
		BorderBottom(true).
		Bold(false)
	// The table is printed once, so no row is highlighted.
	s.Selected = s.Cell
	t.SetStyles(s)

	view := t.View()
	if view == "" {
		return f.writeEntries(report)
	}
	_, err := fmt.Fprintln(f.writer, view)
	return err
}

func reportState(report *syncer.Report) string {
	switch {
	case report.Written:
		return "written"
	case report.Changed:
		return "changes pending"
	default:
		return "up to date"
	}
}

// writeEntries is the plain-text rendering used when the table renders empty.
func (f *TableFormatter) writeEntries(report *syncer.Report) error {
	for i, e := range report.Entries {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer, "---")
		}
		_, _ = fmt.Fprintf(f.writer, "Name: %s\nAction: %s\nAddress: %s\n", e.Name, e.Action, e.Address)
		if e.PreviousAddress != "" && e.PreviousAddress != e.Address {
			_, _ = fmt.Fprintf(f.writer, "Previous Address: %s\n", e.PreviousAddress)
		}
		_, _ = fmt.Fprintf(f.writer, "ABI: %s\nItems: %d\nDiff: %s\n", e.ABIPath, e.Items, diffOpsCell(e.DiffOps))
	}
	return nil
}

func diffOpsCell(ops int) string {
	if ops < 0 {
		return "?"
	}
	return strconv.Itoa(ops)
}

func summaryCell(e syncer.EntryReport) string {
	if e.Summary == nil {
		return "-"
	}
	return e.Summary.String()
}
