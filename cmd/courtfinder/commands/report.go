package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"courtfinder/services/courtfinder"

	"github.com/jedib0t/go-pretty/v6/table"
)

func joinCourtNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// renderReport prints the free slots and the number of free courts per day.
func renderReport(w io.Writer, summary courtfinder.Summary) {
	dates := summary.Dates()
	if len(dates) == 0 {
		fmt.Fprintln(w, "No free courts found.")
		return
	}

	slots := table.NewWriter()
	slots.SetOutputMirror(w)
	slots.AppendHeader(table.Row{"Date", "Time", "Courts", "Court numbers"})
	for _, date := range dates {
		for _, slot := range summary.PerDate[date] {
			slots.AppendRow(table.Row{date, slot.Time, slot.AvailableCourtCount, joinCourtNumbers(slot.CourtNumbers)})
		}
	}
	slots.SetStyle(table.StyleRounded)
	slots.Render()

	totals := table.NewWriter()
	totals.SetOutputMirror(w)
	totals.AppendHeader(table.Row{"Date", "Total courts"})
	for _, date := range dates {
		totals.AppendRow(table.Row{date, summary.Totals[date]})
	}
	totals.AppendFooter(table.Row{"Total", summary.TotalCourts()})
	totals.SetStyle(table.StyleRounded)
	totals.Render()
}
