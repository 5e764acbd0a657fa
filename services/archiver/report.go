package archiver

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderReport prints the batch outcome as a table, one line per
// (table, year) pair.
func RenderReport(w io.Writer, items []Item) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Table", "Year", "Status", "Rows", "Detail"})

	for _, item := range items {
		rows := ""
		if item.Status == StatusWritten {
			rows = strconv.Itoa(item.Rows)
		}
		detail := item.Path
		if item.Status == StatusFailed {
			detail = item.Reason
		}
		t.AppendRow(table.Row{item.Table, item.Year, string(item.Status), rows, detail})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// FailedCount reports how many items in a batch failed outright.
func FailedCount(items []Item) int {
	count := 0
	for _, item := range items {
		if item.Status == StatusFailed {
			count++
		}
	}
	return count
}
