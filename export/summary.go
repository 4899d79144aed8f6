package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/use-agent/rerascrape/models"
)

// RenderSummary prints the collected records as a table followed by the run
// counters.
func RenderSummary(w io.Writer, records []models.ProjectRecord, status models.RunStatus) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.SetTitle("Collected projects")

	header := table.Row{"#"}
	for _, c := range models.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for i, rec := range records {
		row := table.Row{i + 1}
		for _, v := range rec.Row() {
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, WidthMax: 48},
	})

	t.AppendFooter(table.Row{
		"", fmt.Sprintf("%d of %d", len(records), status.Target),
		"", "", "", fmt.Sprintf("%d skipped, %d reloads", status.Skipped, status.Reloads),
	})
	t.Render()
}
