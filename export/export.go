// Package export writes collected records to disk and renders the end-of-run
// summary.
package export

import (
	"fmt"
	"log/slog"

	"github.com/use-agent/rerascrape/models"
)

// Paths are the files Persist writes. An empty XLSX path skips the
// spreadsheet.
type Paths struct {
	CSV  string
	XLSX string
}

// Persist writes records as CSV and, best effort, as a spreadsheet. Only a
// CSV failure is returned; it carries ErrCodeExport.
func Persist(records []models.ProjectRecord, paths Paths) error {
	if err := WriteCSV(paths.CSV, records); err != nil {
		return models.NewScrapeError(models.ErrCodeExport, fmt.Sprintf("write %s", paths.CSV), err)
	}
	slog.Info("csv written", "path", paths.CSV, "records", len(records))

	if paths.XLSX == "" {
		return nil
	}
	if err := WriteXLSX(paths.XLSX, records); err != nil {
		slog.Warn("spreadsheet not written", "path", paths.XLSX, "error", err)
		return nil
	}
	slog.Info("spreadsheet written", "path", paths.XLSX, "records", len(records))
	return nil
}
