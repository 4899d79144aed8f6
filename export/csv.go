package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/use-agent/rerascrape/models"
)

// WriteCSV writes a header row plus one row per record. The file is written
// beside path and renamed into place, so path never holds a partial file.
func WriteCSV(path string, records []models.ProjectRecord) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(models.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err = w.Write(rec.Row()); err != nil {
			return fmt.Errorf("write row %s: %w", rec.RegulatoryID, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
