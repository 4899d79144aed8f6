package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/use-agent/rerascrape/models"
)

const sheetName = "Projects"

// WriteXLSX writes records to a single-sheet workbook with the same columns
// as the CSV.
func WriteXLSX(path string, records []models.ProjectRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, models.Columns); err != nil {
		return err
	}
	for i, rec := range records {
		if err := writeRow(f, i+2, rec.Row()); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	return nil
}
