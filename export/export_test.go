package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/use-agent/rerascrape/models"
)

var sample = []models.ProjectRecord{
	{RegulatoryID: "RP/01/2023/00123", ProjectName: "Sunrise Heights", PromoterName: "Acme, Infra", PromoterAddress: "Patia\nBhubaneswar", TaxID: "21ABCDE1234F1Z5"},
	models.PromoterFallback("RP/01/2023/00124", "Lake View", models.TabNotFound),
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	require.NoError(t, WriteCSV(path, sample))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, models.Columns, rows[0])
	assert.Equal(t, sample[0].Row(), rows[1])
	assert.Equal(t, models.TabNotFound, rows[2][4])
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	require.NoError(t, WriteCSV(path, nil))
	assert.Equal(t, [][]string{models.Columns}, readCSV(t, path))
}

func TestWriteCSV_NoPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "output.csv")

	assert.Error(t, WriteCSV(path, sample))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteCSV_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteCSV(path, sample[:1]))
	assert.Len(t, readCSV(t, path), 2)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.xlsx")
	require.NoError(t, WriteXLSX(path, sample))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.Columns, rows[0])
	assert.Equal(t, sample[1].Row(), rows[2])
}

func TestPersist(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{CSV: filepath.Join(dir, "out.csv"), XLSX: filepath.Join(dir, "out.xlsx")}

	require.NoError(t, Persist(sample, paths))
	assert.FileExists(t, paths.CSV)
	assert.FileExists(t, paths.XLSX)
}

func TestPersist_SpreadsheetFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{CSV: filepath.Join(dir, "out.csv"), XLSX: filepath.Join(dir, "nope", "out.xlsx")}

	require.NoError(t, Persist(sample, paths))
	assert.FileExists(t, paths.CSV)
	assert.NoFileExists(t, paths.XLSX)
}

func TestPersist_CSVFailure(t *testing.T) {
	paths := Paths{CSV: filepath.Join(t.TempDir(), "nope", "out.csv")}

	err := Persist(sample, paths)
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeExport, se.Code)
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, sample, models.RunStatus{Target: 6, Skipped: 1})

	out := buf.String()
	assert.Contains(t, out, "Collected projects")
	assert.Contains(t, out, "RP/01/2023/00123")
	assert.Contains(t, out, models.TabNotFound)
	assert.Contains(t, out, "2 of 6")
}
