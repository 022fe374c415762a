package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/quantsignals/mktstruct/internal/domain"
	"github.com/quantsignals/mktstruct/internal/format"
)

// CSVSaver writes the dataset's tabular shape as CSV.
type CSVSaver struct{}

// Extension returns "csv".
func (CSVSaver) Extension() string { return "csv" }

// Save renders the dataset as a table and writes it to path. Empty cells
// (a null weighted price) stay empty.
func (CSVSaver) Save(ds *format.Dataset, path string) error {
	out, err := format.Format(ds, domain.FormatTable)
	if err != nil {
		return fmt.Errorf("export: tabulate: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(out.Table.Columns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, row := range out.Table.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cellString(cell)
		}
		if err := w.Write(cells); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush %s: %w", path, err)
	}
	return nil
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
