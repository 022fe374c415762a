package export

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/quantsignals/mktstruct/internal/format"
)

// ParquetSaver writes the dataset as a Parquet file with a flat row schema
// matching the tabular shape.
type ParquetSaver struct{}

// Extension returns "parquet".
func (ParquetSaver) Extension() string { return "parquet" }

// Save writes the dataset rows to path.
func (ParquetSaver) Save(ds *format.Dataset, path string) error {
	var err error
	switch {
	case ds.Books != nil:
		err = parquet.WriteFile(path, bookRows(ds.Books))
	case ds.TimeBuckets != nil:
		err = parquet.WriteFile(path, timeBucketRows(ds.TimeBuckets))
	case ds.VolumeBuckets != nil:
		err = parquet.WriteFile(path, volumeBucketRows(ds.VolumeBuckets))
	case ds.Metrics != nil:
		err = parquet.WriteFile(path, metricRows(ds.Metrics))
	case ds.Trades != nil:
		err = parquet.WriteFile(path, tradeRows(ds.Trades))
	default:
		return fmt.Errorf("export: empty dataset")
	}
	if err != nil {
		return fmt.Errorf("export: write parquet %s: %w", path, err)
	}
	return nil
}
