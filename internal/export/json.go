package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quantsignals/mktstruct/internal/format"
)

// JSONSaver writes the dataset as an indented JSON document.
type JSONSaver struct{}

// Extension returns "json".
func (JSONSaver) Extension() string { return "json" }

// Save marshals the dataset and writes it to path.
func (JSONSaver) Save(ds *format.Dataset, path string) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
