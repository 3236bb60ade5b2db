package transcript

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV serializes rows as a two-column table with a Timestamp,Text
// header. Embedded delimiters and newlines get standard CSV quoting.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Timestamp", "Text"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Timestamp, row.Text}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the transcript table to path as UTF-8 CSV.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
