package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mdm-labs/matload/internal/domain"
)

// ReadCSV parses a CSV file into records. The first row is the header row.
// Blank rows are skipped; rows may have fewer cells than headers.
func ReadCSV(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false

	headers, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input file %s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Strip a UTF-8 BOM left by spreadsheet exports.
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	var records []domain.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}
		if emptyRow(row) {
			continue
		}
		records = append(records, recordFromRow(headers, row))
	}
	return records, nil
}
