package input

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mdm-labs/matload/internal/domain"
)

// ReadXLSX parses the first sheet of a workbook into records. The first row
// is the header row, matching the CSV layout.
func ReadXLSX(path string) ([]domain.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input file %s is empty", path)
	}

	headers := rows[0]
	var records []domain.Record
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		records = append(records, recordFromRow(headers, row))
	}
	return records, nil
}
