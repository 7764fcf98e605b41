// Package input reads tabular material data into records. CSV and XLSX files
// are supported; the first row is the header row and column order is free.
// Values are passed through verbatim; cleanup is the validator's job.
package input

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mdm-labs/matload/internal/domain"
)

// Read parses the input file into records, dispatching on the file extension.
func Read(path string) ([]domain.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx", ".xls":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedInput, path)
	}
}

// recordFromRow maps one data row onto a Record using the header row.
// Headers this tool does not interpret land in Extra. Rows shorter than the
// header row are padded with empty values.
func recordFromRow(headers, cells []string) domain.Record {
	var rec domain.Record
	for i, h := range headers {
		var v string
		if i < len(cells) {
			v = cells[i]
		}
		switch h {
		case domain.FieldMaterialNumber:
			rec.MaterialNumber = v
		case domain.FieldMaterialType:
			rec.MaterialType = v
		case domain.FieldIndustrySector:
			rec.IndustrySector = v
		case domain.FieldDescription:
			rec.Description = v
		case domain.FieldBaseUnit:
			rec.BaseUnit = v
		case domain.FieldMaterialGroup:
			rec.MaterialGroup = v
		case domain.FieldPrice:
			rec.Price = v
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[h] = v
		}
	}
	return rec
}

// emptyRow reports whether every cell in the row is blank.
func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
