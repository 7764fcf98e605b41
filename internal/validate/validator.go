// Package validate implements the business-rule validation applied to every
// record before it is handed to a transport. Validation is pure and
// deterministic: the same record always yields the same result, and no rule
// short-circuits the others.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mdm-labs/matload/internal/domain"
)

// mandatoryFields lists the fields that must be present and non-empty after
// trimming. Order is stable so violation messages are reproducible.
var mandatoryFields = []string{
	domain.FieldMaterialType,
	domain.FieldIndustrySector,
	domain.FieldDescription,
	domain.FieldBaseUnit,
}

// validMaterialTypes is the closed set of permitted material type codes.
var validMaterialTypes = map[string]bool{
	"FERT": true, // finished product
	"ROH":  true, // raw material
	"HALB": true, // semi-finished product
	"HAWA": true, // trading goods
	"VERP": true, // packaging
}

// validIndustrySectors is the closed set of permitted industry sector codes.
var validIndustrySectors = map[string]bool{
	"M": true, // mechanical engineering
	"C": true, // chemical industry
	"P": true, // pharmaceuticals
	"A": true, // plant engineering
}

// maxBaseUnitLen is the unit-of-measure field length in the target system.
const maxBaseUnitLen = 3

// Validate checks a record against the material master business rules.
// Every failing rule appends one violation; the record is valid only when no
// rule fails. Unparsable values are reported as violations, never as errors.
func Validate(rec domain.Record) domain.ValidationResult {
	var violations []string

	for _, header := range mandatoryFields {
		if strings.TrimSpace(rec.Get(header)) == "" {
			violations = append(violations, fmt.Sprintf("Mandatory field '%s' is missing or empty", header))
		}
	}

	if matType := strings.ToUpper(strings.TrimSpace(rec.MaterialType)); matType != "" && !validMaterialTypes[matType] {
		violations = append(violations, fmt.Sprintf("Invalid Material Type: %s", matType))
	}

	if sector := strings.ToUpper(strings.TrimSpace(rec.IndustrySector)); sector != "" && !validIndustrySectors[sector] {
		violations = append(violations, fmt.Sprintf("Invalid Industry Sector: %s", sector))
	}

	if unit := strings.TrimSpace(rec.BaseUnit); unit != "" && len(unit) > maxBaseUnitLen {
		violations = append(violations, fmt.Sprintf("Base Unit too long: %s", unit))
	}

	if price := strings.TrimSpace(rec.Price); price != "" {
		v, err := strconv.ParseFloat(price, 64)
		switch {
		case err != nil:
			violations = append(violations, fmt.Sprintf("Invalid price value: %s", rec.Price))
		case v < 0:
			violations = append(violations, "Price cannot be negative")
		}
	}

	return domain.ValidationResult{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}
