package domain

// Column headers recognized in input files. Headers not in this set are kept
// in Record.Extra so unknown columns survive the round trip into the audit
// report.
const (
	FieldMaterialNumber = "Material_Number"
	FieldMaterialType   = "Material_Type"
	FieldIndustrySector = "Industry_Sector"
	FieldDescription    = "Description"
	FieldBaseUnit       = "Base_Unit"
	FieldMaterialGroup  = "Material_Group"
	FieldPrice          = "Price"
)

// Record is one input row describing a material master entity to create.
// Values are carried verbatim from the input file; trimming and parsing happen
// during validation. A Record is never mutated after construction.
type Record struct {
	// MaterialNumber is the externally assigned material number, if any.
	// Empty means the target system assigns one.
	MaterialNumber string

	// MaterialType is the material type code (e.g. "FERT", "ROH").
	MaterialType string

	// IndustrySector is the industry sector code (e.g. "M").
	IndustrySector string

	// Description is the material short text.
	Description string

	// BaseUnit is the base unit of measure (e.g. "EA", "KG").
	BaseUnit string

	// MaterialGroup is the optional material group.
	MaterialGroup string

	// Price is the optional standard price, carried as text until validation.
	Price string

	// Extra holds values from columns this tool does not interpret.
	Extra map[string]string
}

// Get returns the value for a known column header, falling back to Extra.
// Unknown headers with no Extra entry return "".
func (r Record) Get(header string) string {
	switch header {
	case FieldMaterialNumber:
		return r.MaterialNumber
	case FieldMaterialType:
		return r.MaterialType
	case FieldIndustrySector:
		return r.IndustrySector
	case FieldDescription:
		return r.Description
	case FieldBaseUnit:
		return r.BaseUnit
	case FieldMaterialGroup:
		return r.MaterialGroup
	case FieldPrice:
		return r.Price
	}
	return r.Extra[header]
}
