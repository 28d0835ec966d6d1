package document

type Type string

const (
	TypeCitizenship   Type = "citizenship"
	TypeLicense       Type = "license"
	TypePAN           Type = "pan"
	TypeBankStatement Type = "bank_statement"
	TypeSalarySlip    Type = "salary_slip"
	TypePassportPhoto Type = "passport_photo"
	TypeTaxClearance  Type = "tax_clearance"
	TypePassport      Type = "passport"
	TypeOther         Type = "other"
)

// CatalogEntry describes one document type offered to applicants.
type CatalogEntry struct {
	Type      Type   `json:"document_type"`
	Label     string `json:"label"`
	Mandatory bool   `json:"mandatory"`
}

// catalog is in canonical order; every ordered output follows it.
var catalog = []CatalogEntry{
	{TypeCitizenship, "Citizenship Certificate", true},
	{TypeLicense, "Driving License", true},
	{TypePAN, "PAN Card", false},
	{TypeBankStatement, "Bank Statement", true},
	{TypeSalarySlip, "Salary Slip", true},
	{TypePassportPhoto, "Passport Size Photo", false},
	{TypeTaxClearance, "Tax Clearance", false},
	{TypePassport, "Passport", false},
	{TypeOther, "Other", false},
}

func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// Mandatory returns the required checklist for a vehicle loan application.
func Mandatory() []Type {
	out := make([]Type, 0, 4)
	for _, e := range catalog {
		if e.Mandatory {
			out = append(out, e.Type)
		}
	}
	return out
}

func (t Type) Valid() bool {
	_, ok := position(t)
	return ok
}

func (t Type) Label() string {
	if i, ok := position(t); ok {
		return catalog[i].Label
	}
	return string(t)
}

func position(t Type) (int, bool) {
	for i, e := range catalog {
		if e.Type == t {
			return i, true
		}
	}
	return 0, false
}
