package schema

// Client schema field names.
const (
	FieldCompanyName   = "company name"
	FieldEmployeeCount = "employee count"
	FieldLegalForm     = "legal form"
	FieldStreet        = "street"
	FieldPostalCode    = "postal code"
	FieldCity          = "city"
	FieldCountry       = "country"
)

// DefaultCountry is stored when a client row has no country.
const DefaultCountry = "Deutschland"

// Client returns the client-import schema.
func Client() *Schema {
	return New(KindClients, "clients",
		Field{
			Name:        FieldCompanyName,
			Column:      "company_name",
			Description: "Name of the company (Firmenname)",
			Required:    true,
			Keywords: Keywords{
				Include: []string{"firma", "firmen", "unternehmen", "company", "firm", "business", "mandant", "name"},
				Exclude: []string{"stra", "street", "vorname", "nachname"},
			},
		},
		Field{
			Name:        FieldEmployeeCount,
			Column:      "employee_count",
			Description: "Number of employees (Mitarbeiter)",
			Required:    true,
			Rule:        NonNegativeInteger,
			Normalize:   normalizeInteger,
			Keywords: Keywords{
				Include: []string{"mitarbeiter", "beschäftigte", "angestellte", "employee", "staff", "headcount"},
			},
		},
		Field{
			Name:        FieldLegalForm,
			Column:      "legal_form",
			Description: "Legal form, e.g. GmbH (Rechtsform)",
			Keywords: Keywords{
				Include: []string{"rechtsform", "gesellschaftsform", "legal", "form"},
				Exclude: []string{"inform", "format"},
			},
		},
		Field{
			Name:        FieldStreet,
			Column:      "street",
			Description: "Street and house number (Straße)",
			Required:    true,
			Keywords: Keywords{
				Include: []string{"straße", "strasse", "str.", "street", "adresse", "address", "anschrift"},
			},
		},
		Field{
			Name:        FieldPostalCode,
			Column:      "postal_code",
			Description: "Postal code, 4-5 digits (PLZ)",
			Required:    true,
			Rule:        PostalCode,
			Normalize:   normalizePostalCode,
			Keywords: Keywords{
				Include: []string{"plz", "postleitzahl", "zip", "postal", "postcode"},
			},
		},
		Field{
			Name:        FieldCity,
			Column:      "city",
			Description: "City (Ort)",
			Required:    true,
			Keywords: Keywords{
				Include: []string{"ort", "stadt", "city", "town", "gemeinde"},
				Exclude: []string{"report", "export", "import"},
			},
		},
		Field{
			Name:        FieldCountry,
			Column:      "country",
			Description: "Country (Land), defaults to Deutschland",
			Default:     DefaultCountry,
			Keywords: Keywords{
				Include: []string{"land", "country", "staat", "nation"},
				Exclude: []string{"bundesland"},
			},
		},
	)
}
