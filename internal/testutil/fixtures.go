package testutil

import (
	"strings"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// ClientCSV is a client export with German headers. Row 3 has an invalid
// postal code.
const ClientCSV = `Firmenname;Mitarbeiter;Rechtsform;Straße;PLZ;Ort
Müller GmbH;12;GmbH;Hauptstraße 1;10115;Berlin
Schmidt KG;4;KG;Marktplatz 3;ABC;Hamburg
Weber AG;250;AG;Leopoldstraße 7;80802;München
`

// TransactionCSV is a bank export with German headers and decimal commas.
const TransactionCSV = `Buchungstag;Betrag;Verwendungszweck;Konto;Währung
15.03.2024;-1.234,56;Miete März;DE02120300000000202051;EUR
01.03.2024;19,99;Gutschrift;DE02120300000000202051;EUR
`

// ClientRecord builds a valid client record for seeding.
func ClientRecord(row int, companyName, city string) model.Record {
	return model.Record{
		SourceRow: row,
		Fields: map[string]string{
			"company_name":   companyName,
			"employee_count": "10",
			"street":         "Hauptstraße 1",
			"postal_code":    "10115",
			"city":           city,
		},
	}
}

// CSVBytes converts a fixture to upload bytes with Windows line endings, as
// spreadsheet programs export them.
func CSVBytes(fixture string) []byte {
	return []byte(strings.ReplaceAll(fixture, "\n", "\r\n"))
}
