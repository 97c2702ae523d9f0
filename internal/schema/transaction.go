package schema

// Transaction schema field names.
const (
	FieldBookingDate    = "booking date"
	FieldAmount         = "amount"
	FieldBookingText    = "booking text"
	FieldAccount        = "account"
	FieldCounterAccount = "counter-account"
	FieldCurrency       = "currency"
	FieldDebitCredit    = "debit/credit flag"
	FieldReference      = "reference number"
)

// DefaultCurrency is stored when a transaction row has no currency.
const DefaultCurrency = "EUR"

// Transaction returns the transaction-import schema.
func Transaction() *Schema {
	return New(KindTransactions, "transactions",
		Field{
			Name:        FieldBookingDate,
			Column:      "booking_date",
			Description: "Booking date (Buchungsdatum)",
			Required:    true,
			Rule:        Date,
			Normalize:   normalizeDate,
			Keywords: Keywords{
				Include: []string{"datum", "date", "buchungstag", "valuta", "wertstellung"},
			},
		},
		Field{
			Name:        FieldAmount,
			Column:      "amount",
			Description: "Amount (Betrag)",
			Required:    true,
			Rule:        Amount,
			Normalize:   normalizeAmount,
			Keywords: Keywords{
				Include: []string{"betrag", "amount", "umsatz", "summe", "wert", "value"},
			},
		},
		Field{
			Name:        FieldBookingText,
			Column:      "booking_text",
			Description: "Booking text (Buchungstext)",
			Required:    true,
			Keywords: Keywords{
				Include: []string{"buchungstext", "text", "verwendungszweck", "beschreibung", "bezeichnung", "description", "memo", "purpose"},
			},
		},
		Field{
			Name:        FieldAccount,
			Column:      "account",
			Description: "Account (Konto)",
			Keywords: Keywords{
				Include: []string{"konto", "account", "iban"},
				Exclude: []string{"gegen", "counter", "contra"},
			},
		},
		Field{
			Name:        FieldCounterAccount,
			Column:      "counter_account",
			Description: "Counter-account (Gegenkonto)",
			Keywords: Keywords{
				Include: []string{"gegenkonto", "gegen", "counter", "contra"},
			},
		},
		Field{
			Name:        FieldCurrency,
			Column:      "currency",
			Description: "Currency, defaults to EUR (Währung)",
			Default:     DefaultCurrency,
			Rule:        Currency,
			Normalize:   normalizeCurrency,
			Keywords: Keywords{
				Include: []string{"währung", "waehrung", "currency", "wkz"},
			},
		},
		Field{
			Name:        FieldDebitCredit,
			Column:      "debit_credit",
			Description: "Debit/credit flag, S or H (Soll/Haben)",
			Rule:        DebitCredit,
			Normalize:   normalizeDebitCredit,
			Keywords: Keywords{
				Include: []string{"soll", "haben", "s/h", "debit", "credit", "kennzeichen"},
			},
		},
		Field{
			Name:        FieldReference,
			Column:      "reference",
			Description: "Reference number (Belegnummer)",
			Keywords: Keywords{
				Include: []string{"referenz", "reference", "beleg", "ref"},
			},
		},
	)
}
