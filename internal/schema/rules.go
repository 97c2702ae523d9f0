package schema

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Rule failure messages.
var (
	ErrPostalCode  = errors.New("must be a numeric postal code of 4-5 digits")
	ErrNonNegative = errors.New("must be a whole number of 0 or more")
	ErrDate        = errors.New("must be a valid date (e.g. 31.12.2024)")
	ErrAmount      = errors.New("must be a number (e.g. 1.234,56)")
	ErrCurrency    = errors.New("must be a 3-letter currency code (e.g. EUR)")
	ErrDebitCredit = errors.New("must be S (Soll) or H (Haben)")
)

var (
	postalCodePattern = regexp.MustCompile(`^\d{4,5}$`)
	currencyPattern   = regexp.MustCompile(`^[A-Z]{3}$`)
)

// dateLayouts are tried in order. German layouts come first.
var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
}

// PostalCode accepts German and Austrian/Swiss style codes of 4 or 5 digits.
func PostalCode(c model.Cell) error {
	if _, err := normalizePostalCode(c); err != nil {
		return err
	}
	return nil
}

func normalizePostalCode(c model.Cell) (string, error) {
	s := c.Trimmed()
	if !postalCodePattern.MatchString(s) {
		return "", ErrPostalCode
	}
	return s, nil
}

// NonNegativeInteger accepts whole numbers >= 0.
func NonNegativeInteger(c model.Cell) error {
	_, err := ParseNonNegativeInteger(c)
	return err
}

// ParseNonNegativeInteger parses a whole number >= 0.
func ParseNonNegativeInteger(c model.Cell) (int, error) {
	if c.Kind == model.CellNumber {
		if c.Number < 0 || c.Number != math.Trunc(c.Number) || c.Number > math.MaxInt32 {
			return 0, ErrNonNegative
		}
		return int(c.Number), nil
	}
	n, err := strconv.Atoi(c.Trimmed())
	if err != nil || n < 0 {
		return 0, ErrNonNegative
	}
	return n, nil
}

func normalizeInteger(c model.Cell) (string, error) {
	n, err := ParseNonNegativeInteger(c)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}

// Date accepts a calendar date in one of the supported layouts or an Excel
// serial date number.
func Date(c model.Cell) error {
	_, err := ParseDate(c)
	return err
}

// ParseDate parses a calendar date. Numeric cells are Excel serial dates.
func ParseDate(c model.Cell) (time.Time, error) {
	if c.Kind == model.CellNumber {
		if c.Number <= 0 {
			return time.Time{}, ErrDate
		}
		t, err := excelize.ExcelDateToTime(c.Number, false)
		if err != nil {
			return time.Time{}, ErrDate
		}
		return t, nil
	}
	s := c.Trimmed()
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrDate
}

func normalizeDate(c model.Cell) (string, error) {
	t, err := ParseDate(c)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

// Amount accepts a decimal number in German (1.234,56) or plain (1234.56)
// notation, with an optional currency sign and trailing minus.
func Amount(c model.Cell) error {
	_, err := ParseAmount(c)
	return err
}

// ParseAmount parses a monetary amount.
func ParseAmount(c model.Cell) (decimal.Decimal, error) {
	if c.Kind == model.CellNumber {
		return decimal.NewFromFloat(c.Number), nil
	}

	s := c.Trimmed()
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "€"), "€"))
	s = strings.TrimSpace(strings.TrimSuffix(s, "EUR"))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")

	negative := false
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if s == "" {
		return decimal.Zero, ErrAmount
	}

	s = canonicalDecimal(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmount
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// canonicalDecimal rewrites thousands and decimal separators to plain
// notation. When both separators occur, the last one is the decimal mark.
func canonicalDecimal(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}

func normalizeAmount(c model.Cell) (string, error) {
	d, err := ParseAmount(c)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// Currency accepts an ISO 4217 style code or the euro sign.
func Currency(c model.Cell) error {
	_, err := normalizeCurrency(c)
	return err
}

func normalizeCurrency(c model.Cell) (string, error) {
	s := strings.ToUpper(c.Trimmed())
	if s == "€" {
		return DefaultCurrency, nil
	}
	if !currencyPattern.MatchString(s) {
		return "", ErrCurrency
	}
	return s, nil
}

// DebitCredit accepts the Soll/Haben flag in its common spellings.
func DebitCredit(c model.Cell) error {
	_, err := normalizeDebitCredit(c)
	return err
}

func normalizeDebitCredit(c model.Cell) (string, error) {
	switch strings.ToUpper(c.Trimmed()) {
	case "S", "SOLL", "D", "DEBIT", "-":
		return "S", nil
	case "H", "HABEN", "C", "CREDIT", "+":
		return "H", nil
	default:
		return "", ErrDebitCredit
	}
}
