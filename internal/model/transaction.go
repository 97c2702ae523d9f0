package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a booking imported from a bank or accounting export.
type Transaction struct {
	BookingDate    time.Time
	CreatedAt      time.Time
	Amount         decimal.Decimal
	ID             string
	OwnerID        string
	Hash           string
	Text           string // Buchungstext
	Account        string
	CounterAccount string
	Currency       string
	DebitCredit    string // S (Soll) or H (Haben)
	Reference      string
	Occurrence     int // earlier identical bookings in the same upload
}

// GenerateHash creates a hash for duplicate detection. Identical bookings
// within one upload differ by Occurrence, so only a repeated upload collides.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		t.OwnerID,
		t.BookingDate.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Text,
		t.Account,
		t.Reference)
	if t.Occurrence > 0 {
		data += fmt.Sprintf(":%d", t.Occurrence)
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
