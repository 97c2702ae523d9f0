package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidDateRange  = errors.New("start date must be before end date")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidClient     = errors.New("invalid client")
	ErrInvalidBooking    = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateClient(c *model.Client) error {
	if c == nil {
		return fmt.Errorf("%w: client", ErrNilParameter)
	}
	required := []struct{ name, value string }{
		{"company name", c.CompanyName},
		{"street", c.Street},
		{"postal code", c.PostalCode},
		{"city", c.City},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidClient, r.name)
		}
	}
	if c.EmployeeCount < 0 {
		return fmt.Errorf("%w: negative employee count", ErrInvalidClient)
	}
	return nil
}

func validateTransaction(t *model.Transaction) error {
	if t == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if t.BookingDate.IsZero() {
		return fmt.Errorf("%w: missing booking date", ErrInvalidBooking)
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("%w: missing booking text", ErrInvalidBooking)
	}
	return nil
}
