package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{name: "valid string", str: "test", paramName: "ownerID"},
		{name: "empty string", str: "", paramName: "ownerID", wantErr: true},
		{name: "whitespace only", str: "   ", paramName: "clientID", wantErr: true},
		{name: "string with spaces", str: "  test  ", paramName: "ownerID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateClient(t *testing.T) {
	valid := func() *model.Client {
		return &model.Client{
			CompanyName:   "Müller GmbH",
			EmployeeCount: 12,
			Street:        "Hauptstraße 1",
			PostalCode:    "10115",
			City:          "Berlin",
		}
	}

	tests := []struct {
		client  *model.Client
		name    string
		wantMsg string
	}{
		{name: "valid", client: valid()},
		{name: "nil", client: nil, wantMsg: "parameter cannot be nil"},
		{
			name:    "missing company",
			client:  func() *model.Client { c := valid(); c.CompanyName = " "; return c }(),
			wantMsg: "missing company name",
		},
		{
			name:    "missing postal code",
			client:  func() *model.Client { c := valid(); c.PostalCode = ""; return c }(),
			wantMsg: "missing postal code",
		},
		{
			name:    "negative employees",
			client:  func() *model.Client { c := valid(); c.EmployeeCount = -1; return c }(),
			wantMsg: "negative employee count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateClient(tt.client)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantMsg)
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		txn     *model.Transaction
		name    string
		wantErr error
	}{
		{name: "valid", txn: &model.Transaction{BookingDate: date, Text: "Miete"}},
		{name: "nil", txn: nil, wantErr: ErrNilParameter},
		{name: "missing date", txn: &model.Transaction{Text: "Miete"}, wantErr: ErrInvalidBooking},
		{name: "missing text", txn: &model.Transaction{BookingDate: date}, wantErr: ErrInvalidBooking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransaction(tt.txn)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
