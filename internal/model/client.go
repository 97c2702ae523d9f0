package model

import "time"

// Client is a company managed by the advisory firm.
type Client struct {
	CreatedAt     time.Time
	DeletedAt     *time.Time
	ID            string
	OwnerID       string
	CompanyName   string
	LegalForm     string
	Street        string
	PostalCode    string
	City          string
	Country       string
	EmployeeCount int
}

// Deleted reports whether the client is in the trash.
func (c *Client) Deleted() bool {
	return c.DeletedAt != nil
}
