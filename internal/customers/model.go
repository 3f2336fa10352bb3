package customers

import (
	"strings"
	"time"
)

// Customer is the identity record behind every repair order, quote and sale.
// QRCode is the portal identity token, unique and non-empty after creation.
type Customer struct {
	ID             int64      `json:"id" db:"id"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	DocumentType   string     `json:"document_type" db:"document_type"`
	DocumentNumber string     `json:"document_number" db:"document_number"`
	Email          *string    `json:"email,omitempty" db:"email"`
	Phone          *string    `json:"phone,omitempty" db:"phone"`
	Address        *string    `json:"address,omitempty" db:"address"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	QRCode         string     `json:"qr_code" db:"qr_code"`
	QRURL          string     `json:"qr_url,omitempty" db:"-"`
	CreatedBy      int64      `json:"created_by" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName joins the customer's name parts.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
