package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a quote.
type Status string

const (
	StatusDraft    Status = "DRAFT"    // Editable, not yet shown to the customer
	StatusSent     Status = "SENT"     // Delivered, awaiting a decision
	StatusApproved Status = "APPROVED" // Customer accepted
	StatusRejected Status = "REJECTED" // Customer declined
	StatusExpired  Status = "EXPIRED"  // Validity window elapsed without a decision
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether the quote can no longer change status.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// DetailType classifies a quote line item.
type DetailType string

const (
	DetailPart    DetailType = "part"
	DetailLabor   DetailType = "labor"
	DetailService DetailType = "service"
)

// IsValid checks if the detail type is a known value.
func (t DetailType) IsValid() bool {
	switch t {
	case DetailPart, DetailLabor, DetailService:
		return true
	}
	return false
}

// Quote is a costed proposal, optionally linked to a repair order. The cost
// components are derived from the detail lines by type, which keeps the
// sum-consistency invariant (line totals add up to subtotal) true by
// construction. ExpiryDate is derived once at creation from ValidityDays and
// re-derived only when ValidityDays changes.
type Quote struct {
	ID             int64           `json:"id" db:"id"`
	QuoteNumber    string          `json:"quote_number" db:"quote_number"`
	CustomerID     int64           `json:"customer_id" db:"customer_id"`
	RepairOrderID  *int64          `json:"repair_order_id,omitempty" db:"repair_order_id"`
	CreatedBy      int64           `json:"created_by" db:"created_by"`
	LaborCost      decimal.Decimal `json:"labor_cost" db:"labor_cost"`
	PartsCost      decimal.Decimal `json:"parts_cost" db:"parts_cost"`
	AdditionalCost decimal.Decimal `json:"additional_cost" db:"additional_cost"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount       decimal.Decimal `json:"discount" db:"discount"`
	TaxRate        decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	Taxes          decimal.Decimal `json:"taxes" db:"taxes"`
	Total          decimal.Decimal `json:"total" db:"total"`
	ValidityDays   int             `json:"validity_days" db:"validity_days"`
	ExpiryDate     time.Time       `json:"expiry_date" db:"expiry_date"`
	Status         Status          `json:"status" db:"status"`
	ResponseDate   *time.Time      `json:"response_date,omitempty" db:"response_date"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	Version        int64           `json:"version" db:"version"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	Details []QuoteDetail `json:"details,omitempty" db:"-"`
}

// QuoteDetail is one line item on a quote.
type QuoteDetail struct {
	ID          int64           `json:"id" db:"id"`
	QuoteID     int64           `json:"quote_id" db:"quote_id"`
	Type        DetailType      `json:"type" db:"type"`
	Description string          `json:"description" db:"description"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price" db:"total_price"`
}
