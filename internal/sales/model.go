package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a finalized transaction. It has no status machine of its own but
// shares the monetary rollup shape with quotes and repair orders: the same
// subtotal/discount/taxes/total derivation and the clamped pending balance.
type Sale struct {
	ID             int64           `json:"id" db:"id"`
	SaleNumber     string          `json:"sale_number" db:"sale_number"`
	CustomerID     int64           `json:"customer_id" db:"customer_id"`
	QuoteID        *int64          `json:"quote_id,omitempty" db:"quote_id"`
	RepairOrderID  *int64          `json:"repair_order_id,omitempty" db:"repair_order_id"`
	CreatedBy      int64           `json:"created_by" db:"created_by"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount       decimal.Decimal `json:"discount" db:"discount"`
	TaxRate        decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	Taxes          decimal.Decimal `json:"taxes" db:"taxes"`
	Total          decimal.Decimal `json:"total" db:"total"`
	AdvancePayment decimal.Decimal `json:"advance_payment" db:"advance_payment"`
	PendingBalance decimal.Decimal `json:"pending_balance" db:"pending_balance"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	Version        int64           `json:"version" db:"version"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	Items []SaleItem `json:"items,omitempty" db:"-"`
}

// SaleItem is one line on a sale.
type SaleItem struct {
	ID          int64           `json:"id" db:"id"`
	SaleID      int64           `json:"sale_id" db:"sale_id"`
	Description string          `json:"description" db:"description"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price" db:"total_price"`
}
