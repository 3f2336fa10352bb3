package sales

import "github.com/shopspring/decimal"

type ItemInput struct {
	Description string          `json:"description" validate:"required,max=255"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateSaleRequest struct {
	CustomerID     int64           `json:"customer_id" validate:"required,gt=0"`
	QuoteID        *int64          `json:"quote_id,omitempty" validate:"omitempty,gt=0"`
	RepairOrderID  *int64          `json:"repair_order_id,omitempty" validate:"omitempty,gt=0"`
	Discount       decimal.Decimal `json:"discount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	AdvancePayment decimal.Decimal `json:"advance_payment"`
	Notes          *string         `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Items          []ItemInput     `json:"items" validate:"min=1,dive"`
}

type RegisterPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ListSalesRequest struct {
	CustomerID *int64 `json:"customer_id,omitempty"`
	Limit      int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int    `json:"offset" validate:"gte=0"`
}
