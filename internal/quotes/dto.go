package quotes

import "github.com/shopspring/decimal"

type DetailInput struct {
	Type        DetailType      `json:"type" validate:"required"`
	Description string          `json:"description" validate:"required,max=255"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateQuoteRequest struct {
	CustomerID    int64           `json:"customer_id" validate:"required,gt=0"`
	RepairOrderID *int64          `json:"repair_order_id,omitempty" validate:"omitempty,gt=0"`
	Discount      decimal.Decimal `json:"discount"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	ValidityDays  int             `json:"validity_days" validate:"required,gt=0,lte=365"`
	Notes         *string         `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Details       []DetailInput   `json:"details" validate:"dive"`
}

type RespondRequest struct {
	Decision Status `json:"decision" validate:"required"`
}

type UpdateValidityRequest struct {
	ValidityDays int `json:"validity_days" validate:"required,gt=0,lte=365"`
}

type ListQuotesRequest struct {
	CustomerID *int64  `json:"customer_id,omitempty"`
	Status     *Status `json:"status,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
