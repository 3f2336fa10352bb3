package repairorders

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	CustomerID         int64           `json:"customer_id" validate:"required,gt=0"`
	TechnicianID       *int64          `json:"technician_id,omitempty" validate:"omitempty,gt=0"`
	DeviceType         string          `json:"device_type" validate:"required,max=50"`
	DeviceBrand        string          `json:"device_brand" validate:"required,max=50"`
	DeviceModel        string          `json:"device_model" validate:"required,max=100"`
	DeviceSerial       *string         `json:"device_serial,omitempty" validate:"omitempty,max=100"`
	ProblemDescription string          `json:"problem_description" validate:"required"`
	Priority           Priority        `json:"priority,omitempty"`
	DiagnosisCost      decimal.Decimal `json:"diagnosis_cost"`
	AdvancePayment     decimal.Decimal `json:"advance_payment"`
	PromisedDate       *time.Time      `json:"promised_date,omitempty"`
}

type TransitionRequest struct {
	Status   Status  `json:"status" validate:"required"`
	Override bool    `json:"override,omitempty"`
	Note     *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type UpdateCostsRequest struct {
	DiagnosisCost  *decimal.Decimal `json:"diagnosis_cost,omitempty"`
	RepairCost     *decimal.Decimal `json:"repair_cost,omitempty"`
	AdvancePayment *decimal.Decimal `json:"advance_payment,omitempty"`
}

type ListOrdersRequest struct {
	CustomerID *int64  `json:"customer_id,omitempty"`
	Status     *Status `json:"status,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
