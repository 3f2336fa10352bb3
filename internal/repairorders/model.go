package repairorders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a repair order.
type Status string

const (
	StatusReceived     Status = "RECEIVED"      // Device taken in at the counter
	StatusDiagnosing   Status = "DIAGNOSING"    // Technician evaluating the fault
	StatusWaitingParts Status = "WAITING_PARTS" // Blocked on a parts order
	StatusRepairing    Status = "REPAIRING"     // Repair in progress
	StatusQualityCheck Status = "QUALITY_CHECK" // Post-repair verification
	StatusRepaired     Status = "REPAIRED"      // Ready for pickup
	StatusDelivered    Status = "DELIVERED"     // Handed back to the customer
	StatusCancelled    Status = "CANCELLED"     // Abandoned at any point before delivery
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusReceived, StatusDiagnosing, StatusWaitingParts, StatusRepairing,
		StatusQualityCheck, StatusRepaired, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Priority orders the intake queue.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// IsValid checks if the priority is a known value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RepairOrder is one physical device intake. It is mutated only through
// state-machine transitions and never hard-deleted; cancellation is a
// terminal status, not removal. Version backs the optimistic concurrency
// check on the read-validate-write transition sequence.
type RepairOrder struct {
	ID                 int64           `json:"id" db:"id"`
	OrderNumber        string          `json:"order_number" db:"order_number"`
	CustomerID         int64           `json:"customer_id" db:"customer_id"`
	TechnicianID       *int64          `json:"technician_id,omitempty" db:"technician_id"`
	ReceivedBy         int64           `json:"received_by" db:"received_by"`
	DeviceType         string          `json:"device_type" db:"device_type"`
	DeviceBrand        string          `json:"device_brand" db:"device_brand"`
	DeviceModel        string          `json:"device_model" db:"device_model"`
	DeviceSerial       *string         `json:"device_serial,omitempty" db:"device_serial"`
	ProblemDescription string          `json:"problem_description" db:"problem_description"`
	Status             Status          `json:"status" db:"status"`
	Priority           Priority        `json:"priority" db:"priority"`
	DiagnosisCost      decimal.Decimal `json:"diagnosis_cost" db:"diagnosis_cost"`
	RepairCost         decimal.Decimal `json:"repair_cost" db:"repair_cost"`
	TotalCost          decimal.Decimal `json:"total_cost" db:"total_cost"`
	AdvancePayment     decimal.Decimal `json:"advance_payment" db:"advance_payment"`
	PendingBalance     decimal.Decimal `json:"pending_balance" db:"pending_balance"`
	PromisedDate       *time.Time      `json:"promised_date,omitempty" db:"promised_date"`
	DiagnosisDate      *time.Time      `json:"diagnosis_date,omitempty" db:"diagnosis_date"`
	RepairDate         *time.Time      `json:"repair_date,omitempty" db:"repair_date"`
	DeliveryDate       *time.Time      `json:"delivery_date,omitempty" db:"delivery_date"`
	Version            int64           `json:"version" db:"version"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// HistoryRecord is one append-only entry in the order's transition log.
// Records are never edited or deleted.
type HistoryRecord struct {
	ID         int64     `json:"id" db:"id"`
	OrderID    int64     `json:"order_id" db:"order_id"`
	FromStatus Status    `json:"from_status" db:"from_status"`
	ToStatus   Status    `json:"to_status" db:"to_status"`
	ActorID    int64     `json:"actor_id" db:"actor_id"`
	Note       *string   `json:"note,omitempty" db:"note"`
	Override   bool      `json:"override" db:"override"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
