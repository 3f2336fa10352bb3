// Package notify orchestrates outbound customer communications over email
// and WhatsApp. Delivery is best effort: a lifecycle transition never fails
// or rolls back because a channel failed.
package notify

import "context"

// EventType identifies the lifecycle occurrence being communicated.
type EventType string

const (
	// EventWelcome greets a new customer and delivers their QR identity.
	EventWelcome EventType = "customer.welcome"
	// EventQuoteSent delivers a quote document to the customer.
	EventQuoteSent EventType = "quote.sent"
	// EventRepairStatus informs the customer of a repair order transition.
	EventRepairStatus EventType = "repair.status_changed"
)

// Recipient is a snapshot of the customer's contact details taken when the
// triggering transition committed.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Attachment carries a rendered document or image to deliver alongside the
// message body.
type Attachment struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Event describes one outbound notification.
type Event struct {
	Type         EventType   `json:"type"`
	CustomerID   int64       `json:"customer_id"`
	EntityID     int64       `json:"entity_id,omitempty"`
	EntityNumber string      `json:"entity_number,omitempty"`
	Status       string      `json:"status,omitempty"`
	Token        string      `json:"token,omitempty"`
	Recipient    Recipient   `json:"recipient"`
	Attachment   *Attachment `json:"attachment,omitempty"`
}

// Enqueuer defers an event to the background queue. Lifecycle services call
// this after their transaction commits; enqueue failures are logged by the
// caller and never propagated.
type Enqueuer interface {
	Enqueue(ctx context.Context, event Event) error
}
