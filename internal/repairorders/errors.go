package repairorders

import (
	"errors"
	"fmt"
)

// Domain errors for repair orders.
var (
	// ErrNotFound indicates the requested repair order was not found.
	ErrNotFound = errors.New("repair order not found")
	// ErrPaymentPending blocks delivery while a balance remains and no
	// override was supplied.
	ErrPaymentPending = errors.New("pending balance must be zero before delivery")
	// ErrOrderClosed rejects mutations on delivered or cancelled orders.
	ErrOrderClosed = errors.New("repair order is closed")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("invalid repair order status")
	// ErrInvalidPriority indicates an unknown priority value.
	ErrInvalidPriority = errors.New("invalid repair order priority")
	// ErrNegativeAmount rejects negative monetary input.
	ErrNegativeAmount = errors.New("monetary amounts cannot be negative")
)

// InvalidTransitionError reports a transition outside the allowed successor
// set, carrying both ends so handlers can surface them.
type InvalidTransitionError struct {
	Current   Status
	Attempted Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition repair order from %s to %s", e.Current, e.Attempted)
}
