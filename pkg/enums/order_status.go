package enums

import "fmt"

// OrderStatus tracks the lifecycle of a storefront order. Any status may be set
// from any other; the ordering below only drives the customer-facing timeline.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPacked     OrderStatus = "packed"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPacked,
	OrderStatusDispatched,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// OrderTimeline is the forward progression rendered to customers.
var OrderTimeline = []OrderStatus{
	OrderStatusPending,
	OrderStatusPacked,
	OrderStatusDispatched,
	OrderStatusCompleted,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status is conventionally final. It is not enforced.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Step returns the zero-based timeline position, or -1 for cancelled/unknown statuses.
func (s OrderStatus) Step() int {
	for i, candidate := range OrderTimeline {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
