package enums

import "fmt"

// OrderStatus tracks the manufacturing/delivery pipeline of an order.
// The pipeline is linear; Rejected is reachable from any non-terminal state.
type OrderStatus string

const (
	OrderStatusRequested       OrderStatus = "requested"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusPaymentApproved OrderStatus = "payment_approved"
	OrderStatusApproved        OrderStatus = "approved"
	OrderStatusInProduction    OrderStatus = "in_production"
	OrderStatusInShipping      OrderStatus = "in_shipping"
	OrderStatusInTransit       OrderStatus = "in_transit"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusRejected        OrderStatus = "rejected"
)

// orderStatusRank encodes the linear pipeline ordering. Rejected carries no
// rank; it is a terminal branch rather than a pipeline position.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusRequested:       0,
	OrderStatusAwaitingPayment: 1,
	OrderStatusPaymentApproved: 2,
	OrderStatusApproved:        3,
	OrderStatusInProduction:    4,
	OrderStatusInShipping:      5,
	OrderStatusInTransit:       6,
	OrderStatusDelivered:       7,
}

var validOrderStatuses = []OrderStatus{
	OrderStatusRequested,
	OrderStatusAwaitingPayment,
	OrderStatusPaymentApproved,
	OrderStatusApproved,
	OrderStatusInProduction,
	OrderStatusInShipping,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusRejected,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusRejected
}

// Rank returns the position of the status within the linear pipeline. The
// second return is false for Rejected, which sits outside the pipeline.
func (o OrderStatus) Rank() (int, bool) {
	rank, ok := orderStatusRank[o]
	return rank, ok
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
