package orders

import (
	"time"

	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
)

// NeedsAttention derives the staff attention flag from the order's current
// state. Nothing beyond the two last-seen stamps is persisted, so the signal
// can never go stale relative to its inputs.
//
// An order needs attention when staff have never viewed it, when a customer
// message postdates the last staff view, or when the order changed after the
// last staff view. A staff view clears the flag even for orders still in the
// requested state until something new happens on them.
func NeedsAttention(order *models.Order, latestCustomerMsgAt *time.Time) bool {
	if order.LastSeenStaffAt == nil {
		return true
	}
	seen := *order.LastSeenStaffAt
	if latestCustomerMsgAt != nil && latestCustomerMsgAt.After(seen) {
		return true
	}
	return order.UpdatedAt.After(seen)
}
