package enums

// LineRemovalReason explains why reconciliation evicted a cart line.
type LineRemovalReason string

const (
	RemovalNotActiveInCatalog LineRemovalReason = "not_active_in_catalog"
	RemovalPriceUnavailable   LineRemovalReason = "price_unavailable"
	RemovalPriceDrift         LineRemovalReason = "price_drift"
)

// String implements fmt.Stringer.
func (l LineRemovalReason) String() string {
	return string(l)
}
