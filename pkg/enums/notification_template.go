package enums

// NotificationTemplate names the message templates the dispatcher understands.
type NotificationTemplate string

const (
	TemplateOrderConfirmation NotificationTemplate = "order_confirmation"
	TemplateNewOrderAlert     NotificationTemplate = "new_order_alert"
	TemplateStatusUpdate      NotificationTemplate = "status_update"
	TemplateOrderRejected     NotificationTemplate = "order_rejected"
)

// String implements fmt.Stringer.
func (n NotificationTemplate) String() string {
	return string(n)
}
