package enum

// ── Order state machine (CHECK constrained in DB) ──

const (
	OrderStatusPaymentPending = "payment_pending"
	OrderStatusPreparing      = "preparing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusReadyForPickup = "ready_for_pickup"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []string{
	OrderStatusPaymentPending,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusReadyForPickup,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

const (
	OrderTypeDelivery = "delivery"
	OrderTypeTakeaway = "takeaway"
)

const (
	PaymentMethodUPI  = "upi"
	PaymentMethodCash = "cash"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"
)

// ── Notification labels (no DB constraint) ──

const (
	AdminNotificationOrderPlaced = "order_placed"

	AdminNotificationAccepted = "accepted"
	AdminNotificationDeclined = "declined"
)

const (
	NotificationTypeOrder  = "order"
	NotificationTypePromo  = "promo"
	NotificationTypeSystem = "system"
)

// UPIReferenceNone is stored on orders that carry no UPI reference (takeaway).
const UPIReferenceNone = "N/A"
