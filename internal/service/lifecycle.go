package service

import "github.com/hostelbites/api/internal/enum"

// allowedTransitions maps a status to the statuses an admin may move it to.
// Order type narrows preparing further, see validateStatusTransition.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPaymentPending: {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing:      {enum.OrderStatusOutForDelivery, enum.OrderStatusReadyForPickup, enum.OrderStatusCancelled},
	enum.OrderStatusOutForDelivery: {enum.OrderStatusDelivered},
	enum.OrderStatusReadyForPickup: {enum.OrderStatusDelivered},
}

func validateStatusTransition(orderType, current, next string) error {
	for _, s := range AllowedTransitions(orderType, current) {
		if s == next {
			return nil
		}
	}
	return &TransitionError{From: current, To: next}
}

// AllowedTransitions lists the statuses an order of orderType may move to
// from current. Terminal statuses return nil.
func AllowedTransitions(orderType, current string) []string {
	var out []string
	for _, s := range allowedTransitions[current] {
		if s == enum.OrderStatusOutForDelivery && orderType != enum.OrderTypeDelivery {
			continue
		}
		if s == enum.OrderStatusReadyForPickup && orderType != enum.OrderTypeTakeaway {
			continue
		}
		out = append(out, s)
	}
	return out
}

func isValidOrderStatus(s string) bool {
	for _, status := range enum.OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func isCancellable(status string) bool {
	return status == enum.OrderStatusPaymentPending || status == enum.OrderStatusPreparing
}

func isTerminal(status string) bool {
	return status == enum.OrderStatusDelivered || status == enum.OrderStatusCancelled
}

// initialOrderState returns the starting status and payment method for an
// order type. Takeaway is paid in cash at the counter and skips payment
// verification.
func initialOrderState(orderType string) (status, paymentMethod string) {
	if orderType == enum.OrderTypeTakeaway {
		return enum.OrderStatusPreparing, enum.PaymentMethodCash
	}
	return enum.OrderStatusPaymentPending, enum.PaymentMethodUPI
}
