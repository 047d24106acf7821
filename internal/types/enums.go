package types

// OrderStatus is the lifecycle state of an order. The notifier understands a
// closed set of statuses: four schedulable states that drive repeating email
// updates, and two terminal states that produce a single final message.
type OrderStatus string

const (
	// StatusPending is the initial state of a freshly placed order. Pending
	// orders are not schedulable; the notifier only engages once an admin
	// confirms the order.
	StatusPending OrderStatus = "pending"

	// Schedulable states. Each carries its own update interval and cap.
	StatusConfirmed      OrderStatus = "confirmed"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusOutForDelivery OrderStatus = "out_for_delivery"

	// Terminal states. A transition into one of these sends exactly one final
	// message and never arms a schedule.
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Schedulable reports whether the status drives a repeating update schedule.
func (s OrderStatus) Schedulable() bool {
	switch s {
	case StatusConfirmed, StatusProcessing, StatusShipped, StatusOutForDelivery:
		return true
	}
	return false
}

// Terminal reports whether the status ends the order lifecycle. Terminal
// statuses trigger a single final notification instead of a schedule.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Known reports whether the status is part of the recognized lifecycle set.
// The notifier is permissive about unknown statuses (fallback template and
// policy), but the API layer rejects them at the boundary.
func (s OrderStatus) Known() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// AllOrderStatuses lists every recognized status, in lifecycle order.
// Used by the API layer for validation error details.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending,
		StatusConfirmed,
		StatusProcessing,
		StatusShipped,
		StatusOutForDelivery,
		StatusDelivered,
		StatusCancelled,
	}
}
