package notifier

import (
	"time"

	"bookbliss/internal/types"
)

// Policy configures the repeating-update behavior for one order status:
// how often a scheduled update is sent, and how many timer-triggered sends
// are permitted before the schedule tears itself down.
type Policy struct {
	// Interval is the time between timer ticks for this status.
	Interval time.Duration
	// Cap is the maximum number of timer-triggered sends. The initial
	// synchronous send at Start does not count against the cap.
	Cap int
}

// PolicyTable maps each schedulable status to its Policy. Statuses absent
// from the table (including unrecognized ones) fall back to fallbackPolicy,
// so a schedule started with an unknown status still terminates.
type PolicyTable map[types.OrderStatus]Policy

// fallbackPolicy applies when a status has no configured entry.
var fallbackPolicy = Policy{Interval: 30 * time.Minute, Cap: 5}

// DefaultPolicies returns the production policy table. Confirmed and
// out-for-delivery orders update frequently over a short window; shipped
// orders update slowly over a longer one.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		types.StatusConfirmed:      {Interval: 30 * time.Minute, Cap: 4},
		types.StatusProcessing:     {Interval: 20 * time.Minute, Cap: 6},
		types.StatusShipped:        {Interval: 60 * time.Minute, Cap: 12},
		types.StatusOutForDelivery: {Interval: 15 * time.Minute, Cap: 8},
	}
}

// For returns the Policy for the given status, falling back to the default
// policy for statuses without an entry.
func (t PolicyTable) For(status types.OrderStatus) Policy {
	if p, ok := t[status]; ok && p.Interval > 0 && p.Cap > 0 {
		return p
	}
	return fallbackPolicy
}
