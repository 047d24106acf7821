package types

import "time"

// Order is the minimal order record the notifier operates against. The wider
// storefront (catalog, cart, payment) lives elsewhere; this service only needs
// the fields that drive status notifications.
type Order struct {
	ID            string      `json:"id"`
	CustomerEmail string      `json:"customer_email"`
	Status        OrderStatus `json:"status"`
	TotalCents    int64       `json:"total_cents"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ScheduleRecord is the durable projection of a live notification schedule.
// It is what the snapshot store persists and what RestoreAll reads back after
// a restart. Timer handles are deliberately absent: they cannot survive a
// process restart, so restore re-arms timers from these fields alone.
type ScheduleRecord struct {
	OrderID     string      `json:"order_id"`
	Recipient   string      `json:"recipient"`
	Status      OrderStatus `json:"status"`
	UpdateCount int         `json:"update_count"`
	LastSentAt  time.Time   `json:"last_sent_at"`
}

// SenderIdentity identifies the From address and display name on outbound
// email.
type SenderIdentity struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// SendInput carries a fully rendered message to an email provider.
type SendInput struct {
	To      string
	From    SenderIdentity
	Subject string
	Body    string
	// ReferenceID correlates the provider send with the originating order.
	ReferenceID string
}

// SendResult is the outcome of a send attempt. The notification channel never
// returns an error to its callers: every attempt resolves to a SendResult,
// and failures are reported through Success=false plus Error.
type SendResult struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id"`
	Error     string    `json:"error,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}
