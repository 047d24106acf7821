// Package email implements the notification channel for the order notifier:
// an email channel that validates recipients, guards the delivery provider
// with a circuit breaker, and records every attempt in a bounded send log.
// Two providers are available: AWS SES for real delivery and a simulated
// provider for local development and tests.
package email

import (
	"context"

	"bookbliss/internal/types"
)

// Provider abstracts the email delivery backend. Implementations transmit
// pre-rendered content and return the provider's message ID for correlation.
type Provider interface {
	Send(ctx context.Context, input types.SendInput) (providerMsgID string, err error)
}
