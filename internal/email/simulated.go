package email

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookbliss/internal/types"
)

// SimulatedProvider is a Provider that delivers nothing. It logs an
// SMTP-style transcript of every message, optionally sleeps to mimic network
// latency, and can be scripted to fail. Used in local development and as the
// default provider when no real transport is configured: the notifier's
// non-goal is real delivery, so the transport is simulated end to end.
type SimulatedProvider struct {
	logger  types.Logger
	latency time.Duration

	// FailNext, when non-nil, is consulted per send; returning a non-nil
	// error makes that send fail. Tests use this to exercise failure paths.
	FailNext func(input types.SendInput) error
}

// SimulatedProviderConfig holds the configuration for a SimulatedProvider.
type SimulatedProviderConfig struct {
	// Latency is slept before each send resolves, mimicking the transport
	// round trip. Zero disables the sleep.
	Latency time.Duration
	Logger  types.Logger
}

// NewSimulatedProvider creates a SimulatedProvider.
func NewSimulatedProvider(cfg SimulatedProviderConfig) *SimulatedProvider {
	return &SimulatedProvider{
		logger:  cfg.Logger,
		latency: cfg.Latency,
	}
}

// Send logs the message transcript and returns a generated message ID. The
// context deadline is respected during the simulated latency sleep.
func (p *SimulatedProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	if p.FailNext != nil {
		if err := p.FailNext(input); err != nil {
			return "", err
		}
	}

	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return "", types.NewAppError(types.ErrCodeUpstreamEmail, "simulated send cancelled", ctx.Err())
		}
	}

	msgID := "msg-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]

	if p.logger != nil {
		p.logger.Info("simulated SMTP delivery",
			"message_id", msgID,
			"mail_from", input.From.Address,
			"rcpt_to", RedactAddress(input.To),
			"subject", input.Subject,
			"body_length", len(input.Body),
			"reference_id", input.ReferenceID,
		)
	}

	return msgID, nil
}

// Compile-time assertion that SimulatedProvider satisfies Provider.
var _ Provider = (*SimulatedProvider)(nil)
