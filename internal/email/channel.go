package email

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker/v2"

	"bookbliss/internal/types"
)

// Circuit breaker tuning for the delivery provider. The breaker opens after
// consecutive provider failures and probes again after the cooldown, shielding
// the provider from a stampede of doomed sends while schedules keep ticking.
const (
	breakerFailureThreshold = 5
	breakerCooldown         = 60 * time.Second
)

// Channel is the notification channel: it validates the recipient, guards the
// delivery provider with a circuit breaker, and records every attempt in the
// send log. Send never returns an error; every attempt resolves to a
// SendResult and failures surface through Success=false.
type Channel struct {
	provider Provider
	from     types.SenderIdentity
	sendLog  *SendLog
	breaker  *gobreaker.CircuitBreaker[string]
	validate *validator.Validate
	clock    types.Clock
	logger   types.Logger
}

// ChannelConfig holds the dependencies for creating a Channel.
type ChannelConfig struct {
	Provider Provider
	From     types.SenderIdentity
	// SendLog records attempts. Optional; nil disables recording.
	SendLog *SendLog
	// Clock defaults to the real clock when nil.
	Clock  types.Clock
	Logger types.Logger
}

// NewChannel creates a Channel.
func NewChannel(cfg ChannelConfig) *Channel {
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "email-provider",
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
	})

	return &Channel{
		provider: cfg.Provider,
		from:     cfg.From,
		sendLog:  cfg.SendLog,
		breaker:  breaker,
		validate: validator.New(),
		clock:    clock,
		logger:   cfg.Logger,
	}
}

// Send delivers one message through the provider:
//  1. Validates the recipient address; invalid recipients fail without
//     touching the provider or the breaker.
//  2. Executes the provider send through the circuit breaker. An open breaker
//     fails fast with ErrCodeEmailBreakerOpen.
//  3. Records the attempt in the send log, recipient redacted.
func (c *Channel) Send(ctx context.Context, to, subject, body string) types.SendResult {
	now := c.clock.Now()

	if err := c.validate.Var(to, "required,email"); err != nil {
		appErr := types.NewAppError(types.ErrCodeValidationInvalidEmail, "invalid recipient address", err)
		return c.record(to, subject, body, types.SendResult{
			Success: false,
			Error:   appErr.Message,
			SentAt:  now,
		})
	}

	msgID, err := c.breaker.Execute(func() (string, error) {
		return c.provider.Send(ctx, types.SendInput{
			To:      to,
			From:    c.from,
			Subject: subject,
			Body:    body,
		})
	})
	if err != nil {
		appErr := c.mapSendError(err)
		if c.logger != nil {
			c.logger.Warn("email send failed",
				"rcpt_to", RedactAddress(to),
				"subject", subject,
				"error_code", string(appErr.Code),
				"error", appErr.Error(),
			)
		}
		return c.record(to, subject, body, types.SendResult{
			Success: false,
			Error:   appErr.Message,
			SentAt:  now,
		})
	}

	return c.record(to, subject, body, types.SendResult{
		Success:   true,
		MessageID: msgID,
		SentAt:    now,
	})
}

// mapSendError normalizes breaker and provider failures into AppErrors.
func (c *Channel) mapSendError(err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(types.ErrCodeEmailBreakerOpen, "email provider circuit open", err)
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return types.NewAppError(types.ErrCodeUpstreamEmail, "email provider error", err)
}

func (c *Channel) record(to, subject, body string, result types.SendResult) types.SendResult {
	if c.sendLog == nil {
		return result
	}

	status := LogStatusDelivered
	if !result.Success {
		status = LogStatusFailed
	}
	c.sendLog.Append(LogEntry{
		MessageID:  result.MessageID,
		To:         RedactAddress(to),
		Subject:    subject,
		Status:     status,
		Error:      result.Error,
		BodyLength: len(body),
		Timestamp:  result.SentAt,
	})
	return result
}
