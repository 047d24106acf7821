package email

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbliss/internal/types"
)

type stubClock struct {
	t time.Time
}

func (c stubClock) Now() time.Time { return c.t }

// mockProvider scripts per-call outcomes for Channel tests.
type mockProvider struct {
	mu     sync.Mutex
	calls  []types.SendInput
	err    error
	sendID string
}

func (p *mockProvider) Send(_ context.Context, input types.SendInput) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, input)
	if p.err != nil {
		return "", p.err
	}
	if p.sendID != "" {
		return p.sendID, nil
	}
	return fmt.Sprintf("prov-%d", len(p.calls)), nil
}

func newTestChannel(p Provider, log *SendLog) *Channel {
	return NewChannel(ChannelConfig{
		Provider: p,
		From:     types.SenderIdentity{Address: "orders@bookbliss.example.com", Name: "BookBliss Books"},
		SendLog:  log,
		Clock:    stubClock{t: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)},
	})
}

func TestChannel_Send_Success(t *testing.T) {
	provider := &mockProvider{sendID: "prov-abc"}
	log := NewSendLog(SendLogConfig{})
	ch := newTestChannel(provider, log)

	res := ch.Send(context.Background(), "reader@example.com", "Your order", "body text")

	assert.True(t, res.Success)
	assert.Equal(t, "prov-abc", res.MessageID)
	assert.Empty(t, res.Error)

	require.Len(t, provider.calls, 1)
	assert.Equal(t, "reader@example.com", provider.calls[0].To)
	assert.Equal(t, "orders@bookbliss.example.com", provider.calls[0].From.Address)

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, LogStatusDelivered, entries[0].Status)
	assert.Equal(t, "r***@example.com", entries[0].To, "log stores redacted recipient")
	assert.Equal(t, len("body text"), entries[0].BodyLength)
}

func TestChannel_Send_InvalidRecipientSkipsProvider(t *testing.T) {
	provider := &mockProvider{}
	log := NewSendLog(SendLogConfig{})
	ch := newTestChannel(provider, log)

	res := ch.Send(context.Background(), "not-an-address", "subj", "body")

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, provider.calls, "provider must not be touched for invalid recipients")

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, LogStatusFailed, entries[0].Status)
}

func TestChannel_Send_ProviderFailureNeverReturnsError(t *testing.T) {
	provider := &mockProvider{err: types.NewAppError(types.ErrCodeUpstreamEmail, "smtp 451", nil)}
	log := NewSendLog(SendLogConfig{})
	ch := newTestChannel(provider, log)

	res := ch.Send(context.Background(), "reader@example.com", "subj", "body")

	assert.False(t, res.Success)
	assert.Equal(t, "smtp 451", res.Error)

	require.Len(t, log.Failed(), 1)
}

func TestChannel_Send_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	provider := &mockProvider{err: errors.New("connection refused")}
	ch := newTestChannel(provider, nil)
	ctx := context.Background()

	for i := 0; i < breakerFailureThreshold; i++ {
		res := ch.Send(ctx, "reader@example.com", "subj", "body")
		assert.False(t, res.Success)
	}
	callsBeforeOpen := len(provider.calls)
	require.Equal(t, breakerFailureThreshold, callsBeforeOpen)

	// Breaker is now open: sends fail fast without reaching the provider.
	res := ch.Send(ctx, "reader@example.com", "subj", "body")
	assert.False(t, res.Success)
	assert.Equal(t, "email provider circuit open", res.Error)
	assert.Equal(t, callsBeforeOpen, len(provider.calls))
}

func TestChannel_Send_SuccessResetsBreakerCount(t *testing.T) {
	provider := &mockProvider{err: errors.New("flaky")}
	ch := newTestChannel(provider, nil)
	ctx := context.Background()

	for i := 0; i < breakerFailureThreshold-1; i++ {
		ch.Send(ctx, "reader@example.com", "subj", "body")
	}
	provider.err = nil
	res := ch.Send(ctx, "reader@example.com", "subj", "body")
	require.True(t, res.Success)

	// The failure streak was broken; the breaker stays closed.
	provider.err = errors.New("flaky again")
	res = ch.Send(ctx, "reader@example.com", "subj", "body")
	assert.False(t, res.Success)
	assert.NotEqual(t, "email provider circuit open", res.Error)
}

func TestChannel_Send_StampsSentAtFromClock(t *testing.T) {
	ch := newTestChannel(&mockProvider{}, nil)

	res := ch.Send(context.Background(), "reader@example.com", "subj", "body")
	assert.Equal(t, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), res.SentAt)
}
