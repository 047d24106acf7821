package types

import "time"

// Logger defines the structured logging interface used throughout the service.
// Backed by log/slog in production; tests substitute a recording
// implementation.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Clock abstracts time for testability. The scheduler stamps lastSentAt via a
// Clock so tests can pin time without sleeping.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }
