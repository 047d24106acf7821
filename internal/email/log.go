package email

import (
	"sync"
	"time"

	"bookbliss/internal/types"
)

// DefaultLogCapacity is the number of recent send attempts kept in memory for
// the admin monitoring surface.
const DefaultLogCapacity = 100

// Log entry statuses.
const (
	LogStatusDelivered = "delivered"
	LogStatusFailed    = "failed"
)

// LogEntry records one send attempt, success or failure. The recipient is
// stored redacted; full addresses never reach the monitoring surface.
type LogEntry struct {
	MessageID  string    `json:"message_id"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	BodyLength int       `json:"body_length"`
	Timestamp  time.Time `json:"timestamp"`
}

// LogStats summarizes the in-memory send log.
type LogStats struct {
	Total       int      `json:"total"`
	Delivered   int      `json:"delivered"`
	Failed      int      `json:"failed"`
	SuccessRate float64  `json:"success_rate"`
	Last        *LogEntry `json:"last,omitempty"`
}

// EntrySink receives entries evicted from the send log. Implementations own
// their durability; a sink failure is logged by the caller and otherwise
// ignored.
type EntrySink interface {
	Archive(entries []LogEntry) error
}

// SendLog is a bounded, newest-first ring of recent send attempts. When the
// ring is full, the oldest entries are evicted to the optional sink.
type SendLog struct {
	mu      sync.Mutex
	entries []LogEntry // newest first
	cap     int
	sink    EntrySink
	logger  types.Logger
}

// SendLogConfig holds the configuration for a SendLog.
type SendLogConfig struct {
	// Capacity defaults to DefaultLogCapacity when <= 0.
	Capacity int
	// Sink receives evicted entries. Optional.
	Sink   EntrySink
	Logger types.Logger
}

// NewSendLog creates a SendLog.
func NewSendLog(cfg SendLogConfig) *SendLog {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &SendLog{
		cap:    capacity,
		sink:   cfg.Sink,
		logger: cfg.Logger,
	}
}

// Append records a send attempt at the head of the log, evicting the oldest
// entries beyond capacity to the sink.
func (l *SendLog) Append(entry LogEntry) {
	l.mu.Lock()
	l.entries = append([]LogEntry{entry}, l.entries...)
	var evicted []LogEntry
	if len(l.entries) > l.cap {
		evicted = l.entries[l.cap:]
		l.entries = l.entries[:l.cap]
	}
	l.mu.Unlock()

	if len(evicted) > 0 && l.sink != nil {
		if err := l.sink.Archive(evicted); err != nil && l.logger != nil {
			l.logger.Error("failed to archive evicted send log entries",
				"count", len(evicted),
				"error", err.Error(),
			)
		}
	}
}

// Entries returns a copy of the log, newest first.
func (l *SendLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Failed returns only the failed entries, newest first.
func (l *SendLog) Failed() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if e.Status == LogStatusFailed {
			out = append(out, e)
		}
	}
	return out
}

// Stats summarizes the current log contents.
func (l *SendLog) Stats() LogStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := LogStats{Total: len(l.entries)}
	for _, e := range l.entries {
		if e.Status == LogStatusDelivered {
			stats.Delivered++
		} else {
			stats.Failed++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Delivered) / float64(stats.Total)
		last := l.entries[0]
		stats.Last = &last
	}
	return stats
}
