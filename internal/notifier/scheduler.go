// Package notifier implements the periodic order-status email notifier: a
// timer-driven scheduler that, per order, repeatedly sends status-update
// notifications at status-dependent intervals, caps the number of
// repetitions, persists its schedule across restarts, and cancels itself when
// the underlying order's status changes or the order disappears.
//
// Key behaviors:
//   - At most one live schedule exists per order at any instant; starting a
//     new schedule for an order tears down the old one first.
//   - Each schedulable status carries an interval and a cap (Policy); a
//     schedule that survives Cap ticks self-terminates.
//   - Every tick re-validates the order's live status before sending; a
//     drifted or missing order terminates the schedule without sending.
//   - Nothing in this package propagates errors to callers: send failures and
//     snapshot-write failures are logged and absorbed.
package notifier

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookbliss/internal/types"
)

// tickTimeout bounds the order-store read and the send attempt performed by a
// single tick. The timer period for every status comfortably exceeds it, so
// two ticks for the same schedule cannot overlap.
const tickTimeout = 30 * time.Second

// OrderStatusReader abstracts the order store read the scheduler performs on
// every tick. A missing order is reported as an AppError with
// ErrCodeNotFoundOrder; the scheduler never mutates orders.
type OrderStatusReader interface {
	GetOrderStatus(ctx context.Context, orderID string) (types.OrderStatus, error)
}

// Mailer is the notification channel consumed by the scheduler. Send never
// returns an error: every attempt resolves to a SendResult, and failures are
// reported through Success=false. The scheduler logs failures and continues.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) types.SendResult
}

// SnapshotStore is the persistence port for the schedule shadow: a flat
// snapshot of all live schedules, written after every registry mutation and
// read back once at startup by RestoreAll. Timer handles are never persisted.
type SnapshotStore interface {
	Read(ctx context.Context) ([]types.ScheduleRecord, error)
	Write(ctx context.Context, records []types.ScheduleRecord) error
}

// schedule is a live registry entry: the durable record plus the stop channel
// owned by the entry's timer goroutine. The channel is the in-memory timer
// handle; it never leaves this package.
type schedule struct {
	rec  types.ScheduleRecord
	stop chan struct{}
}

// Scheduler is the schedule registry and its control surface. It owns the
// side effect of arming and cancelling per-order timers, and it is the only
// writer of the snapshot shadow.
//
// Concurrency model: one goroutine per schedule drives that schedule's ticks,
// so ticks for a given order are strictly sequential; the registry map is
// guarded by a mutex because different orders' ticks interleave freely.
// Stopping a schedule closes its stop channel, which prevents any future
// tick; a tick already past the channel check completes its reads and send,
// but its counter update is discarded when the entry is found removed.
type Scheduler struct {
	orders    OrderStatusReader
	mailer    Mailer
	templates *TemplateEngine
	snapshots SnapshotStore
	policies  PolicyTable
	clock     types.Clock
	logger    types.Logger
	metrics   Metrics

	mu        sync.Mutex
	schedules map[string]*schedule
	wg        sync.WaitGroup
}

// SchedulerConfig holds the dependencies for creating a Scheduler.
type SchedulerConfig struct {
	Orders    OrderStatusReader
	Mailer    Mailer
	Templates *TemplateEngine
	Snapshots SnapshotStore
	// Policies defaults to DefaultPolicies when nil.
	Policies PolicyTable
	// Clock defaults to RealClock when nil.
	Clock types.Clock
	// Logger defaults to a no-op logger when nil.
	Logger types.Logger
	// Metrics defaults to a no-op emitter when nil.
	Metrics Metrics
}

// NewScheduler creates a Scheduler with an empty registry. Call RestoreAll
// once at startup to re-arm schedules persisted by a previous process.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	policies := cfg.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Scheduler{
		orders:    cfg.Orders,
		mailer:    cfg.Mailer,
		templates: cfg.Templates,
		snapshots: cfg.Snapshots,
		policies:  policies,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		schedules: make(map[string]*schedule),
	}
}

// Start begins periodic notifications for an order. Any existing schedule for
// the order is torn down first, so at most one timer per order exists. The
// initial message (update 0) is sent synchronously before the timer is armed;
// a send failure is logged but does not prevent the schedule from starting.
//
// Unrecognized statuses are permitted: they render the fallback template and
// tick under the fallback policy, so a schedule started in a raced teardown
// window still terminates on its own.
func (s *Scheduler) Start(ctx context.Context, orderID, recipient string, status types.OrderStatus) {
	s.Stop(ctx, orderID)

	pol := s.policies.For(status)
	s.logger.Info("starting notification schedule",
		"order_id", orderID,
		"status", string(status),
		"interval", pol.Interval.String(),
		"cap", pol.Cap,
	)

	msg := s.templates.Render(orderID, status, 0)
	res := s.mailer.Send(ctx, recipient, msg.Subject, msg.Body)
	s.metrics.RecordSend(ctx, status, res.Success)
	if !res.Success {
		s.logger.Warn("initial notification send failed",
			"order_id", orderID,
			"error", res.Error,
		)
	}

	sc := &schedule{
		rec: types.ScheduleRecord{
			OrderID:     orderID,
			Recipient:   recipient,
			Status:      status,
			UpdateCount: 1,
			LastSentAt:  s.clock.Now(),
		},
		stop: make(chan struct{}),
	}

	s.mu.Lock()
	s.schedules[orderID] = sc
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.runTimer(sc, pol.Interval)
	s.metrics.RecordActiveSchedules(ctx, len(snapshot))
	s.writeSnapshot(ctx, snapshot)
}

// Stop cancels the order's schedule, removes it from the registry, and
// updates the snapshot shadow. It is a no-op (not an error) when no schedule
// exists; callers invoke it defensively on cancellation and deletion paths.
// The shadow is only rewritten when an entry was actually removed.
func (s *Scheduler) Stop(ctx context.Context, orderID string) {
	s.mu.Lock()
	sc, ok := s.schedules[orderID]
	var snapshot []types.ScheduleRecord
	if ok {
		close(sc.stop)
		delete(s.schedules, orderID)
		snapshot = s.snapshotLocked()
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	s.logger.Info("stopped notification schedule", "order_id", orderID)
	s.metrics.RecordActiveSchedules(ctx, len(snapshot))
	s.writeSnapshot(ctx, snapshot)
}

// Transition moves an order's schedule to a new status. The old schedule is
// always torn down. A schedulable new status arms a fresh schedule (its
// update count restarts at 1); a terminal status sends one final message and
// arms nothing. Any other status just leaves the order unscheduled.
func (s *Scheduler) Transition(ctx context.Context, orderID string, newStatus types.OrderStatus, recipient string) {
	switch {
	case newStatus.Schedulable():
		s.Start(ctx, orderID, recipient, newStatus)
	case newStatus.Terminal():
		s.Stop(ctx, orderID)
		msg := s.templates.Render(orderID, newStatus, 0)
		res := s.mailer.Send(ctx, recipient, msg.Subject, msg.Body)
		s.metrics.RecordSend(ctx, newStatus, res.Success)
		if !res.Success {
			s.logger.Warn("final notification send failed",
				"order_id", orderID,
				"status", string(newStatus),
				"error", res.Error,
			)
		}
	default:
		s.Stop(ctx, orderID)
		s.logger.Info("no schedule for status",
			"order_id", orderID,
			"status", string(newStatus),
		)
	}
}

// RestoreAll rebuilds the registry from the snapshot shadow. For each
// persisted entry whose order still reports the recorded status, the schedule
// is re-armed with its persisted update count (no duplicate initial send);
// entries whose order is missing or has moved on are dropped silently. The
// shadow is rewritten to exactly the restored set. Intended to run once per
// process lifetime, at startup. Returns the number of schedules restored.
func (s *Scheduler) RestoreAll(ctx context.Context) int {
	records, err := s.snapshots.Read(ctx)
	if err != nil {
		s.logger.Error("failed to read schedule snapshot", "error", err.Error())
		return 0
	}

	restored := 0
	for _, rec := range records {
		status, err := s.orders.GetOrderStatus(ctx, rec.OrderID)
		if err != nil || status != rec.Status {
			s.logger.Info("dropping stale persisted schedule",
				"order_id", rec.OrderID,
				"recorded_status", string(rec.Status),
			)
			continue
		}
		if rec.UpdateCount < 1 {
			rec.UpdateCount = 1
		}
		s.restore(rec)
		restored++
	}

	s.mu.Lock()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.metrics.RecordActiveSchedules(ctx, len(snapshot))
	s.writeSnapshot(ctx, snapshot)

	s.logger.Info("schedule restore complete",
		"persisted", len(records),
		"restored", restored,
	)
	return restored
}

// restore inserts a schedule from a persisted record and arms its timer
// without sending an initial message.
func (s *Scheduler) restore(rec types.ScheduleRecord) {
	sc := &schedule{rec: rec, stop: make(chan struct{})}

	s.mu.Lock()
	if old, ok := s.schedules[rec.OrderID]; ok {
		close(old.stop)
	}
	s.schedules[rec.OrderID] = sc
	s.mu.Unlock()

	s.runTimer(sc, s.policies.For(rec.Status).Interval)
}

// Active returns the durable records of all live schedules, sorted by order
// ID. Used by the admin monitoring surface.
func (s *Scheduler) Active() []types.ScheduleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Clear tears down every schedule and wipes the snapshot shadow. This is the
// admin cleanup operation; use Shutdown for process exit, which preserves the
// shadow for the next restore.
func (s *Scheduler) Clear(ctx context.Context) {
	s.stopAll()
	s.writeSnapshot(ctx, []types.ScheduleRecord{})
	s.metrics.RecordActiveSchedules(ctx, 0)
	s.logger.Info("all notification schedules cleared")
}

// Shutdown cancels every timer and waits for in-flight ticks to finish. The
// snapshot shadow is left intact so the next process can restore.
func (s *Scheduler) Shutdown() {
	s.stopAll()
	s.wg.Wait()
	s.logger.Info("scheduler shut down")
}

// stopAll removes every registry entry and closes its stop channel.
func (s *Scheduler) stopAll() {
	s.mu.Lock()
	for id, sc := range s.schedules {
		close(sc.stop)
		delete(s.schedules, id)
	}
	s.mu.Unlock()
}

// runTimer arms the repeating timer for a schedule. The goroutine exits when
// the schedule's stop channel closes.
func (s *Scheduler) runTimer(sc *schedule, interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-sc.stop:
				return
			case <-ticker.C:
				s.tick(sc)
			}
		}
	}()
}

// tick performs one timer-triggered update for a schedule:
//
//  1. If the update count has reached the status's cap, stop without sending.
//  2. Re-read the order's live status; a missing order or a status that no
//     longer matches terminates the schedule without sending.
//  3. Render the next message, attempt the send (failures are logged, never
//     retried within the tick), then advance the counter and rewrite the
//     snapshot shadow.
//
// The entry is re-checked by identity before the counter update so a Stop
// that raced with an in-flight tick wins: the completed send is logged but
// the removed schedule is not resurrected.
func (s *Scheduler) tick(sc *schedule) {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	s.mu.Lock()
	cur, ok := s.schedules[sc.rec.OrderID]
	if !ok || cur != sc {
		s.mu.Unlock()
		return
	}
	rec := sc.rec
	s.mu.Unlock()

	pol := s.policies.For(rec.Status)
	if rec.UpdateCount >= pol.Cap {
		s.logger.Info("update cap reached, stopping schedule",
			"order_id", rec.OrderID,
			"status", string(rec.Status),
			"cap", pol.Cap,
		)
		s.Stop(ctx, rec.OrderID)
		return
	}

	status, err := s.orders.GetOrderStatus(ctx, rec.OrderID)
	if err != nil {
		s.logger.Info("order unavailable, stopping schedule",
			"order_id", rec.OrderID,
			"error", err.Error(),
		)
		s.Stop(ctx, rec.OrderID)
		return
	}
	if status != rec.Status {
		s.logger.Info("order status changed, stopping schedule",
			"order_id", rec.OrderID,
			"recorded_status", string(rec.Status),
			"live_status", string(status),
		)
		s.Stop(ctx, rec.OrderID)
		return
	}

	msg := s.templates.Render(rec.OrderID, rec.Status, rec.UpdateCount)
	res := s.mailer.Send(ctx, rec.Recipient, msg.Subject, msg.Body)
	s.metrics.RecordSend(ctx, rec.Status, res.Success)
	if !res.Success {
		s.logger.Warn("periodic notification send failed",
			"order_id", rec.OrderID,
			"update", rec.UpdateCount,
			"error", res.Error,
		)
	} else {
		s.logger.Info("sent periodic notification",
			"order_id", rec.OrderID,
			"update", rec.UpdateCount,
			"message_id", res.MessageID,
		)
	}

	s.mu.Lock()
	cur, ok = s.schedules[sc.rec.OrderID]
	if !ok || cur != sc {
		// Stopped while the send was in flight; drop the counter update.
		s.mu.Unlock()
		return
	}
	sc.rec.UpdateCount++
	sc.rec.LastSentAt = s.clock.Now()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.writeSnapshot(ctx, snapshot)
}

// snapshotLocked collects the durable records of all live schedules, sorted
// by order ID. Callers must hold s.mu.
func (s *Scheduler) snapshotLocked() []types.ScheduleRecord {
	records := make([]types.ScheduleRecord, 0, len(s.schedules))
	for _, sc := range s.schedules {
		records = append(records, sc.rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].OrderID < records[j].OrderID
	})
	return records
}

// writeSnapshot persists the shadow. Write failures are logged and absorbed:
// the worst case is a restart restoring a slightly stale schedule set.
func (s *Scheduler) writeSnapshot(ctx context.Context, records []types.ScheduleRecord) {
	if err := s.snapshots.Write(ctx, records); err != nil {
		s.logger.Error("failed to write schedule snapshot",
			"entries", len(records),
			"error", err.Error(),
		)
	}
}

// noopLogger discards all log output. Used when no logger is injected.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)        {}
func (noopLogger) Warn(string, ...any)        {}
func (noopLogger) Error(string, ...any)       {}
func (noopLogger) With(...any) types.Logger   { return noopLogger{} }
