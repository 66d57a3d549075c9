// Package poller schedules named background refresh loops. The manager is
// the scheduling substrate only: callbacks own their fetch, diff, and
// notification logic, which keeps the scheduler reusable across the
// subscriber, outage, and vehicle domains.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"grid-ops-service/internal/logging"
	"grid-ops-service/internal/metrics"
)

// Callback is one task's refresh-and-diff cycle. Callbacks should catch
// their own domain errors; anything returned (or panicked) is logged and
// swallowed so one failing domain cannot stop the timer.
type Callback func(ctx context.Context) error

type task struct {
	name     string
	callback Callback
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// TaskStatus describes the recent health of one polling loop.
type TaskStatus struct {
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
}

// IsReady reports whether the task has had a recent success and is not
// failing repeatedly.
func (s TaskStatus) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// Manager runs a set of named, independently configured polling tasks. At
// most one timer exists per name; starting a task under an existing name
// replaces the prior timer.
type Manager struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	mu    sync.Mutex
	tasks map[string]*task

	statusMu sync.RWMutex
	status   map[string]TaskStatus
}

// NewManager constructs an empty Manager.
func NewManager(logger *slog.Logger, recorder *metrics.Recorder) *Manager {
	return &Manager{
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
		tasks:   make(map[string]*task),
		status:  make(map[string]TaskStatus),
	}
}

// StartPolling schedules callback every interval under the given name,
// stopping any prior timer registered under that name first. The first
// invocation happens after one full interval; callers wanting an immediate
// load use PerformUpdate before or after registration.
func (m *Manager) StartPolling(ctx context.Context, name string, callback Callback, interval time.Duration) error {
	if name == "" {
		return fmt.Errorf("poller: task name is required")
	}
	if callback == nil {
		return fmt.Errorf("poller: task %q needs a callback", name)
	}
	if interval <= 0 {
		return fmt.Errorf("poller: task %q needs a positive interval", name)
	}

	t := &task{
		name:     name,
		callback: callback,
		interval: interval,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
	}

	m.mu.Lock()
	if prior, ok := m.tasks[name]; ok {
		prior.stop()
	}
	m.tasks[name] = t
	m.mu.Unlock()

	logging.Info(m.logger, "polling started",
		slog.String(logging.FieldTask, name),
		slog.Duration(logging.FieldInterval, interval),
	)

	go m.runLoop(ctx, t)
	return nil
}

// PerformUpdate triggers one off-cycle invocation of the named task right
// now, without touching its scheduled timer. Overlap with an in-flight
// scheduled tick is allowed; fetches are idempotent and last-writer-wins.
func (m *Manager) PerformUpdate(ctx context.Context, name string) error {
	m.mu.Lock()
	t, ok := m.tasks[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("poller: no task named %q", name)
	}
	return m.runOnce(ctx, t)
}

// StopPolling clears the named task's timer. An in-flight tick already
// dispatched is allowed to complete; it simply is not rescheduled.
func (m *Manager) StopPolling(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tasks[name]; ok {
		t.stop()
		delete(m.tasks, name)
		logging.Info(m.logger, "polling stopped", slog.String(logging.FieldTask, name))
	}
}

// StopAll clears every task's timer. No further callbacks fire until
// StartPolling is called again.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, t := range m.tasks {
		t.stop()
		delete(m.tasks, name)
	}
	logging.Info(m.logger, "all polling stopped")
}

// Status returns the recent health of a named task.
func (m *Manager) Status(name string) (TaskStatus, bool) {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	s, ok := m.status[name]
	return s, ok
}

// Ready reports whether every registered task is healthy. An empty manager
// is ready: nothing has been asked of it.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	names := make([]string, 0, len(m.tasks))
	for name := range m.tasks {
		names = append(names, name)
	}
	m.mu.Unlock()

	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	for _, name := range names {
		if !m.status[name].IsReady() {
			return false
		}
	}
	return true
}

func (m *Manager) runLoop(ctx context.Context, t *task) {
	defer t.ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-t.ticker.C:
			_ = m.runOnce(ctx, t)
		}
	}
}

// runOnce executes one tick, recording status and swallowing panics so a
// broken callback cannot kill the loop.
func (m *Manager) runOnce(ctx context.Context, t *task) (err error) {
	start := m.now()
	m.recordAttempt(t.name, start)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %q panicked: %v", t.name, r)
		}
		m.metrics.RecordPollCycle(t.name, time.Since(start), err)
		if err != nil {
			m.recordFailure(t.name, err)
			logging.Error(m.logger, "poll cycle failed", err, slog.String(logging.FieldTask, t.name))
			return
		}
		m.recordSuccess(t.name, m.now())
	}()

	err = t.callback(ctx)
	return err
}

func (t *task) stop() {
	t.stopOnce.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

func (m *Manager) recordAttempt(name string, at time.Time) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()

	s := m.status[name]
	s.LastAttempt = at
	m.status[name] = s
}

func (m *Manager) recordSuccess(name string, at time.Time) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()

	s := m.status[name]
	s.ConsecutiveFailures = 0
	s.LastError = ""
	s.LastSuccess = at
	m.status[name] = s
}

func (m *Manager) recordFailure(name string, err error) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()

	s := m.status[name]
	s.ConsecutiveFailures++
	if err != nil {
		s.LastError = err.Error()
	}
	m.status[name] = s
}
