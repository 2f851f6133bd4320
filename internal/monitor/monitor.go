// Package monitor implements the Monitor thread (§5): a background
// ticker responsible for pause-position monitoring and AV-sync
// telemetry sampling, run on a cron schedule instead of a bare
// time.Ticker so the interval can be reconfigured with the same
// expression syntax used elsewhere in the stack.
package monitor

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Tick is invoked on every scheduled monitor interval.
type Tick func()

// Monitor drives a single recurring Tick on a cron schedule. Grounded
// on the same cron.Cron Start/Stop lifecycle as a job scheduler: Stop
// waits for an in-flight tick to finish before returning.
type Monitor struct {
	mu       sync.Mutex
	schedule string
	logger   *slog.Logger

	cronSched *cron.Cron
	entryID   cron.EntryID
	running   bool
}

// New creates a Monitor firing on the given cron expression (e.g.
// "@every 1s"). An empty schedule disables the monitor: Start becomes
// a permanent no-op.
func New(schedule string, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		schedule: schedule,
		logger:   logger.With(slog.String("component", "monitor")),
	}
}

// Start begins invoking tick on the configured schedule. A second call
// while already running, or a call with a nil tick, is a no-op.
func (m *Monitor) Start(tick Tick) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || m.schedule == "" || tick == nil {
		return
	}

	m.cronSched = cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	id, err := m.cronSched.AddFunc(m.schedule, tick)
	if err != nil {
		m.logger.Error("invalid monitor schedule, monitor disabled",
			slog.String("schedule", m.schedule), slog.Any("error", err))
		return
	}
	m.entryID = id
	m.cronSched.Start()
	m.running = true
}

// Stop halts the monitor and blocks until any in-flight tick completes.
// Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	sched := m.cronSched
	m.running = false
	m.mu.Unlock()

	<-sched.Stop().Done()
}

// Running reports whether the monitor is currently scheduled.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
