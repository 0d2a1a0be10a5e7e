// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package watchdog

import (
	"github.com/pkg/errors"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/flightlog"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// TimeoutHW is the nominal hardware-watchdog timeout (spec.md §4.3).
const TimeoutHW = 30 * 1000 // ms

// Stats carries the watchdog's counters (spec.md §3). ResetsCaused
// persists across a Manager re-Init within the same power cycle — it is
// reset only by constructing a brand new Manager, mirroring the original
// firmware's carry-over of saved_resets across wdt_mgr_init.
type Stats struct {
	HWKicks            uint64
	TaskCheckRuns      uint64
	TaskStallsDetected uint64
	ResetsCaused       uint32
	LastResetTimeS     uint32
	LastStalledTask    TaskID
	HWWatchdogRunning  bool
}

// PreResetHook is invoked once, non-reentrantly, when the hardware
// watchdog's early-warning interrupt fires, giving application state a
// chance to persist before an imminent reset (spec.md §4.3).
type PreResetHook func()

// Manager coordinates the hardware watchdog with the software task
// liveness table. Construct with New.
type Manager struct {
	hw    hal.HWWatchdog
	clock hal.Clock
	log   *flightlog.Log

	tasks [MaxTasks]Task
	stats Stats

	preReset    PreResetHook
	inPreReset  bool // reentrancy guard
	lastCheckMs uint64
	initialised bool
}

// New constructs a Manager bound to hw and clock, logging through log.
func New(hw hal.HWWatchdog, clock hal.Clock, log *flightlog.Log) *Manager {
	return &Manager{hw: hw, clock: clock, log: log}
}

// Init configures the hardware watchdog with TimeoutHW and registers the
// manager's own warning handler. Must be called before Start or Kick.
func (m *Manager) Init() error {
	if err := m.hw.Init(TimeoutHW, hal.WatchdogModeReset); err != nil {
		return errors.Wrap(err, "watchdog: hw init")
	}
	if err := m.hw.SetWarningCallback(m.handleWarning); err != nil && !errs.Unsupported.Is(err) {
		return errors.Wrap(err, "watchdog: set warning callback")
	}
	m.lastCheckMs = m.clock.NowMs()
	m.initialised = true
	return nil
}

// Start arms the hardware watchdog. Irreversible, per spec.md §4.3.
func (m *Manager) Start() error {
	if !m.initialised {
		return errs.NotInitialised
	}
	if err := m.hw.Start(); err != nil {
		return errors.Wrap(err, "watchdog: hw start")
	}
	m.stats.HWWatchdogRunning = true
	return nil
}

// RegisterPreResetCallback installs hook, replacing any previous one.
func (m *Manager) RegisterPreResetCallback(hook PreResetHook) {
	m.preReset = hook
}

func (m *Manager) handleWarning() {
	if m.inPreReset {
		return
	}
	m.inPreReset = true
	defer func() { m.inPreReset = false }()

	if m.log != nil {
		_ = m.log.Critical("WDT", "hardware watchdog timeout imminent")
	}
	if m.preReset != nil {
		m.preReset()
	}
	m.stats.ResetsCaused++
	m.stats.LastResetTimeS = uint32(m.clock.NowMs() / 1000)
}

// RegisterTask activates slot id with the given human-readable name and
// expected check-in period. Returns errs.InvalidParameter if periodMs is
// zero or name is empty.
func (m *Manager) RegisterTask(id TaskID, name string, periodMs uint32) error {
	if id < 0 || int(id) >= MaxTasks {
		return errs.InvalidParameter
	}
	if periodMs == 0 || name == "" {
		return errs.InvalidParameter
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	now := m.clock.NowMs()
	m.tasks[id] = Task{
		Name:             name,
		ExpectedPeriodMs: periodMs,
		LastCheckinMs:    now,
		Active:           true,
	}
	return nil
}

// UnregisterTask deactivates slot id without clearing its historical
// counters.
func (m *Manager) UnregisterTask(id TaskID) error {
	if id < 0 || int(id) >= MaxTasks {
		return errs.InvalidParameter
	}
	m.tasks[id].Active = false
	return nil
}

// Checkin records liveness for task id, clearing any stalled state.
func (m *Manager) Checkin(id TaskID) error {
	if id < 0 || int(id) >= MaxTasks {
		return errs.InvalidParameter
	}
	t := &m.tasks[id]
	if !t.Active {
		return errs.InvalidParameter
	}
	t.LastCheckinMs = m.clock.NowMs()
	t.MissCount = 0
	t.Stalled = false
	t.TotalCheckins++
	return nil
}

// Kick refreshes the hardware watchdog and, once CheckInterval has
// elapsed since the last evaluation, re-evaluates task liveness. Must be
// called at least every CheckInterval by the supervisor loop.
func (m *Manager) Kick() error {
	if !m.initialised {
		return errs.NotInitialised
	}
	if err := m.hw.Kick(); err != nil {
		return errors.Wrap(err, "watchdog: hw kick")
	}
	m.stats.HWKicks++

	now := m.clock.NowMs()
	if now-m.lastCheckMs >= uint64(CheckInterval.Milliseconds()) {
		m.checkTasks(now)
		m.lastCheckMs = now
	}
	return nil
}

func (m *Manager) checkTasks(now uint64) {
	for i := range m.tasks {
		t := &m.tasks[i]
		if !t.Active {
			continue
		}
		elapsed := now - t.LastCheckinMs
		if elapsed > uint64(t.ExpectedPeriodMs) {
			t.MissCount++
			if t.MissCount >= MissThreshold && !t.Stalled {
				t.Stalled = true
				m.stats.TaskStallsDetected++
				m.stats.LastStalledTask = TaskID(i)
				if m.log != nil {
					_ = m.log.Warning("WDT", "task %q stalled", t.Name)
				}
			}
		}
	}
	m.stats.TaskCheckRuns++
}

// IsTaskStalled reports whether task id is currently stalled.
func (m *Manager) IsTaskStalled(id TaskID) bool {
	if id < 0 || int(id) >= MaxTasks {
		return false
	}
	return m.tasks[id].Stalled
}

// AnyTaskStalled reports whether any active task is currently stalled.
func (m *Manager) AnyTaskStalled() bool {
	for i := range m.tasks {
		if m.tasks[i].Active && m.tasks[i].Stalled {
			return true
		}
	}
	return false
}

// GetTaskInfo returns a copy of slot id's current state.
func (m *Manager) GetTaskInfo(id TaskID) (Task, error) {
	if id < 0 || int(id) >= MaxTasks {
		return Task{}, errs.InvalidParameter
	}
	return m.tasks[id], nil
}

// GetStats returns a copy of the manager's counters.
func (m *Manager) GetStats() Stats { return m.stats }

// ForceReset invokes the pre-reset hook once, then spins forever —
// stalled tasks are advisory only (spec.md §4.3 policy); this entry point
// is for a ground-commanded deliberate reset, and never returns.
func (m *Manager) ForceReset() {
	if m.preReset != nil && !m.inPreReset {
		m.inPreReset = true
		m.preReset()
	}
	for {
	}
}
