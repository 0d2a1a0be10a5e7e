// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package simhal

import (
	"sync"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// Watchdog simulates the hardware watchdog timer. It tracks remaining
// time against Clock rather than actually resetting the process: a
// simulated "reset" just sets the CausedReset latch and logs nothing
// further, since there is no process to restart in a bench run.
type Watchdog struct {
	clock *Clock

	mu          sync.Mutex
	timeoutMs   uint32
	running     bool
	lastKickMs  uint64
	causedReset bool
	warnFn      func()
	warned      bool
}

func newWatchdog(timeoutMs uint32, clock *Clock) *Watchdog {
	return &Watchdog{timeoutMs: timeoutMs, clock: clock}
}

func (w *Watchdog) Init(timeoutMs uint32, mode hal.WatchdogMode) error {
	if timeoutMs < 1000 || timeoutMs > 60000 {
		return errs.InvalidParameter
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timeoutMs = timeoutMs
	return nil
}

func (w *Watchdog) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = true
	w.lastKickMs = w.clock.NowMs()
	return nil
}

func (w *Watchdog) Kick() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.lastKickMs = w.clock.NowMs()
	w.warned = false
	return nil
}

func (w *Watchdog) RemainingMs() (uint32, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return w.timeoutMs, nil
	}
	elapsed := w.clock.NowMs() - w.lastKickMs
	if elapsed >= uint64(w.timeoutMs) {
		return 0, nil
	}
	return w.timeoutMs - uint32(elapsed), nil
}

func (w *Watchdog) CausedReset() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.causedReset
}

func (w *Watchdog) ClearResetFlag() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.causedReset = false
	return nil
}

func (w *Watchdog) SetWarningCallback(fn func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warnFn = fn
	return nil
}

// CheckExpiry fires the registered warning callback once if the watchdog
// has run past its timeout without a Kick, setting CausedReset. A bench
// harness calls this from its own loop; nothing in the simulated HAL
// calls it automatically, since there is no real interrupt controller to
// do so.
func (w *Watchdog) CheckExpiry() {
	w.mu.Lock()
	running, timeoutMs, lastKick, warned := w.running, w.timeoutMs, w.lastKickMs, w.warned
	w.mu.Unlock()
	if !running || warned {
		return
	}
	if w.clock.NowMs()-lastKick < uint64(timeoutMs) {
		return
	}
	w.mu.Lock()
	w.causedReset = true
	w.warned = true
	fn := w.warnFn
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}
