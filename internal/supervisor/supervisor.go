// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package supervisor implements the single cooperative scheduler from
// spec.md §5: a loop that invokes, in order, the watchdog kick, the
// deployment state machine, and the ADCS tick, then flushes the log,
// before sleeping to the next scheduling tick via the HAL clock. There is
// no pre-emption — every entry point is run-to-completion.
package supervisor

import (
	"github.com/pkg/errors"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/adcs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/deployment"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/flightlog"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/watchdog"
)

// TickPeriodMs is the supervisor's own loop cadence. It is finer than
// ADCS's ControlPeriodMs so the deployment sequencer and watchdog kick
// run at the >= 10 Hz spec.md §4.1 requires; Tick runs ADCS on its first
// call and then only once ControlPeriodMs has elapsed, per spec.md §4.2.
const TickPeriodMs = 100

// Supervisor wires the four core subsystems together and drives them at
// a fixed cadence. Construct with New after each subsystem has been
// constructed and Init'd individually.
type Supervisor struct {
	clock      hal.Clock
	watchdog   *watchdog.Manager
	deployment *deployment.Sequencer
	adcs       *adcs.Core
	log        *flightlog.Log

	lastAdcsTickMs uint64
	adcsTicked     bool
	running        bool
}

// New constructs a Supervisor. All four subsystems must already be
// constructed; Init is each subsystem's own responsibility, called before
// Run.
func New(clock hal.Clock, wdt *watchdog.Manager, dep *deployment.Sequencer, ac *adcs.Core, log *flightlog.Log) *Supervisor {
	return &Supervisor{clock: clock, watchdog: wdt, deployment: dep, adcs: ac, log: log}
}

// Tick runs exactly one supervisor cycle: kick the HW watchdog, advance
// deployment, run ADCS when its own period has elapsed, then flush the
// log. The ordering matches spec.md §5: "(1) HAL watchdog is kicked
// first, (2) deployment state machine advances, (3) ADCS tick runs".
func (s *Supervisor) Tick(nowMs uint64) error {
	if err := s.watchdog.Kick(); err != nil {
		return errors.Wrap(err, "supervisor: watchdog kick")
	}
	if err := s.watchdog.Checkin(watchdog.TaskMainLoop); err != nil {
		return errors.Wrap(err, "supervisor: main-loop checkin")
	}

	s.deployment.Process(uint32(nowMs))

	if !s.adcsTicked || nowMs-s.lastAdcsTickMs >= adcs.ControlPeriodMs {
		if err := s.adcs.Tick(nowMs); err != nil {
			return errors.Wrap(err, "supervisor: adcs tick")
		}
		if err := s.watchdog.Checkin(watchdog.TaskADCS); err != nil {
			return errors.Wrap(err, "supervisor: adcs checkin")
		}
		s.lastAdcsTickMs = nowMs
		s.adcsTicked = true
	}

	return s.log.Flush()
}

// Run drives Tick in a loop at TickPeriodMs cadence using the HAL clock
// for both the current time and the inter-tick delay, until stop is
// closed. A caller that wants a single-shot bench run instead should call
// Tick directly (see cmd/flightcore-sim).
func (s *Supervisor) Run(stop <-chan struct{}) error {
	s.running = true
	defer func() { s.running = false }()

	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if err := s.Tick(s.clock.NowMs()); err != nil {
			if s.log != nil {
				_ = s.log.Error("SUPERVISOR", "tick failed: %v", err)
			}
			return err
		}
		s.clock.DelayMs(TickPeriodMs)
	}
}

// Running reports whether Run's loop is currently executing. Intended for
// bench-harness diagnostics, not for core logic.
func (s *Supervisor) Running() bool { return s.running }
