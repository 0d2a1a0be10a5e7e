// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package simhal is a host-side simulation implementation of the
// internal/hal contract (see original_source's hal_sim.c, the C
// implementation this package is modelled on). It exists for
// cmd/flightcore-sim and for any test that wants a full HAL stack rather
// than narrow per-package fakes; it is explicitly not a flight driver.
//
// Unlike the flight core, which is single-threaded cooperative (spec.md
// §5), simhal runs its signal generators concurrently via
// golang.org/x/sync/errgroup so the bench harness can simulate an orbit
// in the background while the supervisor ticks in its own goroutine.
// State shared between the generators and the HAL accessors is guarded by
// a mutex for that reason alone — the core itself never needs one.
package simhal

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/boardcfg"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/vec3"
)

// Config parameterises the simulated environment.
type Config struct {
	// SeparationDelay is how long after Run is called the separation
	// switch reports dispenser separation. Replaces the original's
	// sim_counter > 50 magic-counter stub (original_source hal_sim.c has
	// no equivalent at all — the switch is simulated at a layer above the
	// HAL there; here it's made configurable per spec.md's supplemented
	// simulation-fidelity goal).
	SeparationDelay time.Duration
	// OrbitPeriod is the period of the simulated magnetic-field and
	// sun-vector rotation, standing in for one orbital revolution.
	OrbitPeriod time.Duration
	// FieldMagnitudeUT is the simulated ambient magnetic field strength.
	FieldMagnitudeUT float64
	// GeneratorPeriod is how often the background generators update the
	// simulated signals.
	GeneratorPeriod time.Duration
	// Regions sizes the simulated flash regions.
	Regions boardcfg.RegionSizes
	// WatchdogTimeoutMs seeds the simulated HW watchdog's timeout.
	WatchdogTimeoutMs uint32
}

// DefaultConfig returns simulation defaults matching boardcfg's
// TargetSimulation board.
func DefaultConfig() Config {
	return Config{
		SeparationDelay:   45 * time.Minute,
		OrbitPeriod:       90 * time.Minute,
		FieldMagnitudeUT:  30,
		GeneratorPeriod:   100 * time.Millisecond,
		Regions:           boardcfg.RegionSizes{DeploymentState: 256, MissionData: 4096, FaultLog: 8192, Backup: 256},
		WatchdogTimeoutMs: 30000,
	}
}

// Sim bundles concrete implementations of every HAL capability the core
// consumes, all backed by one shared simulated environment.
type Sim struct {
	cfg   Config
	log   *logrus.Logger
	start time.Time

	mu        sync.Mutex
	field     vec3.Vec3
	sunVolts  [6]float64
	separated bool

	Clock    *Clock
	GPIO     *GPIO
	I2C      *I2C
	ADC      *ADC
	Flash    *Flash
	Watchdog *Watchdog
}

// New constructs a Sim from cfg, wiring every sub-device to the shared
// environment state. log receives generator diagnostics (debug-level);
// pass logrus.New() for a default, non-nil logger.
func New(cfg Config, log *logrus.Logger) *Sim {
	s := &Sim{cfg: cfg, log: log, start: time.Now()}
	s.field = vec3.New(cfg.FieldMagnitudeUT, 0, 0)
	s.Clock = &Clock{start: s.start}
	s.GPIO = newGPIO(s)
	s.I2C = newI2C(s)
	s.ADC = newADC(s)
	s.Flash = newFlash(cfg.Regions)
	s.Watchdog = newWatchdog(cfg.WatchdogTimeoutMs, s.Clock)
	return s
}

// Run drives the background signal generators until ctx is cancelled,
// returning the first generator error (if any) once all have stopped.
func (s *Sim) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return s.runFieldGenerator(ctx) })
	eg.Go(func() error { return s.runSeparationTimer(ctx) })
	return eg.Wait()
}

func (s *Sim) runFieldGenerator(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.GeneratorPeriod)
	defer ticker.Stop()
	omega := 2 * math.Pi / s.cfg.OrbitPeriod.Seconds()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t := time.Since(s.start).Seconds()
			field := vec3.New(
				s.cfg.FieldMagnitudeUT*math.Cos(omega*t),
				s.cfg.FieldMagnitudeUT*math.Sin(omega*t),
				0.3*s.cfg.FieldMagnitudeUT,
			)
			sunAngle := omega * t
			sun := [6]float64{
				1.5 + 1.5*math.Max(0, math.Cos(sunAngle)),
				1.5 + 1.5*math.Max(0, -math.Cos(sunAngle)),
				1.5 + 1.5*math.Max(0, math.Sin(sunAngle)),
				1.5 + 1.5*math.Max(0, -math.Sin(sunAngle)),
				1.5,
				1.5,
			}

			s.mu.Lock()
			s.field = field
			s.sunVolts = sun
			s.mu.Unlock()
		}
	}
}

func (s *Sim) runSeparationTimer(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.SeparationDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
		s.mu.Lock()
		s.separated = true
		s.mu.Unlock()
		if s.log != nil {
			s.log.Debug("simhal: separation switch opened")
		}
		return nil
	}
}
