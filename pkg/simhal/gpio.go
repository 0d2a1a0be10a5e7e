// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package simhal

import (
	"sync"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// GPIO simulates the two pins internal/deployment owns: the shared
// deploy-sense line and the deploy enable line (tracked so a bench harness
// can observe burn-wire actuation, mirroring hal_sim.c's s_gpio_state
// array).
//
// Deploy-sense reads high while Sim's separation timer hasn't fired yet
// (stowed) and low afterward. Past that point the same read reports
// released: a latch this GPIO sets the instant a burn-wire cycle completes
// (PinDeployEnable de-asserted after having been asserted), mirroring the
// original simulation build's "assume deployed after actuation attempt"
// shortcut (deployment.c: deploy_attempted) routed back through the HAL
// instead of bypassing it.
type GPIO struct {
	sim *Sim

	mu        sync.Mutex
	dir       map[hal.Pin]hal.PinDirection
	enableHi  bool
	enableLog []bool
	released  bool
}

func newGPIO(sim *Sim) *GPIO {
	return &GPIO{sim: sim, dir: make(map[hal.Pin]hal.PinDirection)}
}

func (g *GPIO) Config(pin hal.Pin, dir hal.PinDirection, pull hal.PinPull) error {
	if pin != hal.PinDeploySense && pin != hal.PinDeployEnable {
		return errs.InvalidParameter
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dir[pin] = dir
	return nil
}

func (g *GPIO) Set(pin hal.Pin, level bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dir[pin] != hal.PinDirectionOutput {
		return errs.NotInitialised
	}
	if pin == hal.PinDeployEnable {
		if g.enableHi && !level {
			g.released = true
		}
		g.enableHi = level
		g.enableLog = append(g.enableLog, level)
	}
	return nil
}

func (g *GPIO) Get(pin hal.Pin) (bool, error) {
	if pin == hal.PinDeploySense {
		g.sim.mu.Lock()
		separated := g.sim.separated
		g.sim.mu.Unlock()
		if !separated {
			return true, nil
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.released, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if pin == hal.PinDeployEnable {
		return g.enableHi, nil
	}
	return false, nil
}

func (g *GPIO) Toggle(pin hal.Pin) error {
	level, err := g.Get(pin)
	if err != nil {
		return err
	}
	return g.Set(pin, !level)
}

// EnableActivations returns the full ordered history of deploy-enable Set
// calls, for bench-harness assertions and diagnostics.
func (g *GPIO) EnableActivations() []bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]bool, len(g.enableLog))
	copy(out, g.enableLog)
	return out
}
