// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package deployment implements the burn-wire antenna and solar-panel
// deployment sequencer from spec.md §4.1: a hard-timed state machine that
// inhibits actuation until a post-separation hold-off has elapsed, then
// deploys each element in turn with verification and bounded retry,
// persisting progress across resets.
package deployment

import "fmt"

// State is a deployment-sequencer state (spec.md §4.1).
type State int

const (
	// Inhibited waits for the separation switch to release. Initial state.
	Inhibited State = iota
	// Waiting holds off actuation for HoldOffMs after separation.
	Waiting
	// AntennaPending decides whether to actuate, retry, or give up on the
	// antenna.
	AntennaPending
	// AntennaActive sources burn-wire current to the antenna for
	// AntennaBurnMs.
	AntennaActive
	// AntennaVerify watches for confirmed antenna deployment or a retry
	// timeout.
	AntennaVerify
	// SolarPending decides whether to actuate, retry, or give up on the
	// solar panels.
	SolarPending
	// SolarActive sources burn-wire current to the solar panels for
	// SolarBurnMs.
	SolarActive
	// SolarVerify watches for confirmed solar-panel deployment or a retry
	// timeout.
	SolarVerify
	// Complete is terminal: both elements deployed.
	Complete
	// Failed is terminal: an element exhausted its retries. Awaits a
	// ground-commanded ForceRetry.
	Failed

	stateCount
)

var stateNames = [stateCount]string{
	"INHIBITED",
	"WAITING",
	"ANTENNA_PENDING",
	"ANTENNA_ACTIVE",
	"ANTENNA_VERIFY",
	"SOLAR_PENDING",
	"SOLAR_ACTIVE",
	"SOLAR_VERIFY",
	"COMPLETE",
	"FAILED",
}

// String implements fmt.Stringer, matching the original firmware's
// s_state_names lookup table.
func (s State) String() string {
	if s < 0 || s >= stateCount {
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
	return stateNames[s]
}

// Element identifies a deployable mechanism.
type Element int

const (
	// Antenna is the antenna burn-wire release.
	Antenna Element = iota
	// SolarPanel is the solar-panel burn-wire release.
	SolarPanel

	elementCount
)

// ElementStatus is the per-element deployment record (spec.md §3).
// Invariants: Deployed implies DeployAttempted; AttemptCount <= MaxRetries.
type ElementStatus struct {
	Deployed        bool
	DeployAttempted bool
	AttemptCount    uint8
	DeployTimeMs    uint32
	SwitchState     bool
}

// Telemetry is the fixed-width deployment status summary (spec.md §3).
type Telemetry struct {
	State           State
	AntennaDeployed bool
	AntennaAttempts uint8
	SolarDeployed   bool
	SolarAttempts   uint8
	TimeSinceSepS   uint32
	InhibitActive   bool
}

// Timing constants from spec.md §4.1 / the original firmware's
// deployment.h.
const (
	// HoldOffMs is the mandated post-separation wait before any actuation
	// (CubeSat Design Specification requirement).
	HoldOffMs uint32 = 30 * 60 * 1000
	// AntennaBurnMs is how long the antenna burn-wire is energised.
	AntennaBurnMs uint32 = 3000
	// SolarBurnMs is how long the solar-panel burn-wire is energised.
	SolarBurnMs uint32 = 5000
	// MaxRetries is the maximum deployment attempts per element.
	MaxRetries uint8 = 3
	// RetryDelayMs is the minimum time spent verifying before retrying.
	RetryDelayMs uint32 = 60 * 1000
	// VerifyTimeoutMs is retained from the original firmware's two-stage
	// verify guard; since RetryDelayMs > VerifyTimeoutMs the net effect
	// (matching spec.md §4.1's transition table) is a single RetryDelayMs
	// guard, which is what Sequencer.Process implements.
	VerifyTimeoutMs uint32 = 10000
)
