// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package adcs implements the attitude determination and control core from
// spec.md §4.2: B-dot detumble, sun-pointing, rate estimation from
// magnetometer history, dipole saturation, and the mode state machine that
// ties them together.
package adcs

import "github.com/cheesejaguar/SMART-QSO-sub001/internal/vec3"

// Mode is an ADCS operating mode (spec.md §3).
type Mode int

const (
	// Idle: sensors on, actuators off.
	Idle Mode = iota
	// Detumble: B-dot control active.
	Detumble
	// Sunpoint: sun-pointing control active.
	Sunpoint
	// Eclipse: drift, no control, while the sun is not visible.
	Eclipse
	// Safe: minimal operation, entered only by explicit command.
	Safe
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "IDLE"
	case Detumble:
		return "DETUMBLE"
	case Sunpoint:
		return "SUNPOINT"
	case Eclipse:
		return "ECLIPSE"
	case Safe:
		return "SAFE"
	default:
		return "UNKNOWN"
	}
}

// MagSample is a magnetometer reading (spec.md §3). Invariant: Valid
// implies TimestampMs > 0. FieldRate is populated by the rate estimator,
// not the sensor driver.
type MagSample struct {
	Field       vec3.Vec3 // uT
	FieldRate   vec3.Vec3 // uT/s
	TimestampMs uint64
	Valid       bool
}

// eclipseThreshold is the fraction of full-scale intensity below which
// the sun is considered not visible (spec.md §3).
const eclipseThreshold = 0.1

// SunSample is a sun-sensor reading (spec.md §3). Invariant: SunVisible
// iff Intensity > eclipseThreshold. SunVector is normalised when
// SunVisible, undefined otherwise.
type SunSample struct {
	Raw         [6]uint16
	SunVector   vec3.Vec3
	Intensity   float64
	SunVisible  bool
	TimestampMs uint64
}

// MtqCommand is the magnetorquer command (spec.md §3). Invariant:
// |Dipole_i| <= MaxDipole; Pwm_i = round(Dipole_i / MaxDipole * 100),
// clamped to [-100, 100].
type MtqCommand struct {
	Dipole  vec3.Vec3 // A*m^2
	Pwm     [3]int8
	Enabled bool
}

// State is the ADCS core's full internal state (spec.md §3). Created at
// Init in Idle; mutated only by Tick and SetMode; never destroyed.
type State struct {
	Mode Mode
	Mag  MagSample
	Sun  SunSample
	Mtq  MtqCommand

	// AngularRateEst and RateMagnitude are a convergence-metric proxy
	// derived from B-dot, not a general-purpose rate sensor; see
	// Core.updateRateEstimate in internal/adcs/core.go.
	AngularRateEst vec3.Vec3 // rad/s
	RateMagnitude  float64   // rad/s

	DetumbleStartMs  uint64 // 0 = none
	SettlingStartMs  uint64 // 0 = none
	DetumbleComplete bool

	ControlCycles uint32
	FaultCount    uint32
}

// Telemetry is the fixed-width ADCS telemetry packet (spec.md §3),
// matching the original firmware's scaled-integer encoding.
type Telemetry struct {
	Mode                     Mode
	MagX, MagY, MagZ         int16 // 0.1 uT
	SunX, SunY, SunZ         int16 // 0.01 unit
	RateX, RateY, RateZ      int16 // 0.01 deg/s
	MtqX, MtqY, MtqZ         int8
	SunVisible, DetumbleDone bool
}

// Configuration constants from spec.md §4.2 / the original firmware's
// adcs_control.h.
const (
	// MaxDipole is the per-axis magnetic dipole moment cap (A*m^2).
	MaxDipole = 0.2
	// BdotGain is the B-dot control law gain.
	BdotGain = 5.0e6
	// SunpointKp is the sun-pointing proportional gain.
	SunpointKp = 0.001
	// DetumbleRateThreshold is the rate below which detumble is
	// considered converged (rad/s, ~0.5 deg/s).
	DetumbleRateThreshold = 0.0087
	// DetumbleSettlingMs is how long the rate must stay below threshold
	// before detumble completes.
	DetumbleSettlingMs uint64 = 300000 // 5 minutes
	// DetumbleTimeoutMs bounds detumble duration even without
	// convergence (~1 LEO orbit).
	DetumbleTimeoutMs uint64 = 5400000 // 90 minutes
	// ControlPeriodMs is the nominal Tick cadence.
	ControlPeriodMs = 1000
	// minDtSeconds is the minimum sample spacing the rate estimator
	// trusts; smaller gaps are treated as noise.
	minDtSeconds = 0.01
	// minFieldMagnitudeUT guards the B-dot rate division against a
	// near-zero field reading.
	minFieldMagnitudeUT = 1.0
	// minFieldMagnitudeSqUT2 guards the sunpoint torque-to-dipole
	// conversion against a near-zero field.
	minFieldMagnitudeSqUT2 = 1.0
)
