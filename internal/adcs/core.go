// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package adcs

import (
	"math"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/flightlog"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/vec3"
)

// Core is the ADCS control loop. Construct with New, call Init once,
// then Tick(now_ms) at ControlPeriodMs cadence (spec.md §4.2).
// Single-threaded cooperative, like the rest of the flight core
// (spec.md §5); no internal locking.
type Core struct {
	mag MagnetometerReader
	sun SunSensorReader
	log *flightlog.Log

	state       State
	magPrevSet  bool
	magPrev     MagSample
	initialised bool
}

// New constructs a Core reading magnetometer samples from mag and
// sun-sensor samples from sun, logging through log (may be nil).
func New(mag MagnetometerReader, sun SunSensorReader, log *flightlog.Log) *Core {
	return &Core{mag: mag, sun: sun, log: log}
}

// Init resets the core to Idle mode with a zeroed state.
func (c *Core) Init() error {
	c.state = State{Mode: Idle}
	c.magPrevSet = false
	c.initialised = true
	if c.log != nil {
		_ = c.log.Info("ADCS", "initialized in IDLE mode")
	}
	return nil
}

// Tick runs one control-loop iteration: reads sensors, updates the rate
// estimate, runs the mode-specific control law, and applies (or
// disables) the magnetorquers. Must not be called before Init.
func (c *Core) Tick(nowMs uint64) error {
	if !c.initialised {
		return errs.NotInitialised
	}

	mag, err := c.mag.Read(nowMs)
	if err == nil {
		c.state.Mag = mag
	} else {
		c.state.Mag.Valid = false
	}
	sun, err := c.sun.Read(nowMs)
	if err == nil {
		c.state.Sun = sun
	}

	c.updateRateEstimate(nowMs)

	dipole := vec3.Vec3{}
	switch c.state.Mode {
	case Detumble:
		dipole = c.tickDetumble(nowMs)
	case Sunpoint:
		if c.state.Sun.SunVisible {
			dipole = computeSunpoint(c.state.Sun, c.state.Mag)
		} else {
			c.state.Mode = Eclipse
		}
	case Eclipse:
		if c.state.Sun.SunVisible {
			c.state.Mode = Sunpoint
		}
	case Safe, Idle:
		// No active control.
	}

	if c.state.Mode == Detumble || c.state.Mode == Sunpoint {
		c.applyDipole(dipole)
	} else {
		c.disableMtq()
	}

	c.state.ControlCycles++
	return nil
}

// updateRateEstimate derives a B-dot-based angular-rate proxy from
// consecutive magnetometer samples (spec.md §4.2). This is a convergence
// metric for the detumble law, not a general-purpose rate sensor.
func (c *Core) updateRateEstimate(nowMs uint64) {
	defer func() { c.magPrev, c.magPrevSet = c.state.Mag, true }()

	if !c.magPrevSet || !c.magPrev.Valid || !c.state.Mag.Valid {
		return
	}
	dtMs := nowMs - c.magPrev.TimestampMs
	dt := float64(dtMs) / 1000.0
	if dt < minDtSeconds {
		return
	}

	bMag := c.state.Mag.Field.Magnitude()
	if bMag <= minFieldMagnitudeUT {
		return
	}

	bDot := c.state.Mag.Field.Sub(c.magPrev.Field).Scale(1 / dt)
	c.state.Mag.FieldRate = bDot
	c.state.AngularRateEst = vec3.New(bDot.X/bMag, bDot.Y/bMag, bDot.Z/bMag)
	c.state.RateMagnitude = c.state.AngularRateEst.Magnitude()
}

// tickDetumble runs the Detumble mode body: timeout check, B-dot control,
// and convergence/settling tracking (spec.md §4.2).
func (c *Core) tickDetumble(nowMs uint64) vec3.Vec3 {
	if c.state.DetumbleStartMs > 0 && nowMs-c.state.DetumbleStartMs > DetumbleTimeoutMs {
		if c.log != nil {
			_ = c.log.Warning("ADCS", "detumble timeout")
		}
		c.state.FaultCount++
		c.state.DetumbleComplete = true
		c.state.Mode = Idle
		return vec3.Vec3{}
	}

	dipole := computeBdot(c.state.Mag)

	if c.state.RateMagnitude < DetumbleRateThreshold {
		if c.state.SettlingStartMs == 0 {
			c.state.SettlingStartMs = nowMs
		} else if nowMs-c.state.SettlingStartMs > DetumbleSettlingMs {
			c.state.DetumbleComplete = true
			c.state.Mode = Idle
			if c.log != nil {
				_ = c.log.Info("ADCS", "detumble complete")
			}
		}
	} else {
		c.state.SettlingStartMs = 0
	}
	return dipole
}

func (c *Core) applyDipole(dipole vec3.Vec3) {
	c.state.Mtq = MtqCommand{Dipole: dipole, Pwm: dipoleToPwm(dipole), Enabled: true}
}

func (c *Core) disableMtq() {
	c.state.Mtq = MtqCommand{}
}

// SetMode commands a mode transition. Entering Detumble from a different
// mode resets the detumble timers and completion flag (spec.md §4.2).
func (c *Core) SetMode(mode Mode, nowMs uint64) {
	prev := c.state.Mode
	c.state.Mode = mode
	if mode == Detumble && prev != Detumble {
		c.state.DetumbleStartMs = nowMs
		c.state.SettlingStartMs = 0
		c.state.DetumbleComplete = false
		if c.log != nil {
			_ = c.log.Info("ADCS", "starting detumble sequence")
		}
	}
	if c.log != nil {
		_ = c.log.Debug("ADCS", "mode changed: %s -> %s", prev, mode)
	}
}

// GetMode returns the current mode.
func (c *Core) GetMode() Mode { return c.state.Mode }

// GetState returns a copy of the core's full internal state.
func (c *Core) GetState() State { return c.state }

// IsDetumbled reports whether detumble has completed (by convergence or
// timeout).
func (c *Core) IsDetumbled() bool { return c.state.DetumbleComplete }

// SunVisible reports the most recent sun-sensor visibility reading.
func (c *Core) SunVisible() bool { return c.state.Sun.SunVisible }

// saturateInt16 clamps v to int16's range before conversion (spec.md
// §4.2's "saturating conversions"), mirroring dipoleToPwm's clamp for the
// int8 PWM fields.
func saturateInt16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// GetTelemetry returns the fixed-width scaled-integer telemetry packet
// (spec.md §3), matching the original firmware's encoding resolutions.
func (c *Core) GetTelemetry() Telemetry {
	const radToDeg = 180.0 / 3.14159265359
	return Telemetry{
		Mode:         c.state.Mode,
		MagX:         saturateInt16(c.state.Mag.Field.X * 10.0),
		MagY:         saturateInt16(c.state.Mag.Field.Y * 10.0),
		MagZ:         saturateInt16(c.state.Mag.Field.Z * 10.0),
		SunX:         saturateInt16(c.state.Sun.SunVector.X * 100.0),
		SunY:         saturateInt16(c.state.Sun.SunVector.Y * 100.0),
		SunZ:         saturateInt16(c.state.Sun.SunVector.Z * 100.0),
		RateX:        saturateInt16(c.state.AngularRateEst.X * radToDeg * 100.0),
		RateY:        saturateInt16(c.state.AngularRateEst.Y * radToDeg * 100.0),
		RateZ:        saturateInt16(c.state.AngularRateEst.Z * radToDeg * 100.0),
		MtqX:         c.state.Mtq.Pwm[0],
		MtqY:         c.state.Mtq.Pwm[1],
		MtqZ:         c.state.Mtq.Pwm[2],
		SunVisible:   c.state.Sun.SunVisible,
		DetumbleDone: c.state.DetumbleComplete,
	}
}
