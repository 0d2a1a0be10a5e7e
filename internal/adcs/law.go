// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package adcs

import (
	"math"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/vec3"
)

// computeBdot implements the B-dot detumble law: m = -k * B_dot, with the
// field rate converted from uT/s to T/s before scaling by BdotGain
// (spec.md §4.2). Returns the zero dipole if mag is invalid.
func computeBdot(mag MagSample) vec3.Vec3 {
	if !mag.Valid {
		return vec3.Vec3{}
	}
	dipole := mag.FieldRate.Scale(-BdotGain * 1e-6)
	return dipole.SaturateMagnitude(MaxDipole)
}

// computeSunpoint implements the cross-product-error sun-pointing law,
// converting the resulting torque to a magnetic dipole via
// m = (tau x B) / |B|^2 (spec.md §4.2). The target pointing axis is
// +X body, per the original firmware's fixed convention. Returns the
// zero dipole if the sun is not visible, the magnetometer is invalid, or
// the field is too weak to invert.
func computeSunpoint(sun SunSample, mag MagSample) vec3.Vec3 {
	if !sun.SunVisible || !mag.Valid {
		return vec3.Vec3{}
	}

	sunDesired := vec3.New(1, 0, 0)
	errAxis := sun.SunVector.Cross(sunDesired)
	torque := errAxis.Scale(SunpointKp)

	b := mag.Field
	bMagSq := b.Dot(b)
	if bMagSq <= minFieldMagnitudeSqUT2 {
		return vec3.Vec3{}
	}

	tauCrossB := torque.Cross(b)
	dipole := tauCrossB.Scale(1e6 / bMagSq) // T back to uT-scaled dipole units
	return dipole.SaturateMagnitude(MaxDipole)
}

// dipoleToPwm converts a commanded dipole to clamped +-100 PWM duty
// cycles, one per axis (spec.md §3).
func dipoleToPwm(dipole vec3.Vec3) [3]int8 {
	conv := func(d float64) int8 {
		pwm := d / MaxDipole * 100.0
		if pwm > 100 {
			pwm = 100
		}
		if pwm < -100 {
			pwm = -100
		}
		return int8(math.Round(pwm))
	}
	return [3]int8{conv(dipole.X), conv(dipole.Y), conv(dipole.Z)}
}
