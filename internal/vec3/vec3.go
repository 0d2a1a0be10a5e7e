// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package vec3 implements the 3D vector arithmetic used throughout the
// flight core: magnetic field samples, sun vectors, angular rates, and
// magnetorquer dipole commands are all Vec3 values.
package vec3

import "math"

// zeroEpsilon is the magnitude below which a vector is treated as the zero
// vector for normalisation purposes (spec: "no-op if |v| < 1e-10").
const zeroEpsilon = 1e-10

// Vec3 is a 3-component double-precision vector. The zero value is the
// zero vector.
type Vec3 struct {
	X, Y, Z float64
}

// New returns a Vec3 with the given components.
func New(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// MagnitudeSquared returns |v|^2, avoiding the sqrt when only a comparison
// against a squared threshold is needed.
func (v Vec3) MagnitudeSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Magnitude returns the Euclidean norm of v.
func (v Vec3) Magnitude() float64 {
	return math.Sqrt(v.MagnitudeSquared())
}

// Normalize returns the unit vector in the direction of v. Per spec, this
// is a no-op (returns v unchanged) if |v| < 1e-10, since the direction of a
// near-zero vector is not meaningful.
func (v Vec3) Normalize() Vec3 {
	m := v.Magnitude()
	if m < zeroEpsilon {
		return v
	}
	return v.Scale(1 / m)
}

// Cross returns v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Dot returns v . o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// SaturateMagnitude scales v down uniformly, preserving direction, so that
// its magnitude does not exceed cap. Vectors already within the cap, and
// the zero vector, are returned unchanged.
func (v Vec3) SaturateMagnitude(cap float64) Vec3 {
	m := v.Magnitude()
	if m <= cap || m < zeroEpsilon {
		return v
	}
	return v.Scale(cap / m)
}

// ComponentMax returns the largest absolute component of v, for callers
// that need a per-axis saturation check rather than a Euclidean one.
func (v Vec3) ComponentMax() float64 {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	m := ax
	if ay > m {
		m = ay
	}
	if az > m {
		m = az
	}
	return m
}

// EqualWithin reports whether v and o are equal component-wise to within
// eps, the epsilon-comparison policy spec.md mandates in place of the
// original's float equality via ==.
func (v Vec3) EqualWithin(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}
