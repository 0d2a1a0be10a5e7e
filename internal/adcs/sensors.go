// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package adcs

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/vec3"
)

// MagnetometerReader supplies a magnetometer sample each control cycle.
// The core does not care whether the reading came from real I2C hardware
// or a simulator; Core.Tick calls Read once per cycle and treats the
// result opaquely.
type MagnetometerReader interface {
	Read(nowMs uint64) (MagSample, error)
}

// SunSensorReader supplies a sun-sensor sample each control cycle.
type SunSensorReader interface {
	Read(nowMs uint64) (SunSample, error)
}

// hwMagnetometer reads the magnetometer over the HAL I2C bus: three
// big-endian int16 counts, scaled to microtesla.
type hwMagnetometer struct {
	bus   hal.I2C
	scale float64 // uT per LSB
}

// NewHWMagnetometer constructs a MagnetometerReader backed by bus. scale
// converts the device's raw int16 counts to microtesla.
func NewHWMagnetometer(bus hal.I2C, scale float64) MagnetometerReader {
	return &hwMagnetometer{bus: bus, scale: scale}
}

func (m *hwMagnetometer) Read(nowMs uint64) (MagSample, error) {
	var raw [6]byte
	if _, err := m.bus.Read(hal.DeviceMagnetometer, raw[:]); err != nil {
		return MagSample{}, errors.Wrap(err, "adcs: read magnetometer")
	}
	x := int16(binary.BigEndian.Uint16(raw[0:2]))
	y := int16(binary.BigEndian.Uint16(raw[2:4]))
	z := int16(binary.BigEndian.Uint16(raw[4:6]))
	return MagSample{
		Field:       vec3.New(float64(x)*m.scale, float64(y)*m.scale, float64(z)*m.scale),
		TimestampMs: nowMs,
		Valid:       true,
	}, nil
}

// hwSunSensor reads the six coarse sun-sensor photodiode channels over
// the HAL ADC and derives a unit sun vector by treating each channel as a
// positive-axis-facing photodiode pair (+X,-X,+Y,-Y,+Z,-Z), the common
// coarse sun-sensor arrangement this core's heritage boards use.
type hwSunSensor struct {
	adc            hal.ADC
	fullScaleVolts float64
}

// NewHWSunSensor constructs a SunSensorReader backed by adc.
// fullScaleVolts is the photodiode output at full illumination.
func NewHWSunSensor(adc hal.ADC, fullScaleVolts float64) SunSensorReader {
	return &hwSunSensor{adc: adc, fullScaleVolts: fullScaleVolts}
}

func (s *hwSunSensor) Read(nowMs uint64) (SunSample, error) {
	var raw [6]uint16
	var volts [6]float64
	channels := []hal.ADCChannel{
		hal.ChannelSunSensor0, hal.ChannelSunSensor1, hal.ChannelSunSensor2,
		hal.ChannelSunSensor3, hal.ChannelSunSensor4, hal.ChannelSunSensor5,
	}
	for i, ch := range channels {
		v, err := s.adc.ReadVoltage(ch)
		if err != nil {
			return SunSample{}, errors.Wrap(err, "adcs: read sun sensor")
		}
		volts[i] = v
		raw[i], err = s.adc.ReadRaw(ch)
		if err != nil {
			return SunSample{}, errors.Wrap(err, "adcs: read sun sensor raw")
		}
	}

	axisVec := vec3.New(volts[0]-volts[1], volts[2]-volts[3], volts[4]-volts[5])
	intensity := (volts[0] + volts[1] + volts[2] + volts[3] + volts[4] + volts[5]) / (6 * s.fullScaleVolts)

	sample := SunSample{
		Raw:         raw,
		Intensity:   intensity,
		SunVisible:  intensity > eclipseThreshold,
		TimestampMs: nowMs,
	}
	if sample.SunVisible {
		sample.SunVector = axisVec.Normalize()
	}
	return sample, nil
}
