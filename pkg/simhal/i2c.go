// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package simhal

import (
	"encoding/binary"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// scaleUT is the simulated magnetometer's raw-count-to-microtesla scale,
// matching boardcfg's TargetSimulation default.
const scaleUT = 0.1

// I2C simulates the I2C bus carrying the magnetometer (see
// internal/adcs.NewHWMagnetometer). DeviceSunSensor is recognised but
// unused: this core's sun sensor is ADC-backed (see ADC), not I2C — the
// enum value exists in internal/hal for boards whose sun-sensor
// controller is I2C, which the simulation target does not model.
type I2C struct{ sim *Sim }

func newI2C(sim *Sim) *I2C { return &I2C{sim: sim} }

func (i *I2C) Write(dev hal.I2CDevice, data []byte) error { return nil }

func (i *I2C) Read(dev hal.I2CDevice, buf []byte) (int, error) {
	if dev != hal.DeviceMagnetometer {
		for j := range buf {
			buf[j] = 0
		}
		return len(buf), nil
	}
	if len(buf) < 6 {
		return 0, errs.InvalidParameter
	}

	i.sim.mu.Lock()
	field := i.sim.field
	i.sim.mu.Unlock()

	binary.BigEndian.PutUint16(buf[0:2], uint16(int16(field.X/scaleUT)))
	binary.BigEndian.PutUint16(buf[2:4], uint16(int16(field.Y/scaleUT)))
	binary.BigEndian.PutUint16(buf[4:6], uint16(int16(field.Z/scaleUT)))
	return 6, nil
}

func (i *I2C) WriteThenRead(dev hal.I2CDevice, w []byte, r []byte) error {
	_, err := i.Read(dev, r)
	return err
}

func (i *I2C) DevicePresent(dev hal.I2CDevice) (bool, error) {
	return dev == hal.DeviceMagnetometer, nil
}

func (i *I2C) Recover() error { return nil }
