// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package simhal

import (
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// adcFullScaleVolts and adcMaxCode mirror the original's 12-bit, 3.3V
// reference ADC (hal_sim.c: "assuming 12-bit, 3.3V ref").
const (
	adcFullScaleVolts = 3.3
	adcMaxCode        = 4095
)

// ADC simulates the six coarse sun-sensor photodiode channels (see
// internal/adcs.NewHWSunSensor).
type ADC struct{ sim *Sim }

func newADC(sim *Sim) *ADC { return &ADC{sim: sim} }

func (a *ADC) ReadVoltage(ch hal.ADCChannel) (float64, error) {
	idx, ok := channelIndex(ch)
	if !ok {
		return 0, errs.InvalidParameter
	}
	a.sim.mu.Lock()
	v := a.sim.sunVolts[idx]
	a.sim.mu.Unlock()
	return v, nil
}

func (a *ADC) ReadRaw(ch hal.ADCChannel) (uint16, error) {
	v, err := a.ReadVoltage(ch)
	if err != nil {
		return 0, err
	}
	return uint16((v / adcFullScaleVolts) * adcMaxCode), nil
}

func channelIndex(ch hal.ADCChannel) (int, bool) {
	switch ch {
	case hal.ChannelSunSensor0, hal.ChannelSunSensor1, hal.ChannelSunSensor2,
		hal.ChannelSunSensor3, hal.ChannelSunSensor4, hal.ChannelSunSensor5:
		return int(ch), true
	default:
		return 0, false
	}
}
