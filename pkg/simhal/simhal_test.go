// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package simhal

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

func TestSeparationSwitchFiresAfterDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeparationDelay = 20 * time.Millisecond
	cfg.GeneratorPeriod = 5 * time.Millisecond
	sim := New(cfg, logrus.New())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	if err := sim.GPIO.Config(hal.PinDeploySense, hal.PinDirectionInput, hal.PullUp); err != nil {
		t.Fatalf("Config: %v", err)
	}
	deadline := time.After(150 * time.Millisecond)
	for {
		stowed, err := sim.GPIO.Get(hal.PinDeploySense)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !stowed {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("separation switch never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestMagnetometerReadTracksSimulatedField(t *testing.T) {
	sim := New(DefaultConfig(), logrus.New())
	if err := sim.I2C.Write(hal.DeviceMagnetometer, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var raw [6]byte
	n, err := sim.I2C.Read(hal.DeviceMagnetometer, raw[:])
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 6 {
		t.Fatalf("n = %d, want 6", n)
	}
}

func TestSunSensorVoltagesWithinFullScale(t *testing.T) {
	sim := New(DefaultConfig(), logrus.New())
	for ch := hal.ChannelSunSensor0; ch <= hal.ChannelSunSensor5; ch++ {
		v, err := sim.ADC.ReadVoltage(ch)
		if err != nil {
			t.Fatalf("ReadVoltage(%v): %v", ch, err)
		}
		if v < 0 || v > adcFullScaleVolts {
			t.Fatalf("channel %v voltage %f out of [0,%f]", ch, v, adcFullScaleVolts)
		}
	}
}

func TestFlashRoundTripsAndErase(t *testing.T) {
	sim := New(DefaultConfig(), logrus.New())
	if err := sim.Flash.Write(hal.RegionDeploymentState, 0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 3)
	if err := sim.Flash.Read(hal.RegionDeploymentState, 0, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 {
		t.Fatalf("buf = %v", buf)
	}
	if err := sim.Flash.Erase(hal.RegionDeploymentState); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if err := sim.Flash.Read(hal.RegionDeploymentState, 0, buf); err != nil {
		t.Fatalf("Read after erase: %v", err)
	}
	if buf[0] != 0xFF {
		t.Fatalf("post-erase byte = %#x, want 0xFF", buf[0])
	}
}

func TestWatchdogCheckExpiryFiresWarningOnce(t *testing.T) {
	clock := &Clock{start: time.Now()}
	w := newWatchdog(1000, clock)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.start = clock.start.Add(-time.Hour) // an hour passes with no Kick
	calls := 0
	if err := w.SetWarningCallback(func() { calls++ }); err != nil {
		t.Fatalf("SetWarningCallback: %v", err)
	}
	w.CheckExpiry()
	w.CheckExpiry()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !w.CausedReset() {
		t.Fatalf("expected CausedReset after expiry")
	}
}

func TestGpioEnablePinRequiresOutputConfig(t *testing.T) {
	sim := New(DefaultConfig(), logrus.New())
	if err := sim.GPIO.Set(hal.PinDeployEnable, true); err == nil {
		t.Fatalf("expected an error setting an unconfigured pin")
	}
	if err := sim.GPIO.Config(hal.PinDeployEnable, hal.PinDirectionOutput, hal.PullNone); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := sim.GPIO.Set(hal.PinDeployEnable, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := sim.GPIO.Get(hal.PinDeployEnable)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got {
		t.Fatalf("Get(PinDeployEnable) = false, want true")
	}
}
