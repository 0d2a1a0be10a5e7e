// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package deployment

import (
	"testing"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

type fakeGPIO struct {
	sense    bool
	enable   bool
	enableHi int // count of cycles enable pin was observed high
}

func (g *fakeGPIO) Config(pin hal.Pin, dir hal.PinDirection, pull hal.PinPull) error { return nil }
func (g *fakeGPIO) Set(pin hal.Pin, level bool) error {
	if pin == hal.PinDeployEnable {
		g.enable = level
		if level {
			g.enableHi++
		}
	}
	return nil
}
func (g *fakeGPIO) Get(pin hal.Pin) (bool, error) {
	if pin == hal.PinDeploySense {
		return g.sense, nil
	}
	return false, nil
}
func (g *fakeGPIO) Toggle(pin hal.Pin) error { return nil }

type fakeFlash struct {
	regions map[hal.FlashRegion][]byte
}

func newFakeFlash() *fakeFlash {
	return &fakeFlash{regions: map[hal.FlashRegion][]byte{
		hal.RegionDeploymentState: make([]byte, 256),
	}}
}

func (f *fakeFlash) Read(region hal.FlashRegion, off uint32, buf []byte) error {
	copy(buf, f.regions[region][off:])
	return nil
}
func (f *fakeFlash) Write(region hal.FlashRegion, off uint32, buf []byte) error {
	copy(f.regions[region][off:], buf)
	return nil
}
func (f *fakeFlash) Erase(region hal.FlashRegion) error {
	for i := range f.regions[region] {
		f.regions[region][i] = 0
	}
	return nil
}
func (f *fakeFlash) RegionSize(region hal.FlashRegion) (uint32, error) {
	return uint32(len(f.regions[region])), nil
}

func newTestSequencer() (*Sequencer, *fakeGPIO, *fakeFlash) {
	g := &fakeGPIO{}
	fl := newFakeFlash()
	s := New(g, fl, nil)
	return s, g, fl
}

func TestHappyPathToComplete(t *testing.T) {
	s, g, _ := newTestSequencer()
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s.GetState() != Inhibited {
		t.Fatalf("initial state = %v, want Inhibited", s.GetState())
	}

	var now uint32
	g.sense = false // pin low: dispenser released
	s.Process(now)
	if s.GetState() != Waiting {
		t.Fatalf("state after separation = %v, want Waiting", s.GetState())
	}

	now += HoldOffMs
	s.Process(now)
	if s.GetState() != AntennaPending {
		t.Fatalf("state after hold-off = %v, want AntennaPending", s.GetState())
	}

	g.sense = false
	s.Process(now)
	if s.GetState() != AntennaActive {
		t.Fatalf("state after antenna pending = %v, want AntennaActive", s.GetState())
	}
	if !g.enable {
		t.Fatalf("expected enable pin asserted during AntennaActive")
	}

	now += AntennaBurnMs
	s.Process(now)
	if s.GetState() != AntennaVerify {
		t.Fatalf("state after antenna burn = %v, want AntennaVerify", s.GetState())
	}
	if g.enable {
		t.Fatalf("expected enable pin deasserted on entering AntennaVerify")
	}

	g.sense = true // confirm antenna deployed
	s.Process(now)
	if s.GetState() != SolarPending {
		t.Fatalf("state after antenna verify = %v, want SolarPending", s.GetState())
	}

	g.sense = false
	s.Process(now)
	if s.GetState() != SolarActive {
		t.Fatalf("state after solar pending = %v, want SolarActive", s.GetState())
	}

	now += SolarBurnMs
	s.Process(now)
	if s.GetState() != SolarVerify {
		t.Fatalf("state after solar burn = %v, want SolarVerify", s.GetState())
	}

	g.sense = true
	s.Process(now)
	if s.GetState() != Complete {
		t.Fatalf("state after solar verify = %v, want Complete", s.GetState())
	}
	if !s.AllComplete() {
		t.Fatalf("expected AllComplete() true")
	}
}

func TestRetryExhaustionReachesFailed(t *testing.T) {
	s, g, _ := newTestSequencer()
	_ = s.Init()

	var now uint32
	g.sense = false // pin low: dispenser released
	s.Process(now) // -> Waiting
	now += HoldOffMs
	s.Process(now) // -> AntennaPending

	g.sense = false // antenna never confirms deployed
	for attempt := 0; attempt < int(MaxRetries); attempt++ {
		s.Process(now) // AntennaPending -> AntennaActive
		if s.GetState() != AntennaActive {
			t.Fatalf("attempt %d: state = %v, want AntennaActive", attempt, s.GetState())
		}
		now += AntennaBurnMs
		s.Process(now) // AntennaActive -> AntennaVerify
		now += RetryDelayMs
		s.Process(now) // AntennaVerify -> AntennaPending (retry)
	}
	// One more tick at AntennaPending with attempts == MaxRetries drives
	// the final transition to Failed.
	s.Process(now)

	if s.GetState() != Failed {
		t.Fatalf("state after exhausting retries = %v, want Failed", s.GetState())
	}
	st, err := s.GetElementStatus(Antenna)
	if err != nil {
		t.Fatalf("GetElementStatus: %v", err)
	}
	if st.AttemptCount != MaxRetries {
		t.Fatalf("attempt count = %d, want %d", st.AttemptCount, MaxRetries)
	}
}

func TestActuationPinIdempotentWhenInactive(t *testing.T) {
	s, g, _ := newTestSequencer()
	_ = s.Init()

	g.sense = true // pin high: still stowed, never separates
	for now := uint32(0); now < 1000; now += 100 {
		s.Process(now)
		if g.enable {
			t.Fatalf("enable pin asserted at t=%d while never entering an Active state", now)
		}
	}
}

func TestForceRetryFromFailed(t *testing.T) {
	s, g, _ := newTestSequencer()
	_ = s.Init()

	var now uint32
	g.sense = false // pin low: dispenser released
	s.Process(now)
	now += HoldOffMs
	s.Process(now)

	g.sense = false
	for attempt := 0; attempt < int(MaxRetries); attempt++ {
		s.Process(now)
		now += AntennaBurnMs
		s.Process(now)
		now += RetryDelayMs
		s.Process(now)
	}
	s.Process(now)
	if s.GetState() != Failed {
		t.Fatalf("precondition: state = %v, want Failed", s.GetState())
	}

	if err := s.ForceRetry(Antenna, now); err != nil {
		t.Fatalf("ForceRetry: %v", err)
	}
	if s.GetState() != AntennaPending {
		t.Fatalf("state after ForceRetry = %v, want AntennaPending", s.GetState())
	}
	st, _ := s.GetElementStatus(Antenna)
	if st.AttemptCount != 0 {
		t.Fatalf("attempt count after ForceRetry = %d, want 0", st.AttemptCount)
	}
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	s1, g, fl := newTestSequencer()
	_ = s1.Init()

	var now uint32
	g.sense = false // pin low: dispenser released
	s1.Process(now)
	now += HoldOffMs
	s1.Process(now)
	if err := s1.SaveState(); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	s2 := New(g, fl, nil)
	if err := s2.Init(); err != nil {
		t.Fatalf("Init (reload): %v", err)
	}
	if s2.GetState() != AntennaPending {
		t.Fatalf("reloaded state = %v, want AntennaPending", s2.GetState())
	}
	if !s2.IsSeparated() {
		t.Fatalf("reloaded separation_detected = false, want true")
	}
}

func TestLoadCorruptStateFallsBackToFreshInit(t *testing.T) {
	fl := newFakeFlash()
	// Corrupt garbage in the region: a schema/CRC mismatch either way.
	for i := range fl.regions[hal.RegionDeploymentState][:persistedSize] {
		fl.regions[hal.RegionDeploymentState][i] = 0xFF
	}
	g := &fakeGPIO{}
	s := New(g, fl, nil)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s.GetState() != Inhibited {
		t.Fatalf("state after corrupt load = %v, want Inhibited", s.GetState())
	}
	if s.AllComplete() {
		t.Fatalf("expected no elements deployed after corrupt load")
	}
}
