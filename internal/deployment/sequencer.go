// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package deployment

import (
	"github.com/pkg/errors"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/flightlog"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// Sequencer is the deployment state machine. Construct with New, then
// call Init once and Process(now_ms) at >= 10 Hz (spec.md §4.1).
// Single-threaded cooperative like the rest of the core (spec.md §5); no
// internal locking.
type Sequencer struct {
	gpio  hal.GPIO
	flash hal.Flash
	log   *flightlog.Log

	state              State
	separationTimeMs   uint32
	stateEntryTimeMs   uint32
	deployStartTimeMs  uint32
	elements           [elementCount]ElementStatus
	separationDetected bool
	deploymentEnabled  bool

	initialised bool
}

// New constructs a Sequencer bound to gpio (owns PinDeploySense and
// PinDeployEnable exclusively) and flash (owns RegionDeploymentState),
// logging through log.
func New(gpio hal.GPIO, flash hal.Flash, log *flightlog.Log) *Sequencer {
	return &Sequencer{gpio: gpio, flash: flash, log: log}
}

// Init configures the deploy-sense and deploy-enable pins, then attempts
// to load persisted state. A CRC or schema mismatch (or no prior save) is
// treated as fresh-init: State = Inhibited, deployment enabled, all
// counters zero (spec.md §4.1).
func (s *Sequencer) Init() error {
	if err := s.gpio.Config(hal.PinDeploySense, hal.PinDirectionInput, hal.PullUp); err != nil {
		return errors.Wrap(err, "deployment: configure sense pin")
	}
	if err := s.gpio.Config(hal.PinDeployEnable, hal.PinDirectionOutput, hal.PullNone); err != nil {
		return errors.Wrap(err, "deployment: configure enable pin")
	}
	if err := s.gpio.Set(hal.PinDeployEnable, false); err != nil {
		return errors.Wrap(err, "deployment: deassert enable pin")
	}

	s.deploymentEnabled = true
	s.state = Inhibited

	if err := s.loadState(); err != nil {
		if s.log != nil {
			if errors.Cause(err) == errSchemaMismatch {
				_ = s.log.Warning("DEPLOY", "persisted schema mismatch, starting fresh")
			} else {
				_ = s.log.Info("DEPLOY", "no saved state, starting fresh")
			}
		}
		s.deploymentEnabled = true
		s.state = Inhibited
	}

	s.initialised = true
	if s.log != nil {
		_ = s.log.Info("DEPLOY", "deployment module initialized")
	}
	return nil
}

func (s *Sequencer) loadState() error {
	p, err := load(s.flash)
	if err != nil {
		return err
	}
	s.state = p.state
	s.separationTimeMs = p.separationTimeMs
	s.stateEntryTimeMs = p.stateEntryTimeMs
	s.deployStartTimeMs = p.deployStartTimeMs
	s.elements = p.elements
	s.separationDetected = p.separationDetected
	s.deploymentEnabled = p.deploymentEnabled
	return nil
}

// Process advances the state machine by at most one transition. Must be
// called at >= 10 Hz. Side effects: toggling the deploy-enable pin,
// logging at state entry, and flight-log faults on retry exhaustion or an
// invalid state.
func (s *Sequencer) Process(nowMs uint32) {
	if !s.initialised {
		return
	}

	timeInState := nowMs - s.stateEntryTimeMs
	antenna := &s.elements[Antenna]
	solar := &s.elements[SolarPanel]

	switch s.state {
	case Inhibited:
		if s.checkSeparationSwitch() {
			s.separationDetected = true
			s.separationTimeMs = nowMs
			s.enterState(Waiting, nowMs)
			if s.log != nil {
				_ = s.log.Info("DEPLOY", "separation detected")
			}
		}

	case Waiting:
		if timeInState >= HoldOffMs && s.deploymentEnabled {
			s.enterState(AntennaPending, nowMs)
			if s.log != nil {
				_ = s.log.Info("DEPLOY", "wait complete, starting antenna deploy")
			}
		}

	case AntennaPending:
		s.processPending(Antenna, antenna, AntennaActive, SolarPending, nowMs)

	case AntennaActive:
		if timeInState >= AntennaBurnMs {
			s.actuate(Antenna, false)
			s.enterState(AntennaVerify, nowMs)
		}

	case AntennaVerify:
		s.processVerify(Antenna, antenna, SolarPending, AntennaPending, nowMs, timeInState, false)

	case SolarPending:
		s.processPending(SolarPanel, solar, SolarActive, Complete, nowMs)

	case SolarActive:
		if timeInState >= SolarBurnMs {
			s.actuate(SolarPanel, false)
			s.enterState(SolarVerify, nowMs)
		}

	case SolarVerify:
		s.processVerify(SolarPanel, solar, Complete, SolarPending, nowMs, timeInState, true)

	case Complete:
		// Already persisted once by the SolarVerify -> Complete edge.

	case Failed:
		// Awaits a ground-commanded ForceRetry.

	default:
		if s.log != nil {
			_ = s.log.Error("DEPLOY", "invalid deployment state")
		}
		s.enterState(Inhibited, nowMs)
	}

	antenna.SwitchState = s.checkElementDeployed(Antenna)
	solar.SwitchState = s.checkElementDeployed(SolarPanel)
}

// processPending implements the *Pending states: deploy-if-not-deployed,
// retry-until-exhausted, then Failed (spec.md §4.1 transition table). The
// "already deployed, skip" path only trusts a live sense read before any
// element has ever been actuated this power cycle: the sense line is
// shared across both burn-wire circuits, so once the antenna has actuated
// its (possibly still-latched) reading must not be allowed to short-circuit
// the solar panel's own deploy attempt.
func (s *Sequencer) processPending(el Element, st *ElementStatus, active, nextOnSkip State, nowMs uint32) {
	if !s.anyAttempted() && s.checkElementDeployed(el) {
		st.Deployed = true
		st.DeployTimeMs = nowMs
		s.enterState(nextOnSkip, nowMs)
		if s.log != nil {
			_ = s.log.Info("DEPLOY", "%s already deployed", elementName(el))
		}
		s.persistOutcome()
		return
	}
	if st.AttemptCount < MaxRetries {
		s.actuate(el, true)
		st.DeployAttempted = true
		st.AttemptCount++
		s.deployStartTimeMs = nowMs
		s.enterState(active, nowMs)
		if s.log != nil {
			_ = s.log.Info("DEPLOY", "%s deploy attempt %d", elementName(el), st.AttemptCount)
		}
		s.persistOutcome()
		return
	}
	if s.log != nil {
		_ = s.log.Error("DEPLOY", "%s deployment failed after %d attempts", elementName(el), MaxRetries)
	}
	s.enterState(Failed, nowMs)
	s.persistOutcome()
}

// persistOutcome saves state to flash whenever a transition changes a
// deployment outcome (deployed, attempt_count, or Failed), per spec.md
// §5's persistence-ordering rule: the write happens before Process
// returns to the supervisor, not only on reaching Complete. A save
// failure is logged but does not block the state machine — the next
// outcome-changing transition will retry it.
func (s *Sequencer) persistOutcome() {
	if s.flash == nil {
		return
	}
	if err := s.SaveState(); err != nil && s.log != nil {
		_ = s.log.Error("DEPLOY", "state save failed: %v", err)
	}
}

// processVerify implements the *Verify states (spec.md §4.1): confirmed
// deployment advances to nextOnDeployed; otherwise a retry-delay timeout
// returns to retryState. finalElement selects the "all deployments
// complete" log line instead of the per-element confirmation.
func (s *Sequencer) processVerify(el Element, st *ElementStatus, nextOnDeployed, retryState State, nowMs, timeInState uint32, finalElement bool) {
	if s.checkElementDeployed(el) {
		st.Deployed = true
		st.DeployTimeMs = nowMs
		s.enterState(nextOnDeployed, nowMs)
		if s.log != nil {
			if finalElement {
				_ = s.log.Info("DEPLOY", "all deployments complete")
			} else {
				_ = s.log.Info("DEPLOY", "%s deployment confirmed", elementName(el))
			}
		}
		s.persistOutcome()
		return
	}
	if timeInState >= RetryDelayMs {
		s.enterState(retryState, nowMs)
	}
}

// anyAttempted reports whether either element has ever been actuated this
// power cycle (AttemptCount survives a reload from flash, so this also
// holds across a warm reboot mid-sequence).
func (s *Sequencer) anyAttempted() bool {
	for i := range s.elements {
		if s.elements[i].AttemptCount > 0 {
			return true
		}
	}
	return false
}

func elementName(el Element) string {
	if el == Antenna {
		return "antenna"
	}
	return "solar"
}

func (s *Sequencer) enterState(next State, nowMs uint32) {
	old := s.state
	s.state = next
	s.stateEntryTimeMs = nowMs
	if s.log != nil {
		_ = s.log.Debug("DEPLOY", "state: %s -> %s", old, next)
	}
}

// checkSeparationSwitch reads the separation-switch sense pin and inverts
// it: the pin reads high while still stowed, low once the dispenser
// releases, so "separated" is the logical negation of the raw level.
// Mirrors the original firmware's check_deployment_switch (deployment.c),
// which returns !hal_gpio_get(DEPLOY_SWITCH_PIN).
func (s *Sequencer) checkSeparationSwitch() bool {
	level, err := s.gpio.Get(hal.PinDeploySense)
	if err != nil {
		return false
	}
	return !level
}

// checkElementDeployed reads the shared deploy-sense pin directly, with no
// inversion. The reference hardware multiplexes one sense line across both
// burn-wire circuits, used for separation sensing before release and for
// per-element burn confirmation afterward; mirrors check_element_deployed's
// hardware path (deployment.c: hal_gpio_get(GPIO_PIN_DEPLOY_SENSE)).
func (s *Sequencer) checkElementDeployed(el Element) bool {
	level, err := s.gpio.Get(hal.PinDeploySense)
	if err != nil {
		return false
	}
	return level
}

// actuate drives the single deploy-enable line. Per spec.md §4.1's safety
// policy this is the only function permitted to assert it, and only from
// AntennaActive/SolarActive via processPending.
func (s *Sequencer) actuate(el Element, activate bool) {
	_ = s.gpio.Set(hal.PinDeployEnable, activate)
	if s.log != nil {
		onOff := "OFF"
		if activate {
			onOff = "ON"
		}
		_ = s.log.Debug("DEPLOY", "burn wire %s: %s", elementName(el), onOff)
	}
}

// IsSeparated reports whether separation from the dispenser has been
// detected.
func (s *Sequencer) IsSeparated() bool { return s.separationDetected }

// GetState returns the current state-machine state.
func (s *Sequencer) GetState() State { return s.state }

// GetElementStatus returns a copy of el's status. Returns
// errs.InvalidParameter for an out-of-range element.
func (s *Sequencer) GetElementStatus(el Element) (ElementStatus, error) {
	if el < 0 || el >= elementCount {
		return ElementStatus{}, errs.InvalidParameter
	}
	return s.elements[el], nil
}

// GetTelemetry returns the fixed-width telemetry summary.
func (s *Sequencer) GetTelemetry(nowMs uint32) Telemetry {
	t := Telemetry{
		State:           s.state,
		AntennaDeployed: s.elements[Antenna].Deployed,
		AntennaAttempts: s.elements[Antenna].AttemptCount,
		SolarDeployed:   s.elements[SolarPanel].Deployed,
		SolarAttempts:   s.elements[SolarPanel].AttemptCount,
		InhibitActive:   !s.deploymentEnabled,
	}
	if s.separationDetected {
		t.TimeSinceSepS = (nowMs - s.separationTimeMs) / 1000
	}
	return t
}

// SetEnabled toggles the ground-commanded enable gate between Waiting and
// AntennaPending.
func (s *Sequencer) SetEnabled(enable bool) {
	s.deploymentEnabled = enable
	if s.log != nil {
		state := "inhibited"
		if enable {
			state = "enabled"
		}
		_ = s.log.Info("DEPLOY", "deployment %s by command", state)
	}
}

// ForceRetry is the ground-commanded retry entry point: allowed in any
// state, it resets el's attempt counter and deployed flag, and jumps to
// el's corresponding *Pending state (spec.md §4.1).
func (s *Sequencer) ForceRetry(el Element, nowMs uint32) error {
	if el < 0 || el >= elementCount {
		return errs.InvalidParameter
	}
	s.elements[el].AttemptCount = 0
	s.elements[el].Deployed = false

	if el == Antenna {
		s.enterState(AntennaPending, nowMs)
	} else {
		s.enterState(SolarPending, nowMs)
	}
	if s.log != nil {
		_ = s.log.Info("DEPLOY", "forced retry for element %s", elementName(el))
	}
	return nil
}

// AllComplete reports whether both elements have confirmed deployment.
func (s *Sequencer) AllComplete() bool {
	return s.elements[Antenna].Deployed && s.elements[SolarPanel].Deployed
}

// SaveState computes the CRC-32 + schema-versioned layout and writes it
// to the HAL flash region.
func (s *Sequencer) SaveState() error {
	p := &persistedState{
		state:              s.state,
		separationTimeMs:   s.separationTimeMs,
		stateEntryTimeMs:   s.stateEntryTimeMs,
		deployStartTimeMs:  s.deployStartTimeMs,
		elements:           s.elements,
		separationDetected: s.separationDetected,
		deploymentEnabled:  s.deploymentEnabled,
	}
	if err := save(s.flash, p); err != nil {
		return err
	}
	if s.log != nil {
		_ = s.log.Info("DEPLOY", "state saved")
	}
	return nil
}
