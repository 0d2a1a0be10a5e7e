// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package hal defines the hardware abstraction layer contract consumed by
// the flight core (spec.md §6). Per-target drivers (GPIO, I2C, SPI, UART,
// ADC, flash, HW watchdog, timers) are out of scope as implementations —
// only the interfaces the core consumes are specified here. Pin IDs, I2C
// device addresses, ADC channel IDs, and flash region IDs are enumerated
// constants, never numeric literals, so the core is portable across board
// variants (see internal/boardcfg).
package hal

// Pin enumerates the GPIO lines the core is aware of.
type Pin int

const (
	// PinDeploySense is the separation-switch sense input: reads high while
	// the dispenser still restrains the satellite, low once it releases.
	// checkSeparationSwitch inverts this read; checkElementDeployed reads
	// the same shared line directly once past separation, since the
	// reference hardware multiplexes one sense line across both burn-wire
	// circuits. Owned exclusively by the deployment sequencer (spec.md §5).
	PinDeploySense Pin = iota
	// PinDeployEnable is the single line able to source burn-wire current.
	// Owned exclusively by the deployment sequencer.
	PinDeployEnable
)

// PinDirection selects GPIO direction.
type PinDirection int

const (
	// PinDirectionInput configures the pin as a digital input.
	PinDirectionInput PinDirection = iota
	// PinDirectionOutput configures the pin as a digital output.
	PinDirectionOutput
)

// PinPull selects a GPIO input's internal pull resistor.
type PinPull int

const (
	// PullNone disables any internal pull resistor.
	PullNone PinPull = iota
	// PullUp enables the internal pull-up resistor.
	PullUp
	// PullDown enables the internal pull-down resistor.
	PullDown
)

// Clock provides monotonic time since power-on, in milliseconds, per
// spec.md §3. Implementations must never let NowMs go backwards within a
// power cycle.
type Clock interface {
	// NowMs returns milliseconds since power-on.
	NowMs() uint64
	// NowUs returns microseconds since power-on.
	NowUs() uint64
	// DelayMs busy-waits or sleeps for the given number of milliseconds.
	// Only ever called from the bottom of the supervisor loop (spec.md §5).
	DelayMs(ms uint32)
}

// GPIO is the digital I/O capability.
type GPIO interface {
	// Config sets a pin's direction and pull mode. Returns
	// errs.InvalidParameter for an unrecognised pin.
	Config(pin Pin, dir PinDirection, pull PinPull) error
	// Set drives an output pin high (true) or low (false). Returns
	// errs.NotInitialised if the pin was never configured as an output.
	Set(pin Pin, level bool) error
	// Get reads the current logic level of a pin.
	Get(pin Pin) (bool, error)
	// Toggle inverts an output pin's current level.
	Toggle(pin Pin) error
}

// I2CDevice enumerates the I2C peripherals the ADCS core talks to.
type I2CDevice int

const (
	// DeviceMagnetometer is the 3-axis magnetometer.
	DeviceMagnetometer I2CDevice = iota
	// DeviceSunSensor is the sun-sensor array controller.
	DeviceSunSensor
)

// I2C is the I2C bus capability. Owned exclusively by the ADCS core
// (spec.md §5).
type I2C interface {
	// Write sends data to dev.
	Write(dev I2CDevice, data []byte) error
	// Read fills buf from dev, returning the number of bytes read.
	Read(dev I2CDevice, buf []byte) (int, error)
	// WriteThenRead performs a repeated-start write-then-read transaction.
	WriteThenRead(dev I2CDevice, w []byte, r []byte) error
	// DevicePresent probes the bus for dev's address (e.g. via a zero-byte
	// write), returning false rather than an error if the device simply
	// does not ACK.
	DevicePresent(dev I2CDevice) (bool, error)
	// Recover attempts a bus-recovery sequence (clock-stretch/NAK clearing)
	// after a BusError.
	Recover() error
}

// ADCChannel enumerates the analogue-in channels the ADCS core reads.
type ADCChannel int

const (
	// ChannelSunSensor0 through ChannelSunSensor5 are the six coarse
	// sun-sensor photodiode channels backing SunSample.Raw.
	ChannelSunSensor0 ADCChannel = iota
	ChannelSunSensor1
	ChannelSunSensor2
	ChannelSunSensor3
	ChannelSunSensor4
	ChannelSunSensor5
)

// ADC is the analogue-in capability.
type ADC interface {
	// ReadRaw returns the raw ADC code for ch.
	ReadRaw(ch ADCChannel) (uint16, error)
	// ReadVoltage returns ch's reading converted to volts.
	ReadVoltage(ch ADCChannel) (float64, error)
}

// FlashRegion enumerates the partitioned non-volatile storage regions
// (spec.md §5: "Flash regions: partitioned; the deployment status has its
// own region; mission data, fault log, and backup have theirs").
type FlashRegion int

const (
	// RegionDeploymentState holds the persisted deployment.State.
	RegionDeploymentState FlashRegion = iota
	// RegionMissionData holds mission configuration data.
	RegionMissionData
	// RegionFaultLog holds a persisted fault-log mirror.
	RegionFaultLog
	// RegionBackup is the backup region. The deployment sequencer writes
	// only RegionDeploymentState; nothing in the core writes a backup copy
	// here.
	RegionBackup
)

// Flash is the non-volatile storage capability. Writes are whole-region
// with a CRC field, per spec.md §5; Flash itself does not interpret the
// CRC, it is opaque bytes to this layer.
type Flash interface {
	// Read copies region[off:off+len(buf)] into buf.
	Read(region FlashRegion, off uint32, buf []byte) error
	// Write copies buf into region[off:off+len(buf)].
	Write(region FlashRegion, off uint32, buf []byte) error
	// Erase resets region to its erased state.
	Erase(region FlashRegion) error
	// RegionSize returns the byte capacity of region.
	RegionSize(region FlashRegion) (uint32, error)
}

// WatchdogMode selects the hardware watchdog's behaviour on expiry.
type WatchdogMode int

const (
	// WatchdogModeReset resets the MCU on expiry. The only mode spec.md
	// requires; additional modes are a WatchdogMode extension point for
	// boards whose silicon also offers an interrupt-only mode.
	WatchdogModeReset WatchdogMode = iota
)

// HWWatchdog is the hardware watchdog timer capability. Once started, it
// cannot be stopped (spec.md §4.3: "mirrors most flight-silicon").
type HWWatchdog interface {
	// Init configures the timeout (which must lie in [1s, 60s], spec.md
	// §4.3) and mode. Returns errs.InvalidParameter if timeoutMs is out of
	// range; it is not clamped.
	Init(timeoutMs uint32, mode WatchdogMode) error
	// Start arms the watchdog. Irreversible.
	Start() error
	// Kick refreshes the countdown.
	Kick() error
	// RemainingMs returns the time left before expiry.
	RemainingMs() (uint32, error)
	// CausedReset reports whether the last MCU reset was caused by this
	// watchdog expiring.
	CausedReset() bool
	// ClearResetFlag clears the CausedReset latch.
	ClearResetFlag() error
	// SetWarningCallback registers an early-warning interrupt callback, if
	// the target silicon supports one. Returns errs.Unsupported otherwise.
	SetWarningCallback(fn func()) error
}
