// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package boardcfg loads the per-board descriptor that used to be a
// compile-time HAL_TARGET_* selection in the original firmware (see
// original_source's hal.h): flash region sizes, the HW watchdog timeout
// bound, and the board's identity, all resolved once at startup from a
// YAML file via gopkg.in/yaml.v3, with github.com/spf13/viper layering in
// environment-variable overrides (no flag overrides) (spec.md's HAL contract names the capability; exactly
// which board backs it is a deployment-time choice, not a core concern).
package boardcfg

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// Target identifies the board variant, replacing the original firmware's
// HAL_TARGET_STM32L4 / HAL_TARGET_APOLLO4 / HAL_TARGET_SIMULATION
// compile-time selection with a runtime value.
type Target string

const (
	// TargetSTM32L4 is the STM32L4 flight microcontroller.
	TargetSTM32L4 Target = "stm32l4"
	// TargetApollo4 is the Ambiq Apollo4 flight microcontroller.
	TargetApollo4 Target = "apollo4"
	// TargetSimulation is the host-simulation target (pkg/simhal).
	TargetSimulation Target = "simulation"
)

// RegionSizes maps each flash region to its byte capacity.
type RegionSizes struct {
	DeploymentState uint32 `yaml:"deployment_state"`
	MissionData     uint32 `yaml:"mission_data"`
	FaultLog        uint32 `yaml:"fault_log"`
	Backup          uint32 `yaml:"backup"`
}

// Size returns the configured capacity for region.
func (r RegionSizes) Size(region hal.FlashRegion) uint32 {
	switch region {
	case hal.RegionDeploymentState:
		return r.DeploymentState
	case hal.RegionMissionData:
		return r.MissionData
	case hal.RegionFaultLog:
		return r.FaultLog
	case hal.RegionBackup:
		return r.Backup
	default:
		return 0
	}
}

// Board is the resolved board descriptor.
type Board struct {
	Name                string      `yaml:"name"`
	Target              Target      `yaml:"target"`
	HWWatchdogTimeoutMs uint32      `yaml:"hw_watchdog_timeout_ms"`
	FlashRegions        RegionSizes `yaml:"flash_regions"`
	MagnetometerScaleUT float64     `yaml:"magnetometer_scale_ut"`
	SunSensorFullScaleV float64     `yaml:"sun_sensor_full_scale_v"`
}

// defaults mirrors the original firmware's HAL_TARGET_SIMULATION default
// (SPEC_FULL.md §3: "board target selection ... resolved at
// cmd/flightcore-sim startup").
func defaults() Board {
	return Board{
		Name:                "smart-qso-sim",
		Target:              TargetSimulation,
		HWWatchdogTimeoutMs: 30000,
		FlashRegions: RegionSizes{
			DeploymentState: 256,
			MissionData:     4096,
			FaultLog:        8192,
			Backup:          256,
		},
		MagnetometerScaleUT: 0.1,
		SunSensorFullScaleV: 3.3,
	}
}

// Load resolves a Board from path (a YAML board descriptor), with
// environment-variable overrides under the SMARTQSO_ prefix applied on
// top via viper, matching the override layering the bench CLI exposes to
// operators. An empty path returns the simulation defaults untouched.
func Load(path string) (Board, error) {
	b := defaults()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Board{}, errors.Wrapf(err, "boardcfg: open %q", path)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&b); err != nil {
			return Board{}, errors.Wrapf(err, "boardcfg: parse %q", path)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("SMARTQSO")
	v.AutomaticEnv()
	if v.IsSet("hw_watchdog_timeout_ms") {
		b.HWWatchdogTimeoutMs = v.GetUint32("hw_watchdog_timeout_ms")
	}
	if v.IsSet("target") {
		b.Target = Target(v.GetString("target"))
	}

	if err := b.validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

func (b Board) validate() error {
	switch b.Target {
	case TargetSTM32L4, TargetApollo4, TargetSimulation:
	default:
		return fmt.Errorf("boardcfg: unrecognised target %q", b.Target)
	}
	if b.HWWatchdogTimeoutMs < 1000 || b.HWWatchdogTimeoutMs > 60000 {
		return fmt.Errorf("boardcfg: hw_watchdog_timeout_ms %d out of [1000,60000]", b.HWWatchdogTimeoutMs)
	}
	return nil
}
