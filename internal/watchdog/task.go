// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package watchdog implements the two-tier watchdog manager from
// spec.md §4.3: a hardware timer kicked by the main loop, plus an
// independent per-task liveness table so a silent-but-running main loop
// cannot mask a stalled subsystem.
package watchdog

import "time"

// TaskID identifies a registered task slot. Matches the heritage task
// enumeration from the original flight software's watchdog_mgr.h.
type TaskID int

const (
	// TaskMainLoop is the main processing loop.
	TaskMainLoop TaskID = iota
	// TaskEPS is the power-system monitoring task.
	TaskEPS
	// TaskADCS is the ADCS control task.
	TaskADCS
	// TaskComm is the communications task.
	TaskComm
	// TaskTelemetry is the telemetry generation task.
	TaskTelemetry
	// TaskBeacon is the beacon transmission task.
	TaskBeacon
	// TaskPayload is the payload management task.
	TaskPayload
	// TaskHealth is the health monitoring task.
	TaskHealth

	// MaxTasks is the fixed number of task slots (spec.md §3).
	MaxTasks = 8
)

const (
	// maxNameLen is the task-name cap (16 chars incl. NUL in the original).
	maxNameLen = 15
	// MissThreshold is the number of consecutive missed periods before a
	// task is marked stalled (spec.md §4.3).
	MissThreshold = 3
	// CheckInterval is the cadence at which Kick re-evaluates task
	// liveness (spec.md §4.3).
	CheckInterval = time.Second
)

// Task is one entry in the fixed 8-slot liveness table (spec.md §3).
type Task struct {
	Name             string
	ExpectedPeriodMs uint32
	LastCheckinMs    uint64
	MissCount        uint32
	TotalCheckins    uint64
	Active           bool
	Stalled          bool
}
