// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package flightlog implements the flight-safe diagnostic sink from
// spec.md §4.4: a fixed-capacity, severity-filtered ring buffer, the only
// permitted diagnostic sink at runtime. There is no dynamic growth of the
// buffer itself and no standard I/O inside the package; UART emission is
// delegated to a narrow HAL-backed writer, and telemetry surfacing is a
// read done by an external collaborator via GetEntry.
package flightlog

import (
	"fmt"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// Stats carries per-level counts plus the overflow counter (spec.md §4.4,
// §8 invariant 6: dropped_logs is monotone non-decreasing).
type Stats struct {
	CountsByLevel [LevelCritical + 1]uint32
	Written       uint32
	Dropped       uint32
}

// Log is the flight-safe log. The zero value is not usable; construct
// with New. Single-threaded cooperative: spec.md §4.4 specifies no
// internal locking, since the log is only ever called from the same
// cooperative context as the rest of the core (spec.md §5). A caller that
// introduces real threads must add its own mutex around Write and GetEntry.
type Log struct {
	clock hal.Clock
	uart  UartWriter

	buf   ring
	seq   uint16
	level Level
	sinks Sinks
	cb    Callback
	stats Stats
}

// New constructs a Log backed by clock for timestamps and uart (may be
// nil) for SinkUart output. The default runtime level is LevelDebug and
// the default sinks are SinkBuffer only, matching the original's
// simulation defaults (spec.md §9 heritage notes). Other sinks are enabled
// only through SetOutputs; nothing in the supervisor calls it.
func New(clock hal.Clock, uart UartWriter) *Log {
	return &Log{
		clock: clock,
		uart:  uart,
		level: LevelDebug,
		sinks: SinkBuffer,
	}
}

// SetLevel sets the runtime severity floor. Returns errs.InvalidParameter
// for a level outside [LevelTrace, LevelOff].
func (l *Log) SetLevel(level Level) error {
	if level < LevelTrace || level > LevelOff {
		return errs.InvalidParameter
	}
	l.level = level
	return nil
}

// GetLevel returns the current runtime severity floor.
func (l *Log) GetLevel() Level { return l.level }

// SetOutputs replaces the active sink bitmask.
func (l *Log) SetOutputs(sinks Sinks) { l.sinks = sinks }

// Outputs returns the active sink bitmask.
func (l *Log) Outputs() Sinks { return l.sinks }

// RegisterCallback installs cb, replacing any previously registered
// callback. Passing nil clears it.
func (l *Log) RegisterCallback(cb Callback) { l.cb = cb }

// Write appends a formatted message at level, from module, if level is at
// or above both the compile-time floor (MinLevel) and the runtime floor
// (l.level). format/args follow fmt.Sprintf conventions; the rendered
// message is bounded to 127 characters, truncated with a trailing "..."
// when it would overflow, per spec.md §4.4. Returns errs.InvalidParameter
// for level values outside [LevelTrace, LevelCritical] — LevelOff is a
// valid floor but never a valid entry severity.
func (l *Log) Write(level Level, module, format string, args ...any) error {
	if level < LevelTrace || level > LevelCritical {
		return errs.InvalidParameter
	}
	if !level.Enabled(MinLevel) || !level.Enabled(l.level) {
		return nil
	}

	module = truncate(module, maxModuleLen)
	// fmt.Sprintf heap-allocates; see DESIGN.md for why this falls short of
	// spec.md §4.4's no-allocation discipline.
	msg := truncate(fmt.Sprintf(format, args...), maxMessageLen)

	entry := Entry{
		TimestampMs: uint32(l.clock.NowMs()),
		Level:       level,
		Module:      module,
		Message:     msg,
		Sequence:    l.seq,
	}
	l.seq++
	l.stats.Written++
	l.stats.CountsByLevel[level]++

	if l.sinks.Has(SinkBuffer) {
		if l.buf.push(entry) {
			l.stats.Dropped++
		}
	}
	if l.sinks.Has(SinkUart) && l.uart != nil {
		_ = l.uart.WriteLine(fmt.Sprintf("[%010d][%s][%-15s] %s", entry.TimestampMs, entry.Level, entry.Module, entry.Message))
	}
	if l.cb != nil {
		l.cb(entry)
	}
	return nil
}

// Trace, Debug, Info, Warning, Error, and Critical are convenience
// wrappers over Write at the matching level.
func (l *Log) Trace(module, format string, args ...any) error {
	return l.Write(LevelTrace, module, format, args...)
}
func (l *Log) Debug(module, format string, args ...any) error {
	return l.Write(LevelDebug, module, format, args...)
}
func (l *Log) Info(module, format string, args ...any) error {
	return l.Write(LevelInfo, module, format, args...)
}
func (l *Log) Warning(module, format string, args ...any) error {
	return l.Write(LevelWarning, module, format, args...)
}
func (l *Log) Error(module, format string, args ...any) error {
	return l.Write(LevelError, module, format, args...)
}
func (l *Log) Critical(module, format string, args ...any) error {
	return l.Write(LevelCritical, module, format, args...)
}

// GetEntry copies out the entry at logical index idx, where 0 is the
// oldest entry still buffered. Returns errs.InvalidParameter if idx is out
// of range.
func (l *Log) GetEntry(idx int) (Entry, error) {
	e, ok := l.buf.at(idx)
	if !ok {
		return Entry{}, errs.InvalidParameter
	}
	return e, nil
}

// GetCount returns the number of entries currently buffered (<= Capacity).
func (l *Log) GetCount() int { return l.buf.Len() }

// Clear empties the ring buffer. Stats (counts, dropped) are untouched —
// Clear is a buffer-contents operation, not a statistics reset.
func (l *Log) Clear() { l.buf.clear() }

// GetStats returns a copy of the current counters.
func (l *Log) GetStats() Stats { return l.stats }

// Flush is a no-op: the log has no buffered-but-unsent state beyond the
// ring itself (there is no asynchronous writer to drain), but the entry
// point exists to satisfy the command surface in spec.md §6 and so a
// future buffered UART/telemetry sink has somewhere to hook a real flush.
func (l *Log) Flush() error { return nil }
