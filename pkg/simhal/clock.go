// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package simhal

import "time"

// Clock is a wall-clock-backed implementation of hal.Clock, measuring
// elapsed time since the Sim that owns it was constructed.
type Clock struct{ start time.Time }

func (c *Clock) NowMs() uint64 { return uint64(time.Since(c.start).Milliseconds()) }
func (c *Clock) NowUs() uint64 { return uint64(time.Since(c.start).Microseconds()) }
func (c *Clock) DelayMs(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
