// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package flightlog

import (
	"fmt"
	"strings"
	"testing"
)

type fakeClock struct{ ms uint64 }

func (c *fakeClock) NowMs() uint64     { return c.ms }
func (c *fakeClock) NowUs() uint64     { return c.ms * 1000 }
func (c *fakeClock) DelayMs(ms uint32) { c.ms += uint64(ms) }

type recordingUart struct{ lines []string }

func (u *recordingUart) WriteLine(s string) error {
	u.lines = append(u.lines, s)
	return nil
}

func TestWriteGetEntryRoundTrip(t *testing.T) {
	l := New(&fakeClock{ms: 42}, nil)
	if err := l.Write(LevelInfo, "TEST", "hello %d", 7); err != nil {
		t.Fatalf("Write: %v", err)
	}
	e, err := l.GetEntry(0)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if e.Message != "hello 7" || e.Module != "TEST" || e.Level != LevelInfo || e.TimestampMs != 42 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	l := New(&fakeClock{}, nil)
	const writes = 74
	for i := 0; i < writes; i++ {
		if err := l.Write(LevelInfo, "M", "entry %d", i); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if got := l.GetCount(); got != Capacity {
		t.Fatalf("count = %d, want %d", got, Capacity)
	}
	stats := l.GetStats()
	if stats.Dropped != writes-Capacity {
		t.Fatalf("dropped = %d, want %d", stats.Dropped, writes-Capacity)
	}
	e, err := l.GetEntry(0)
	if err != nil {
		t.Fatalf("GetEntry(0): %v", err)
	}
	wantMsg := fmt.Sprintf("entry %d", writes-Capacity)
	if e.Message != wantMsg {
		t.Fatalf("oldest entry = %q, want %q", e.Message, wantMsg)
	}
}

func TestRuntimeLevelFilters(t *testing.T) {
	l := New(&fakeClock{}, nil)
	if err := l.SetLevel(LevelWarning); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	_ = l.Write(LevelDebug, "M", "should be filtered")
	if l.GetCount() != 0 {
		t.Fatalf("debug entry was not filtered")
	}
	_ = l.Write(LevelError, "M", "should pass")
	if l.GetCount() != 1 {
		t.Fatalf("error entry was incorrectly filtered")
	}
}

func TestMessageTruncation(t *testing.T) {
	l := New(&fakeClock{}, nil)
	long := strings.Repeat("x", maxMessageLen+50)
	_ = l.Write(LevelInfo, "M", "%s", long)
	e, _ := l.GetEntry(0)
	if len(e.Message) != maxMessageLen {
		t.Fatalf("len(Message) = %d, want %d", len(e.Message), maxMessageLen)
	}
	if !strings.HasSuffix(e.Message, truncationSuffix) {
		t.Fatalf("truncated message missing suffix: %q", e.Message)
	}
}

func TestInvalidLevelRejected(t *testing.T) {
	l := New(&fakeClock{}, nil)
	if err := l.Write(LevelOff, "M", "nope"); err == nil {
		t.Fatalf("expected error writing at LevelOff")
	}
}

func TestUartSinkEmitsLine(t *testing.T) {
	u := &recordingUart{}
	l := New(&fakeClock{}, u)
	l.SetOutputs(SinkBuffer | SinkUart)
	_ = l.Write(LevelInfo, "M", "hi")
	if len(u.lines) != 1 {
		t.Fatalf("uart lines = %d, want 1", len(u.lines))
	}
}

func TestCallbackInvokedSynchronously(t *testing.T) {
	l := New(&fakeClock{}, nil)
	var got Entry
	l.RegisterCallback(func(e Entry) { got = e })
	_ = l.Write(LevelCritical, "WDT", "reset imminent")
	if got.Message != "reset imminent" {
		t.Fatalf("callback did not observe entry: %+v", got)
	}
}
