// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package flightlog

import "testing"

func TestParseLevelRoundTripsWithString(t *testing.T) {
	for l := LevelTrace; l <= LevelOff; l++ {
		got, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", l.String(), err)
		}
		if got != l {
			t.Fatalf("ParseLevel(%q) = %v, want %v", l.String(), got, l)
		}
	}
}

func TestParseLevelRejectsUnknownName(t *testing.T) {
	if _, err := ParseLevel("not-a-level"); err == nil {
		t.Fatal("expected an error for an unrecognised level name")
	}
}
