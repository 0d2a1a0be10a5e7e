// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package app

import "testing"

// TestNewRootCommand exists to exercise command-tree construction, the
// way the teacher's own root command test does.
func TestNewRootCommand(t *testing.T) {
	c := NewRootCommand()
	if c == nil {
		t.Fatal("NewRootCommand returned nil")
	}
	if _, _, err := c.Find([]string{"run"}); err != nil {
		t.Fatalf("expected a \"run\" subcommand: %v", err)
	}
}

func TestConfigureLoggingRejectsUnknownLevel(t *testing.T) {
	if err := configureLogging("not-a-level", ""); err == nil {
		t.Fatal("expected an error for an unrecognised log level")
	}
}

func TestConfigureLoggingAcceptsKnownLevel(t *testing.T) {
	if err := configureLogging("debug", ""); err != nil {
		t.Fatalf("configureLogging: %v", err)
	}
}
