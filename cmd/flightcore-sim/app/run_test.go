// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestRunBenchCompletesWithinDuration(t *testing.T) {
	f := &runFlags{
		duration:        150 * time.Millisecond,
		separationDelay: time.Hour,
	}
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	done := make(chan error, 1)
	go func() { done <- runBench(cmd, f) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runBench: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runBench did not return within the timeout")
	}
	if out.Len() == 0 {
		t.Fatal("expected some telemetry/summary output")
	}
}

func TestBoolToInt(t *testing.T) {
	if boolToInt(true) != 1 || boolToInt(false) != 0 {
		t.Fatal("boolToInt mapping incorrect")
	}
}
