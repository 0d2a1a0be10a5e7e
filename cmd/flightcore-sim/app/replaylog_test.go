// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestRunReplayLogPrintsEntries(t *testing.T) {
	f := &replayFlags{
		duration: 150 * time.Millisecond,
		minLevel: "trace",
	}
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	done := make(chan error, 1)
	go func() { done <- runReplayLog(cmd, f) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runReplayLog: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runReplayLog did not return within the timeout")
	}
	if !strings.Contains(out.String(), "seq") {
		t.Fatal("expected a header row in the replayed log output")
	}
}

func TestRunReplayLogRejectsUnknownLevel(t *testing.T) {
	f := &replayFlags{
		duration: 10 * time.Millisecond,
		minLevel: "not-a-level",
	}
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	if err := runReplayLog(cmd, f); err == nil {
		t.Fatal("expected an error for an unrecognised --min-level")
	}
}
