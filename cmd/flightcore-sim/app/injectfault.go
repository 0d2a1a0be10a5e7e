// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/adcs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/boardcfg"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/deployment"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/flightlog"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/supervisor"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/watchdog"
	"github.com/cheesejaguar/SMART-QSO-sub001/pkg/simhal"
)

type faultFlags struct {
	boardPath string
	warmup    time.Duration
	stall     time.Duration
}

// NewCmdInjectFault builds the `inject-fault` subcommand: it runs the
// supervisor normally for a warmup period, then stops feeding it Tick
// calls entirely — simulating a wedged main loop — and reports whether
// the hardware watchdog and the per-task liveness checks caught it.
func NewCmdInjectFault() *cobra.Command {
	f := &faultFlags{}
	cmd := &cobra.Command{
		Use:   "inject-fault",
		Short: "Simulate a wedged main loop and report how the watchdog caught it",
		Long: "inject-fault runs the supervisor normally for --warmup, then stops\n" +
			"calling Tick for --stall, mimicking a stuck main loop, and prints\n" +
			"whether the hardware watchdog and task liveness checks detected it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInjectFault(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.boardPath, "board", "", "path to a board YAML descriptor (defaults to the simulation board)")
	cmd.Flags().DurationVar(&f.warmup, "warmup", 2*time.Second, "how long to run normally before injecting the fault")
	cmd.Flags().DurationVar(&f.stall, "stall", 35*time.Second, "how long to stop feeding the supervisor, simulating a hang")
	return cmd
}

func runInjectFault(cmd *cobra.Command, f *faultFlags) error {
	sessionID := uuid.New()
	log := logrus.WithField("session", sessionID.String())
	log.Infof("starting inject-fault run (warmup=%s, stall=%s)", f.warmup, f.stall)

	board, err := boardcfg.Load(f.boardPath)
	if err != nil {
		return errors.Wrap(err, "app: load board config")
	}

	cfg := simhal.DefaultConfig()
	cfg.SeparationDelay = time.Hour
	cfg.Regions = board.FlashRegions
	cfg.WatchdogTimeoutMs = board.HWWatchdogTimeoutMs
	sim := simhal.New(cfg, logrus.StandardLogger())

	flog := flightlog.New(sim.Clock, nil)
	wdt := watchdog.New(sim.Watchdog, sim.Clock, flog)
	if err := wdt.Init(); err != nil {
		return errors.Wrap(err, "app: watchdog init")
	}
	if err := wdt.RegisterTask(watchdog.TaskMainLoop, "main", 1000); err != nil {
		return errors.Wrap(err, "app: register main task")
	}
	if err := wdt.RegisterTask(watchdog.TaskADCS, "adcs", uint32(adcs.ControlPeriodMs*2)); err != nil {
		return errors.Wrap(err, "app: register adcs task")
	}
	if err := wdt.Start(); err != nil {
		return errors.Wrap(err, "app: watchdog start")
	}

	dep := deployment.New(sim.GPIO, sim.Flash, flog)
	if err := dep.Init(); err != nil {
		return errors.Wrap(err, "app: deployment init")
	}

	mag := adcs.NewHWMagnetometer(sim.I2C, board.MagnetometerScaleUT)
	sun := adcs.NewHWSunSensor(sim.ADC, board.SunSensorFullScaleV)
	core := adcs.New(mag, sun, flog)
	if err := core.Init(); err != nil {
		return errors.Wrap(err, "app: adcs init")
	}
	core.SetMode(adcs.Detumble, sim.Clock.NowMs())

	sup := supervisor.New(sim.Clock, wdt, dep, core, flog)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	simDone := make(chan error, 1)
	go func() { simDone <- sim.Run(ctx) }()

	warmupDeadline := time.Now().Add(f.warmup)
	for time.Now().Before(warmupDeadline) {
		if err := sup.Tick(sim.Clock.NowMs()); err != nil {
			cancel()
			<-simDone
			return errors.Wrap(err, "app: supervisor tick during warmup")
		}
		sim.Clock.DelayMs(supervisor.TickPeriodMs)
	}
	log.Info("warmup complete, injecting stall fault")

	stallDeadline := time.Now().Add(f.stall)
	for time.Now().Before(stallDeadline) {
		sim.Watchdog.CheckExpiry()
		time.Sleep(200 * time.Millisecond)
	}

	cancel()
	<-simDone

	stats := wdt.GetStats()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "--- fault injection report ---")
	fmt.Fprintf(out, "hw watchdog caught stall:  %t\n", sim.Watchdog.CausedReset())
	fmt.Fprintf(out, "task stalls detected:      %d\n", stats.TaskStallsDetected)
	fmt.Fprintf(out, "any task stalled now:      %t\n", wdt.AnyTaskStalled())
	return nil
}
