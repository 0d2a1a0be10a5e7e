// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package app

import (
	"context"
	"fmt"
	"text/tabwriter"
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

type replayFlags struct {
	boardPath string
	duration  time.Duration
	minLevel  string
}

// NewCmdReplayLog builds the `replay-log` subcommand: it runs the
// supervisor against a simulated HAL for a short duration, then dumps the
// flight-safe ring buffer's contents in sequence order, the way a ground
// pass would replay a satellite's retained log after an AOS.
func NewCmdReplayLog() *cobra.Command {
	f := &replayFlags{}
	cmd := &cobra.Command{
		Use:   "replay-log",
		Short: "Run a short bench session and dump the retained flight log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplayLog(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.boardPath, "board", "", "path to a board YAML descriptor (defaults to the simulation board)")
	cmd.Flags().DurationVar(&f.duration, "duration", 10*time.Second, "how long to run the bench before dumping the log")
	cmd.Flags().StringVar(&f.minLevel, "min-level", "debug", "minimum log level to print: trace, debug, info, warning, error, critical")
	return cmd
}

func runReplayLog(cmd *cobra.Command, f *replayFlags) error {
	sessionID := uuid.New()
	log := logrus.WithField("session", sessionID.String())
	log.Infof("starting replay-log bench run (duration=%s)", f.duration)

	minLevel, err := flightlog.ParseLevel(f.minLevel)
	if err != nil {
		return errors.Wrap(err, "app: parse --min-level")
	}

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

	ctx, cancel := context.WithTimeout(cmd.Context(), f.duration)
	defer cancel()

	simDone := make(chan error, 1)
	go func() { simDone <- sim.Run(ctx) }()

	stop := make(chan struct{})
	loopDone := make(chan error, 1)
	go func() { loopDone <- sup.Run(stop) }()

	<-ctx.Done()
	close(stop)
	<-loopDone
	cancel()
	<-simDone

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "seq\tt (ms)\tlevel\tmodule\tmessage")
	for i := 0; i < flog.GetCount(); i++ {
		e, err := flog.GetEntry(i)
		if err != nil {
			return errors.Wrap(err, "app: read log entry")
		}
		if e.Level < minLevel {
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", e.Sequence, e.TimestampMs, e.Level, e.Module, e.Message)
	}
	return nil
}
