// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/adcs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/boardcfg"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/deployment"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/flightlog"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/supervisor"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/watchdog"
	"github.com/cheesejaguar/SMART-QSO-sub001/pkg/simhal"
)

const (
	spinnerType     = 14
	spinnerInterval = 100 * time.Millisecond
	reportEvery     = 5 * time.Second
)

type runFlags struct {
	boardPath       string
	duration        time.Duration
	separationDelay time.Duration
}

// NewCmdRun builds the `run` subcommand, which drives the supervisor
// against pkg/simhal for a fixed wall-clock duration, printing periodic
// telemetry tables and a final summary.
func NewCmdRun() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the flight core against a simulated HAL for a fixed duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.boardPath, "board", "", "path to a board YAML descriptor (defaults to the simulation board)")
	cmd.Flags().DurationVar(&f.duration, "duration", 2*time.Minute, "how long to run the bench before stopping")
	cmd.Flags().DurationVar(&f.separationDelay, "separation-delay", 45*time.Minute, "simulated time from power-on to dispenser separation")
	return cmd
}

func runBench(cmd *cobra.Command, f *runFlags) error {
	sessionID := uuid.New()
	log := logrus.WithField("session", sessionID.String())
	log.Infof("starting flightcore-sim bench run (duration=%s)", f.duration)

	board, err := boardcfg.Load(f.boardPath)
	if err != nil {
		return errors.Wrap(err, "app: load board config")
	}

	cfg := simhal.DefaultConfig()
	cfg.SeparationDelay = f.separationDelay
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

	s := newHoldOffSpinner(cmd.OutOrStdout())
	s.Start()
	defer s.Stop()

	p := message.NewPrinter(language.AmericanEnglish)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)

	stop := make(chan struct{})
	loopDone := make(chan error, 1)
	go func() { loopDone <- sup.Run(stop) }()

	ticker := time.NewTicker(reportEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(stop)
			<-loopDone
			cancel()
			<-simDone
			s.Stop()
			printSummary(p, w, dep, core, wdt, flog)
			return nil
		case <-ticker.C:
			if dep.IsSeparated() {
				s.Stop()
			}
			printTelemetryRow(p, w, sim.Clock.NowMs(), dep, core)
		}
	}
}

func newHoldOffSpinner(out io.Writer) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[spinnerType], spinnerInterval)
	s.Suffix = "  waiting for dispenser separation"
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.Writer = f
	}
	return s
}

func printTelemetryRow(p *message.Printer, w *tabwriter.Writer, nowMs uint64, dep *deployment.Sequencer, core *adcs.Core) {
	dt := dep.GetTelemetry(uint32(nowMs))
	at := core.GetTelemetry()
	p.Fprintf(w, "t=%d ms\tdeploy=%s\tant=%d/%d\tsolar=%d/%d\tadcs=%s\trate=%d cdeg/s\n",
		nowMs, dt.State, boolToInt(dt.AntennaDeployed), dt.AntennaAttempts,
		boolToInt(dt.SolarDeployed), dt.SolarAttempts, at.Mode, at.RateX)
	_ = w.Flush()
}

func printSummary(p *message.Printer, w *tabwriter.Writer, dep *deployment.Sequencer, core *adcs.Core, wdt *watchdog.Manager, log *flightlog.Log) {
	stats := wdt.GetStats()
	fmt.Fprintln(w, "\n--- bench run summary ---")
	p.Fprintf(w, "deployment complete\t%t\n", dep.AllComplete())
	p.Fprintf(w, "adcs detumbled\t%t\n", core.IsDetumbled())
	p.Fprintf(w, "hw watchdog kicks\t%d\n", stats.HWKicks)
	p.Fprintf(w, "task stalls detected\t%d\n", stats.TaskStallsDetected)
	p.Fprintf(w, "log entries dropped\t%d\n", log.GetStats().Dropped)
	_ = w.Flush()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
