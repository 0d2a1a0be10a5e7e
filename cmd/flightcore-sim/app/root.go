// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package app implements flightcore-sim, a bench-test CLI that drives the
// flight core (internal/supervisor) against pkg/simhal rather than real
// silicon. It mirrors the teacher's split of a thin main.go around a
// testable cobra command tree.
package app

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cheesejaguar/SMART-QSO-sub001/pkg/buildinfo"
	"github.com/cheesejaguar/SMART-QSO-sub001/pkg/errlog"
)

var (
	logLevel string
	logFile  string
)

// NewRootCommand builds the flightcore-sim command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "flightcore-sim",
		Short:   "Bench harness for the SMART-QSO flight core",
		Long:    "flightcore-sim drives the deployment sequencer, ADCS core, and watchdog manager against a simulated HAL, for development and regression testing off real hardware.",
		Version: buildinfo.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(logLevel, logFile)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write structured JSON logs to this file")

	cmd.AddCommand(NewCmdRun())
	cmd.AddCommand(NewCmdInjectFault())
	cmd.AddCommand(NewCmdReplayLog())
	return cmd
}

func configureLogging(level, file string) error {
	if err := errlog.SetLevel(level); err != nil {
		return errors.Wrapf(err, "app: parse --log-level %q", level)
	}

	if file == "" {
		return nil
	}
	if _, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
		return errors.Wrapf(err, "app: open --log-file %q", file)
	}
	paths := lfshook.PathMap{}
	for _, lvl := range logrus.AllLevels {
		paths[lvl] = file
	}
	hook := lfshook.NewHook(paths)
	hook.SetFormatter(&logrus.JSONFormatter{})
	logrus.AddHook(hook)
	return nil
}
