// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/cheesejaguar/SMART-QSO-sub001/cmd/flightcore-sim/app"
	"github.com/cheesejaguar/SMART-QSO-sub001/pkg/errlog"
)

func main() {
	if err := app.NewRootCommand().Execute(); err != nil {
		errlog.LogError(err)
		os.Exit(1)
	}
}
