// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package buildinfo holds build-time information like the flightcore-sim
// version. This is a separate package so that other packages can import it
// without worrying about introducing circular dependencies.
package buildinfo

// Version is the current version of flightcore-sim, set by the go linker's
// -X flag at build time.
var Version = "v0.1.0"

// GitSHA is the actual commit that is being built, set by the go linker's -X
// flag at build time.
var GitSHA string
