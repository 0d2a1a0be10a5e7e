// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package simhal

import (
	"sync"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/boardcfg"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// Flash simulates the four partitioned non-volatile regions as in-memory
// byte slices (hal_sim.c: "Allocate simulation memory for each region").
// Regions start zero-filled; Erase fills a region with 0xFF, matching
// flash's erased-state convention.
type Flash struct {
	mu      sync.Mutex
	sizes   boardcfg.RegionSizes
	regions map[hal.FlashRegion][]byte
}

func newFlash(sizes boardcfg.RegionSizes) *Flash {
	f := &Flash{sizes: sizes, regions: make(map[hal.FlashRegion][]byte)}
	for _, r := range []hal.FlashRegion{hal.RegionDeploymentState, hal.RegionMissionData, hal.RegionFaultLog, hal.RegionBackup} {
		f.regions[r] = make([]byte, sizes.Size(r))
	}
	return f
}

func (f *Flash) Read(region hal.FlashRegion, off uint32, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.regions[region]
	if !ok || uint64(off)+uint64(len(buf)) > uint64(len(data)) {
		return errs.InvalidParameter
	}
	copy(buf, data[off:])
	return nil
}

func (f *Flash) Write(region hal.FlashRegion, off uint32, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.regions[region]
	if !ok || uint64(off)+uint64(len(buf)) > uint64(len(data)) {
		return errs.InvalidParameter
	}
	copy(data[off:], buf)
	return nil
}

func (f *Flash) Erase(region hal.FlashRegion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.regions[region]
	if !ok {
		return errs.InvalidParameter
	}
	for i := range data {
		data[i] = 0xFF
	}
	return nil
}

func (f *Flash) RegionSize(region hal.FlashRegion) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.regions[region]
	if !ok {
		return 0, errs.InvalidParameter
	}
	return uint32(len(data)), nil
}
