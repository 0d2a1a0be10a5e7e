// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package deployment

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/errs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/hal"
)

// schemaVersion is the persisted-layout version (SPEC_FULL.md §4.2). It is
// stored as major<<8 | minor; a stored value whose major or minor differs
// from the running core's demotes to
// fresh-init exactly like a CRC mismatch, but is logged as a distinct
// fault so ground can tell "torn write" from "upgraded firmware" apart.
const schemaVersion = "1.0.0"

// persistedSize is the fixed on-disk layout size: 2 (schema_version) +
// state (1) + 3*4 (three uint32 timers) + 2*(1+1+1+4+1) (two
// ElementStatus) + 1 (separation_detected) + 1 (deployment_enabled) + 4
// (CRC).
const persistedSize = 2 + 1 + 12 + 2*8 + 1 + 1 + 4

func marshalState(s *persistedState) []byte {
	buf := make([]byte, persistedSize)
	off := 0

	binary.BigEndian.PutUint16(buf[off:], schemaVersionNumeric())
	off += 2

	buf[off] = byte(s.state)
	off++

	binary.BigEndian.PutUint32(buf[off:], s.separationTimeMs)
	off += 4
	binary.BigEndian.PutUint32(buf[off:], s.stateEntryTimeMs)
	off += 4
	binary.BigEndian.PutUint32(buf[off:], s.deployStartTimeMs)
	off += 4

	for _, e := range s.elements {
		buf[off] = boolByte(e.Deployed)
		off++
		buf[off] = boolByte(e.DeployAttempted)
		off++
		buf[off] = e.AttemptCount
		off++
		binary.BigEndian.PutUint32(buf[off:], e.DeployTimeMs)
		off += 4
		buf[off] = boolByte(e.SwitchState)
		off++
	}

	buf[off] = boolByte(s.separationDetected)
	off++
	buf[off] = boolByte(s.deploymentEnabled)
	off++

	crc := crc32.ChecksumIEEE(buf[:off])
	binary.BigEndian.PutUint32(buf[off:], crc)

	return buf
}

func unmarshalState(buf []byte) (*persistedState, error) {
	if len(buf) != persistedSize {
		return nil, errs.CrcMismatch
	}
	off := 0

	storedSchema := binary.BigEndian.Uint16(buf[off:])
	off += 2
	if storedSchema != schemaVersionNumeric() {
		return nil, errSchemaMismatch
	}

	s := &persistedState{}
	s.state = State(buf[off])
	off++

	s.separationTimeMs = binary.BigEndian.Uint32(buf[off:])
	off += 4
	s.stateEntryTimeMs = binary.BigEndian.Uint32(buf[off:])
	off += 4
	s.deployStartTimeMs = binary.BigEndian.Uint32(buf[off:])
	off += 4

	for i := range s.elements {
		s.elements[i].Deployed = buf[off] != 0
		off++
		s.elements[i].DeployAttempted = buf[off] != 0
		off++
		s.elements[i].AttemptCount = buf[off]
		off++
		s.elements[i].DeployTimeMs = binary.BigEndian.Uint32(buf[off:])
		off += 4
		s.elements[i].SwitchState = buf[off] != 0
		off++
	}

	s.separationDetected = buf[off] != 0
	off++
	s.deploymentEnabled = buf[off] != 0
	off++

	wantCrc := binary.BigEndian.Uint32(buf[off:])
	gotCrc := crc32.ChecksumIEEE(buf[:off])
	if gotCrc != wantCrc {
		return nil, errs.CrcMismatch
	}
	return s, nil
}

// persistedState is the subset of Sequencer state written to flash,
// laid out per SPEC_FULL.md §4.2: schema_version, then these fields in
// declaration order, then a trailing CRC-32 over everything preceding it.
type persistedState struct {
	state              State
	separationTimeMs   uint32
	stateEntryTimeMs   uint32
	deployStartTimeMs  uint32
	elements           [elementCount]ElementStatus
	separationDetected bool
	deploymentEnabled  bool
}

// errSchemaMismatch is returned internally when the stored schema_version
// does not match the running core's; the caller logs it distinctly from
// errs.CrcMismatch before falling back to fresh-init.
var errSchemaMismatch = errors.New("deployment: schema version mismatch")

func schemaVersionNumeric() uint16 {
	v, err := version.NewVersion(schemaVersion)
	if err != nil {
		return 0
	}
	segs := v.Segments()
	return uint16(segs[0])<<8 | uint16(segs[1])
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// save writes s to the HAL's RegionDeploymentState region.
func save(fl hal.Flash, s *persistedState) error {
	buf := marshalState(s)
	if err := fl.Write(hal.RegionDeploymentState, 0, buf); err != nil {
		return errors.Wrap(err, "deployment: flash write")
	}
	return nil
}

// load reads and validates the persisted state. A CRC mismatch or schema
// mismatch is reported via the returned error but is not itself fatal to
// the caller; deployment.Init treats either as "no valid saved state".
func load(fl hal.Flash) (*persistedState, error) {
	size, err := fl.RegionSize(hal.RegionDeploymentState)
	if err != nil {
		return nil, errors.Wrap(err, "deployment: flash region size")
	}
	if size < persistedSize {
		return nil, errs.CrcMismatch
	}
	buf := make([]byte, persistedSize)
	if err := fl.Read(hal.RegionDeploymentState, 0, buf); err != nil {
		return nil, errors.Wrap(err, "deployment: flash read")
	}
	return unmarshalState(buf)
}
