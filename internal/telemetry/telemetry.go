// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

// Package telemetry encodes the fixed-width downlink packets for the
// deployment sequencer and ADCS core (spec.md §3, §4.1, §4.2) as plain
// big-endian byte buffers via encoding/binary — no unsafe, no
// padding-dependent struct layout, matching the discipline spec.md §9
// applies to the persisted deployment state.
package telemetry

import (
	"encoding/binary"

	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/adcs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/deployment"
)

// schemaMarker is shared with internal/deployment's persisted-state
// schema version, so ground software parsing both can use one version
// negotiation.
const schemaMarker = "1.0.0"

func schemaMarkerNumeric() uint16 {
	v, err := version.NewVersion(schemaMarker)
	if err != nil {
		return 0
	}
	segs := v.Segments()
	return uint16(segs[0])<<8 | uint16(segs[1])
}

// DeploymentPacketSize is the on-wire size of an encoded deployment
// telemetry packet.
const DeploymentPacketSize = 2 + 1 + 1 + 1 + 1 + 1 + 4 + 1

// EncodeDeployment packs t into a fixed-width big-endian buffer matching
// the original firmware's DeploymentTelemetry_t layout, prefixed with the
// shared schema marker.
func EncodeDeployment(t deployment.Telemetry) []byte {
	buf := make([]byte, DeploymentPacketSize)
	off := 0
	binary.BigEndian.PutUint16(buf[off:], schemaMarkerNumeric())
	off += 2
	buf[off] = byte(t.State)
	off++
	buf[off] = boolByte(t.AntennaDeployed)
	off++
	buf[off] = t.AntennaAttempts
	off++
	buf[off] = boolByte(t.SolarDeployed)
	off++
	buf[off] = t.SolarAttempts
	off++
	binary.BigEndian.PutUint32(buf[off:], t.TimeSinceSepS)
	off += 4
	buf[off] = boolByte(t.InhibitActive)
	return buf
}

// DecodeDeployment is the inverse of EncodeDeployment. Returns an error
// if buf is the wrong length or the schema marker does not match.
func DecodeDeployment(buf []byte) (deployment.Telemetry, error) {
	if len(buf) != DeploymentPacketSize {
		return deployment.Telemetry{}, errors.New("telemetry: deployment packet wrong size")
	}
	schema := binary.BigEndian.Uint16(buf)
	if schema != schemaMarkerNumeric() {
		return deployment.Telemetry{}, errors.New("telemetry: deployment packet schema mismatch")
	}

	off := 2
	t := deployment.Telemetry{
		State:           deployment.State(buf[off]),
		AntennaDeployed: buf[off+1] != 0,
		AntennaAttempts: buf[off+2],
		SolarDeployed:   buf[off+3] != 0,
		SolarAttempts:   buf[off+4],
		TimeSinceSepS:   binary.BigEndian.Uint32(buf[off+5:]),
		InhibitActive:   buf[off+9] != 0,
	}
	return t, nil
}

// AdcsPacketSize is the on-wire size of an encoded ADCS telemetry packet.
const AdcsPacketSize = 2 + 1 + 2*3 + 2*3 + 2*3 + 1*3 + 1

// EncodeAdcs packs t into a fixed-width big-endian buffer matching the
// original firmware's AdcsTelemetry_t layout, prefixed with the shared
// schema marker.
func EncodeAdcs(t adcs.Telemetry) []byte {
	buf := make([]byte, AdcsPacketSize)
	off := 0
	binary.BigEndian.PutUint16(buf[off:], schemaMarkerNumeric())
	off += 2
	buf[off] = byte(t.Mode)
	off++

	for _, v := range []int16{t.MagX, t.MagY, t.MagZ, t.SunX, t.SunY, t.SunZ, t.RateX, t.RateY, t.RateZ} {
		binary.BigEndian.PutUint16(buf[off:], uint16(v))
		off += 2
	}
	buf[off] = byte(t.MtqX)
	off++
	buf[off] = byte(t.MtqY)
	off++
	buf[off] = byte(t.MtqZ)
	off++

	var flags byte
	if t.SunVisible {
		flags |= 0x01
	}
	if t.DetumbleDone {
		flags |= 0x02
	}
	buf[off] = flags
	return buf
}

// DecodeAdcs is the inverse of EncodeAdcs. Returns an error if buf is the
// wrong length or the schema marker does not match.
func DecodeAdcs(buf []byte) (adcs.Telemetry, error) {
	if len(buf) != AdcsPacketSize {
		return adcs.Telemetry{}, errors.New("telemetry: adcs packet wrong size")
	}
	schema := binary.BigEndian.Uint16(buf)
	if schema != schemaMarkerNumeric() {
		return adcs.Telemetry{}, errors.New("telemetry: adcs packet schema mismatch")
	}

	off := 2
	t := adcs.Telemetry{Mode: adcs.Mode(buf[off])}
	off++

	vals := make([]int16, 9)
	for i := range vals {
		vals[i] = int16(binary.BigEndian.Uint16(buf[off:]))
		off += 2
	}
	t.MagX, t.MagY, t.MagZ = vals[0], vals[1], vals[2]
	t.SunX, t.SunY, t.SunZ = vals[3], vals[4], vals[5]
	t.RateX, t.RateY, t.RateZ = vals[6], vals[7], vals[8]

	t.MtqX = int8(buf[off])
	off++
	t.MtqY = int8(buf[off])
	off++
	t.MtqZ = int8(buf[off])
	off++

	flags := buf[off]
	t.SunVisible = flags&0x01 != 0
	t.DetumbleDone = flags&0x02 != 0
	return t, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
