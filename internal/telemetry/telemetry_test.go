// Copyright (c) 2026 SMART-QSO Team
// SPDX-License-Identifier: MIT

package telemetry

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/cheesejaguar/SMART-QSO-sub001/internal/adcs"
	"github.com/cheesejaguar/SMART-QSO-sub001/internal/deployment"
)

func TestDeploymentRoundTrip(t *testing.T) {
	want := deployment.Telemetry{
		State:           deployment.SolarVerify,
		AntennaDeployed: true,
		AntennaAttempts: 2,
		SolarDeployed:   false,
		SolarAttempts:   1,
		TimeSinceSepS:   123456,
		InhibitActive:   false,
	}
	buf := EncodeDeployment(want)
	if len(buf) != DeploymentPacketSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), DeploymentPacketSize)
	}
	got, err := DecodeDeployment(buf)
	if err != nil {
		t.Fatalf("DecodeDeployment: %v", err)
	}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDeploymentDecodeRejectsWrongSize(t *testing.T) {
	if _, err := DecodeDeployment([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected an error decoding a short buffer")
	}
}

func TestAdcsRoundTrip(t *testing.T) {
	want := adcs.Telemetry{
		Mode:         adcs.Sunpoint,
		MagX:         -300,
		MagY:         120,
		MagZ:         400,
		SunX:         99,
		SunY:         -50,
		SunZ:         10,
		RateX:        -12,
		RateY:        5,
		RateZ:        0,
		MtqX:         -100,
		MtqY:         42,
		MtqZ:         100,
		SunVisible:   true,
		DetumbleDone: true,
	}
	buf := EncodeAdcs(want)
	if len(buf) != AdcsPacketSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), AdcsPacketSize)
	}
	got, err := DecodeAdcs(buf)
	if err != nil {
		t.Fatalf("DecodeAdcs: %v", err)
	}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAdcsDecodeRejectsSchemaMismatch(t *testing.T) {
	buf := EncodeAdcs(adcs.Telemetry{})
	buf[0] ^= 0xFF // corrupt the schema marker
	if _, err := DecodeAdcs(buf); err == nil {
		t.Fatalf("expected a schema mismatch error")
	}
}
