/*
NAME
  filter_synth_test.go

DESCRIPTION
  Tests for the PCR/PID-rewrite and silent-audio synthesis helpers in
  filter_synth.go.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package servicefilter

import (
	"testing"

	"github.com/ts-rewriter/tsrewrite/container/mts"
)

func TestChangePidAndAddPacketRewritesPidAndCounter(t *testing.T) {
	f := New()
	src := buildPacket(0x0101, true, 7, []byte{1, 2, 3})

	f.changePidAndAddPacket(src, pidVideo, 9)

	if len(f.packets) != 188 {
		t.Fatalf("expected exactly one output packet, got %d bytes", len(f.packets))
	}
	if got := mts.HeaderPID(f.packets); got != pidVideo {
		t.Errorf("PID = %#x, want %#x", got, pidVideo)
	}
	if got := mts.ContinuityCounter(f.packets); got != 9 {
		t.Errorf("continuity counter = %d, want 9", got)
	}
}

func TestChangePidAndAddPacketLeavesCounterWhenOutOfRange(t *testing.T) {
	f := New()
	src := buildPacket(0x0101, true, 7, []byte{1, 2, 3})

	f.changePidAndAddPacket(src, pidVideo, 0xff) // counter > 0x0f: leave untouched.

	if got := mts.ContinuityCounter(f.packets); got != 7 {
		t.Errorf("continuity counter = %d, want the original 7", got)
	}
}

func TestAdd64MsecAudioPesPacketCarriesPTSOnFixedPid(t *testing.T) {
	f := New()
	var counter byte = 0x0f

	f.add64MsecAudioPesPacket(1, 100000, &counter)

	if len(f.packets) != 188 {
		t.Fatalf("expected exactly one 188-byte packet, got %d bytes", len(f.packets))
	}
	if got := mts.HeaderPID(f.packets); got != pidAudio2 {
		t.Errorf("PID = %#x, want %#x", got, pidAudio2)
	}
	if counter != 0 {
		t.Errorf("counter = %d, want 0 (wrapped from 0x0f)", counter)
	}
	if got := mts.ContinuityCounter(f.packets); got != 0 {
		t.Errorf("packet continuity counter = %d, want 0", got)
	}
}

func TestAddAudioPesPacketsFillsGapAndStopsWithinTenSeconds(t *testing.T) {
	f := New()
	pts := int64(0)
	var counter byte

	f.addAudioPesPackets(0, 17280, &pts, &counter)

	if len(f.packets)%188 != 0 {
		t.Fatalf("expected a whole number of 188-byte packets, got %d bytes", len(f.packets))
	}
	if got := len(f.packets) / 188; got != 3 {
		t.Fatalf("emitted %d packets, want 3", got)
	}
	if pts != 17280 {
		t.Errorf("pts = %d, want 17280 (caught up to target)", pts)
	}
	if counter != 3 {
		t.Errorf("counter = %d, want 3 after three packets", counter)
	}
}

func TestAddAudioPesPacketsSnapsWithoutPriorPTS(t *testing.T) {
	f := New()
	pts := int64(-1) // no prior PTS: must snap straight to target.
	var counter byte

	f.addAudioPesPackets(0, 5760, &pts, &counter)

	if pts != 5760 {
		t.Errorf("pts = %d, want 5760", pts)
	}
	if len(f.packets) != 0 {
		t.Errorf("expected no packets once pts is already at target, got %d bytes", len(f.packets))
	}
}
