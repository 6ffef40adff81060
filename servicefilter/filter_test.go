/*
NAME
  filter_test.go

DESCRIPTION
  Tests for Filter: PAT/PMT reassembly driving PID renumbering and PMT
  resynthesis, program selection by number and by index, and the
  passthrough fixed-PID routing of already-classified elementary streams.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package servicefilter

import (
	"bytes"
	"testing"

	"github.com/ts-rewriter/tsrewrite/container/mts"
)

func buildPacket(pid uint16, unitStart bool, cc byte, payload []byte) []byte {
	pkt := make([]byte, 4, 188)
	pkt[0] = mts.SyncByte
	usb := byte(0)
	if unitStart {
		usb = 0x40
	}
	pkt[1] = usb | byte(pid>>8)&0x1f
	pkt[2] = byte(pid)
	pkt[3] = 0x10 | cc
	pkt = append(pkt, payload...)
	for len(pkt) < 188 {
		pkt = append(pkt, 0xff)
	}
	return pkt
}

// patOneProgram declares transport_stream_id=1, one program (number 1) on
// source PMT PID 0x0200. CRC precomputed with the package's own CRC-32/
// MPEG-2 algorithm.
var patOneProgram = []byte{
	0x00, 0xb0, 0x0d, 0x00, 0x01, 0xc1, 0x00, 0x00,
	0x00, 0x01, 0xe2, 0x00,
	0x9a, 0x12, 0x01, 0xae,
}

// patTwoPrograms declares programs 5 (PID 0x0300) and 7 (PID 0x0400).
var patTwoPrograms = []byte{
	0x00, 0xb0, 0x11, 0x00, 0x02, 0xc1, 0x00, 0x00,
	0x00, 0x05, 0xe3, 0x00,
	0x00, 0x07, 0xe4, 0x00,
	0xdd, 0x32, 0x86, 0x9d,
}

// pmtOneVideoOneAudio declares program_number=1, pcr_pid=0x0100, one video
// ES (stream_type 0x1b AVC, PID 0x0101, no descriptors) and one audio ES
// (stream_type 0x0f ADTS, PID 0x0102, component_tag 0x10).
var pmtOneVideoOneAudio = []byte{
	0x02, 0xb0, 0x1a, 0x00, 0x01, 0xc1, 0x00, 0x00,
	0xe1, 0x00, 0xf0, 0x00,
	0x1b, 0xe1, 0x01, 0xf0, 0x00,
	0x0f, 0xe1, 0x02, 0xf0, 0x03, 0x52, 0x01, 0x10,
	0x5f, 0xe8, 0xcb, 0xd3,
}

func withPointerField(section []byte) []byte {
	return append([]byte{0x00}, section...)
}

func TestAddPatRewritesProgramOntoFixedPmtPid(t *testing.T) {
	f := New()
	f.ProgramNumberOrIndex = 1

	f.AddPacket(buildPacket(0, true, 0, withPointerField(patOneProgram)))

	if len(f.pat.Refs) != 1 || f.pat.Refs[0].ProgramNumber != 1 || f.pat.Refs[0].PID != 0x0200 {
		t.Fatalf("PAT reassembly produced %+v", f.pat.Refs)
	}
	if len(f.Packets())%188 != 0 || len(f.Packets()) == 0 {
		t.Fatalf("expected a nonzero multiple of 188 bytes, got %d", len(f.Packets()))
	}
	if mts.HeaderPID(f.Packets()[:188]) != 0 {
		t.Errorf("synthesized PAT packet PID = %#x, want 0", mts.HeaderPID(f.Packets()[:188]))
	}
	// program_number=1 mapped to the fixed output PMT PID 0x01f0.
	if !bytes.Contains(f.Packets(), []byte{0x00, 0x01, 0xe1, 0xf0}) {
		t.Error("expected the synthesized PAT to map program 1 onto PMT PID 0x01f0")
	}
}

func TestFindTargetPmtRefByIndex(t *testing.T) {
	f := New()
	f.ProgramNumberOrIndex = -2 // second non-NIT program.

	f.AddPacket(buildPacket(0, true, 0, withPointerField(patTwoPrograms)))

	ref, ok := f.findTargetPmtRef()
	if !ok {
		t.Fatal("expected a target PMT ref")
	}
	if ref.ProgramNumber != 7 || ref.PID != 0x0400 {
		t.Errorf("findTargetPmtRef(-2) = %+v, want program 7 on PID 0x0400", ref)
	}
}

func TestAddPmtRenumbersVideoAndAudioPids(t *testing.T) {
	f := New()
	f.ProgramNumberOrIndex = 1
	f.AddPacket(buildPacket(0, true, 0, withPointerField(patOneProgram)))
	f.ClearPackets()

	f.AddPacket(buildPacket(0x0200, true, 0, withPointerField(pmtOneVideoOneAudio)))

	if f.videoPid != 0x0101 {
		t.Errorf("videoPid = %#x, want 0x0101", f.videoPid)
	}
	if f.audio1Pid != 0x0102 {
		t.Errorf("audio1Pid = %#x, want 0x0102", f.audio1Pid)
	}
	if !bytes.Contains(f.Packets(), []byte{streamAVC, 0xe1, 0x00}) {
		t.Error("expected the rewritten PMT to carry the video ES on PID 0x0100")
	}
	if !bytes.Contains(f.Packets(), []byte{streamADTS, 0xe1, 0x10}) {
		t.Error("expected the rewritten PMT to carry audio1 on PID 0x0110")
	}
}

func TestVideoPacketIsRenumberedOntoFixedPid(t *testing.T) {
	f := New()
	f.ProgramNumberOrIndex = 1
	f.AddPacket(buildPacket(0, true, 0, withPointerField(patOneProgram)))
	f.AddPacket(buildPacket(0x0200, true, 0, withPointerField(pmtOneVideoOneAudio)))
	f.ClearPackets()

	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	f.AddPacket(buildPacket(0x0101, true, 3, payload))

	if len(f.Packets()) != 188 {
		t.Fatalf("expected exactly one output packet, got %d bytes", len(f.Packets()))
	}
	if got := mts.HeaderPID(f.Packets()); got != pidVideo {
		t.Errorf("video packet PID = %#x, want %#x", got, pidVideo)
	}
	if !bytes.Equal(mts.HeaderPayload(f.Packets())[:len(payload)], payload) {
		t.Error("expected the video payload to be carried through unmodified")
	}
}

func TestProgramNumberZeroIsPurePassthrough(t *testing.T) {
	f := New() // ProgramNumberOrIndex left at its zero value.

	pkt := buildPacket(0x0101, true, 5, []byte{1, 2, 3})
	f.AddPacket(pkt)

	if !bytes.Equal(f.Packets(), pkt) {
		t.Error("ProgramNumberOrIndex=0 must pass every packet through unmodified")
	}
}

func TestGetAudioPTS(t *testing.T) {
	pes := []byte{0x00, 0x00, 0x01, 0xc0, 0x00, 0x08, 0x80, 0xc0, 5}
	pb := [5]byte{
		byte(90000>>29) | 0x21,
		byte(90000 >> 22),
		byte(90000>>14) | 1,
		byte(90000 >> 7),
		byte(90000<<1) | 1,
	}
	pes = append(pes, pb[:]...)

	if got := getAudioPTS(true, pes); got != 90000 {
		t.Errorf("getAudioPTS = %d, want 90000", got)
	}
	if got := getAudioPTS(false, pes); got != -1 {
		t.Errorf("getAudioPTS with unitStart=false = %d, want -1", got)
	}
}
