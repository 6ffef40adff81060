/*
NAME
  decoder_test.go

DESCRIPTION
  Tests for CaptionDecoder: PAT/PMT tracking to locate the PCR and caption
  PIDs, the PCR trace line emitted on first lock, and a full caption PES
  decoded end to end through ParsePrivateData.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package arib

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ts-rewriter/tsrewrite/container/mts"
)

func decoderPacket(pid uint16, unitStart bool, cc byte, payload []byte) []byte {
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

// decoderPAT declares transport_stream_id=1, program 1 on PMT PID 0x0200.
var decoderPAT = []byte{
	0x00, 0xb0, 0x0d, 0x00, 0x01, 0xc1, 0x00, 0x00,
	0x00, 0x01, 0xe2, 0x00,
	0x9a, 0x12, 0x01, 0xae,
}

// decoderPMT declares program_number=1, pcr_pid=0x0100, one PES-private-data
// ES tagged as a caption stream (component_tag 0x30) on PID 0x0130.
var decoderPMT = []byte{
	0x02, 0xb0, 0x15, 0x00, 0x01, 0xc1, 0x00, 0x00,
	0xe1, 0x00, 0xf0, 0x00,
	0x06, 0xe1, 0x30, 0xf0, 0x03, 0x52, 0x01, 0x30,
	0xf4, 0xf8, 0xd6, 0x85,
}

func withPointer(section []byte) []byte {
	return append([]byte{0x00}, section...)
}

func newLockedDecoder(t *testing.T) (*CaptionDecoder, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	d := NewCaptionDecoder(&out)
	d.AddPacket(decoderPacket(0, true, 0, withPointer(decoderPAT)))
	d.AddPacket(decoderPacket(0x0200, true, 0, withPointer(decoderPMT)))
	if d.pcrPid != 0x0100 {
		t.Fatalf("pcrPid = %#x, want 0x0100", d.pcrPid)
	}
	if d.caption.pid != 0x0130 {
		t.Fatalf("caption.pid = %#x, want 0x0130", d.caption.pid)
	}
	return d, &out
}

func TestCaptionDecoderTracksPmtPids(t *testing.T) {
	newLockedDecoder(t)
}

func TestCaptionDecoderTracesPCROnFirstLock(t *testing.T) {
	d, out := newLockedDecoder(t)

	pcrPkt := make([]byte, 188)
	pcrPkt[0] = mts.SyncByte
	pcrPkt[1], pcrPkt[2] = 0x01, 0x00 // PID 0x0100.
	pcrPkt[3] = 0x20                  // adaptation field only.
	pcrPkt[4] = 7                     // adaptation_field_length.
	pcrPkt[5] = 0x10                  // PCR_flag.
	copy(pcrPkt[6:12], []byte{0x00, 0x26, 0x25, 0xa0, 0x7e, 0x00})
	for i := 12; i < len(pcrPkt); i++ {
		pcrPkt[i] = 0xff
	}

	d.AddPacket(pcrPkt)

	if !d.havePcr {
		t.Fatal("expected havePcr = true after a PCR-bearing packet")
	}
	if d.pcr != 5000000 {
		t.Errorf("pcr = %d, want 5000000", d.pcr)
	}
	if !strings.Contains(out.String(), "pcrpid=0x0100;pcr=0005000000") {
		t.Errorf("trace output = %q, missing the expected PCR line", out.String())
	}

	out.Reset()
	d.AddPacket(pcrPkt)
	if out.Len() != 0 {
		t.Error("expected no further PCR trace line after the first lock")
	}
}

func TestCaptionDecoderTracesCaptionPES(t *testing.T) {
	d, out := newLockedDecoder(t)

	pes := []byte{0x00, 0x00, 0x01, privateStream1, 0, 0, 0x80, 0xc0, 5}
	pts := [5]byte{0x21, 0x00, 0x07, 0x0d, 0x41} // encodes PTS 100000.
	pes = append(pes, pts[:]...)
	pes = append(pes, minimalCaptionManagementData...)

	d.AddPacket(decoderPacket(0x0130, true, 0, pes))

	got := out.String()
	if !strings.Contains(got, "pts=0000100000") {
		t.Errorf("trace output = %q, missing the expected PTS field", got)
	}
	if !strings.Contains(got, "b24caption") {
		t.Errorf("trace output = %q, missing the b24caption tag", got)
	}
	if !strings.Contains(got, "0=%00%00%00%00%00%={%=}") {
		t.Errorf("trace output = %q, missing the decoded private-data body", got)
	}
}
