/*
NAME
  transmux_test.go

DESCRIPTION
  Tests for Workspace.TransmuxMonoToStereo and Workspace.TransmuxDualMono
  against hand-built minimal ADTS frames: a single single_channel_element
  with maxSfb=0 (no scale factor bands, no section/spectral data) is a
  valid, entirely bit-traceable raw_data_block, which keeps these fixtures
  checkable by hand rather than requiring a real encoder.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package aac

import "testing"

// minimalMonoFrame is one ADTS frame: channel_configuration=1,
// sampling_frequency_index=3, one raw_data_block holding exactly one
// single_channel_element (element_instance_tag=0, global_gain=0,
// window_sequence=ONLY_LONG_SEQUENCE, max_sfb=0, no predictor/pulse/tns/
// gain_control data - so no section_data or spectral_data bits follow)
// and an immediate END terminator. Every data bit is accounted for by
// hand: the element body is 29 zero bits, followed by the 3-bit END
// marker 111, for 32 bits total (4 bytes) after the 7-byte header.
var minimalMonoFrame = []byte{
	0xff, 0xf1, 0x4c, 0x40, 0x01, 0x7f, 0xfc,
	0x00, 0x00, 0x00, 0x07,
}

// minimalDualMonoFrame is the same shape but channel_configuration=0 with
// two consecutive single_channel_elements (each the same 29 all-zero-bit
// pattern) before the END marker.
var minimalDualMonoFrame = []byte{
	0xff, 0xf1, 0x4c, 0x00, 0x01, 0xff, 0xfc,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x38,
}

func TestTransmuxMonoToStereoUpmixesToChannelConfig2(t *testing.T) {
	var ws Workspace
	dest, ok := ws.TransmuxMonoToStereo(minimalMonoFrame)
	if !ok {
		t.Fatal("expected ok=true for a well-formed mono frame")
	}
	if len(dest) < 7 {
		t.Fatalf("dest = %d bytes, want at least a 7-byte header", len(dest))
	}
	if dest[0] != 0xff {
		t.Errorf("dest[0] = %#x, want the ADTS sync byte 0xff", dest[0])
	}
	if dest[1]&0x01 == 0 {
		t.Error("expected protection_absent to be forced to 1 in the output header")
	}
	if dest[3] != 0x80 {
		t.Errorf("dest[3] = %#x, want 0x80 (channel_configuration=2)", dest[3])
	}
}

func TestTransmuxMonoToStereoRejectsNonMonoInput(t *testing.T) {
	var ws Workspace
	dest, ok := ws.TransmuxMonoToStereo(minimalDualMonoFrame)
	if ok {
		t.Error("expected ok=false feeding a channel_configuration=0 frame")
	}
	if len(dest) != 0 {
		t.Errorf("dest = %v, want empty output on rejection", dest)
	}
}

func TestTransmuxMonoToStereoResyncsPastLeadingGarbage(t *testing.T) {
	garbage := []byte{0x12, 0x34, 0x56}
	payload := append(append([]byte{}, garbage...), minimalMonoFrame...)

	var ws Workspace
	dest, ok := ws.TransmuxMonoToStereo(payload)
	if !ok {
		t.Fatal("expected the workspace to resync past the leading garbage")
	}
	if len(dest) < 7 || dest[0] != 0xff {
		t.Errorf("dest = %v, want a valid ADTS frame after resync", dest)
	}
}

func TestTransmuxDualMonoSplitsIntoTwoMonoStreams(t *testing.T) {
	var ws Workspace
	left, right, ok := ws.TransmuxDualMono(minimalDualMonoFrame, false, false)
	if !ok {
		t.Fatal("expected ok=true for a well-formed dual-mono frame")
	}
	if len(left) < 7 || left[0] != 0xff {
		t.Fatalf("left = %v, want a valid ADTS frame", left)
	}
	if len(right) < 7 || right[0] != 0xff {
		t.Fatalf("right = %v, want a valid ADTS frame", right)
	}
	if left[3] != 0x40 {
		t.Errorf("left[3] = %#x, want 0x40 (channel_configuration=1, no upmix)", left[3])
	}
	if right[3] != 0x40 {
		t.Errorf("right[3] = %#x, want 0x40 (channel_configuration=1, no upmix)", right[3])
	}
}

func TestTransmuxDualMonoUpmixesLeftWhenRequested(t *testing.T) {
	var ws Workspace
	left, _, ok := ws.TransmuxDualMono(minimalDualMonoFrame, true, false)
	if !ok {
		t.Fatal("expected ok=true for a well-formed dual-mono frame")
	}
	if left[3] != 0x80 {
		t.Errorf("left[3] = %#x, want 0x80 (channel_configuration=2, upmixed)", left[3])
	}
}

func TestTransmuxDualMonoRejectsMonoInput(t *testing.T) {
	var ws Workspace
	left, right, ok := ws.TransmuxDualMono(minimalMonoFrame, false, false)
	if ok {
		t.Error("expected ok=false feeding a channel_configuration=1 frame")
	}
	if len(left) != 0 || len(right) != 0 {
		t.Errorf("left=%v right=%v, want empty output on rejection", left, right)
	}
}
