/*
NAME
  header_test.go

DESCRIPTION
  Tests for the raw-byte TS header accessors, in particular Resync.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package mts

import "testing"

func packetsOf(unitSize int, n int, corruptFirstByte bool) []byte {
	buf := make([]byte, unitSize*n)
	for i := 0; i < n; i++ {
		buf[i*unitSize] = SyncByte
	}
	if corruptFirstByte && n > 0 {
		buf[0] = 0x00
	}
	return buf
}

func TestResyncKnownUnitSize(t *testing.T) {
	data := packetsOf(188, 5, false)
	unitSize := 188
	offset := Resync(data, &unitSize)
	if offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
	if unitSize != 188 {
		t.Errorf("unitSize = %d, want 188", unitSize)
	}
}

func TestResyncFindsOffset(t *testing.T) {
	data := packetsOf(188, 4, false)
	// Shift everything right by 3 junk bytes so the real sync train starts
	// at offset 3.
	shifted := append([]byte{0xaa, 0xbb, 0xcc}, data...)
	unitSize := 0
	offset := Resync(shifted, &unitSize)
	if unitSize != 188 {
		t.Fatalf("unitSize = %d, want 188", unitSize)
	}
	if offset != 3 {
		t.Errorf("offset = %d, want 3", offset)
	}
}

func TestResyncNeedsMoreData(t *testing.T) {
	// No byte equals SyncByte anywhere, so every offset/stride combination
	// fails immediately; too little data to ever find a match.
	data := []byte{0x00, 0x00, 0x00, 0x00}
	unitSize := 0
	offset := Resync(data, &unitSize)
	if offset != len(data) {
		t.Errorf("offset = %d, want %d (need more data)", offset, len(data))
	}
	if unitSize != 0 {
		t.Errorf("unitSize = %d, want 0 on failure", unitSize)
	}
}

func TestResyncShortBufferOptimisticMatch(t *testing.T) {
	// A single visible sync byte with not enough data to step to a second
	// one is accepted optimistically, matching original_source/util.cpp's
	// resync_ts: there is nothing yet to refute it.
	data := []byte{0x47, 0x00, 0x01, 0x10}
	unitSize := 0
	offset := Resync(data, &unitSize)
	if offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
	if unitSize != 188 {
		t.Errorf("unitSize = %d, want 188", unitSize)
	}
}

func TestResyncTriesAllCandidateStrides(t *testing.T) {
	data := packetsOf(204, 6, false)
	unitSize := 0
	offset := Resync(data, &unitSize)
	if unitSize != 204 {
		t.Fatalf("unitSize = %d, want 204", unitSize)
	}
	if offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
}
