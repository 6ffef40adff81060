/*
NAME
  accumulator.go

DESCRIPTION
  Gathers whole TS packets for one PID into a complete PES unit, per
  original_source/util.cpp / servicefilter.cpp's packet-accumulation loop:
  concatenates whole 188-byte packets until the declared
  PES_packet_length is satisfied.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package pes

// MaxUnitSize is the PES reassembly cap (spec: 0x20000 bytes); exceeding it
// means a malformed broadcast, per spec §4.4/§9.
const MaxUnitSize = 0x20000

// Accumulator reassembles whole TS packets of one PID into a complete PES
// unit.
type Accumulator struct {
	packets  []byte // concatenated whole TS packets, not payloads.
	lastCC   byte
	haveCC   bool
	complete bool
}

// Reset clears accumulated state.
func (a *Accumulator) Reset() {
	a.packets = a.packets[:0]
	a.haveCC = false
	a.complete = false
}

// AddPacket feeds one whole 188-byte TS packet. unitStart is the packet's
// payload_unit_start_indicator and cc its continuity_counter. It returns
// complete=true once enough bytes have accumulated to satisfy the PES
// header's PES_packet_length field; Payload then returns the reassembled
// PES bytes (header included) and the caller must call Reset before
// feeding further packets for this PID.
func (a *Accumulator) AddPacket(pkt []byte, unitStart bool, cc byte) (complete bool) {
	if a.complete {
		return true
	}
	if unitStart {
		a.packets = append(a.packets[:0], pkt...)
		a.haveCC = true
		a.lastCC = cc
	} else {
		if len(a.packets) == 0 || len(a.packets) >= MaxUnitSize {
			return false
		}
		expect := (a.lastCC + 1) & 0x0f
		if !a.haveCC || cc != expect {
			a.Reset()
			return false
		}
		a.packets = append(a.packets, pkt...)
		a.lastCC = cc
	}

	payload := a.Payload()
	if len(payload) < 6 {
		return false
	}
	if payload[0] != 0x00 || payload[1] != 0x00 || payload[2] != 0x01 {
		a.Reset()
		return false
	}
	pesLen := int(payload[4])<<8 | int(payload[5])
	if pesLen != 0 && 6+pesLen <= len(payload) {
		a.complete = true
		return true
	}
	return false
}

// Payload returns the TS-header-stripped payload bytes accumulated so far
// for the current PES unit (concatenation of each constituent packet's
// payload, in order).
func (a *Accumulator) Payload() []byte {
	var out []byte
	for i := 0; i+188 <= len(a.packets); i += 188 {
		p := payloadOf(a.packets[i : i+188])
		out = append(out, p...)
	}
	return out
}

// payloadOf extracts a single packet's payload bytes, duplicating
// container/mts.HeaderPayload's logic locally; this package does not
// import container/mts.
func payloadOf(pkt []byte) []byte {
	afc := (pkt[3] & 0x30) >> 4
	if afc == 2 || afc == 0 {
		return nil
	}
	off := 4
	if afc == 3 {
		if len(pkt) <= 4 {
			return nil
		}
		off = 4 + 1 + int(pkt[4])
	}
	if off > len(pkt) {
		return nil
	}
	return pkt[off:]
}
