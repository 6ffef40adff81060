/*
NAME
  id3.go

DESCRIPTION
  Converter rewrites ARIB caption/superimpose elementary streams out of a
  TS packet stream and re-emits their content as ID3v2.4 PRIV-framed PES
  on a synthesized metadata PID, grounded on original_source/id3conv.cpp's
  CID3Converter (AddPacket, AddPmt, CheckPrivateDataPes).

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package arib

import (
	"github.com/ts-rewriter/tsrewrite/container/mts"
	"github.com/ts-rewriter/tsrewrite/container/mts/pes"
	"github.com/ts-rewriter/tsrewrite/container/mts/psi"
)

// ConverterOptions toggles CID3Converter::SetOption's flag bits.
type ConverterOptions struct {
	// Enabled gates the whole converter; when false, AddPacket is a pure
	// passthrough and no PMT rewriting or ID3 synthesis occurs.
	Enabled bool
	// TreatUnknownAsSuperimpose routes component_tag=0xff private-data
	// streams to the superimpose slot instead of leaving them untouched.
	TreatUnknownAsSuperimpose bool
	// InsertInappropriate5Bytes pads 5 extra zero bytes into the ID3 PES
	// payload between the PES header and the "ID3" tag. This is a
	// documented escape hatch for exercising malformed-input handling in
	// downstream consumers; it is off by default and never produces a
	// standards-conformant PES when enabled.
	InsertInappropriate5Bytes bool
	// ForceMonotonousPTS clamps a new ID3 PES's PTS forward to the previous
	// one when it would otherwise regress by less than 10s (mod 2^33).
	ForceMonotonousPTS bool
}

// Converter consumes whole 188-byte TS packets and produces a rewritten
// packet stream in which the caption/superimpose elementary PIDs are
// removed from the PMT and replaced by a synthesized ID3 Timed Metadata
// PID carrying the same payloads PRIV-framed per spec §4.7.
type Converter struct {
	opts ConverterOptions

	packets []byte

	pat         psi.PAT
	firstPmtPid uint16
	firstPmt    psi.Section

	removePidSet   map[uint16]bool
	captionPid     uint16
	superimposePid uint16
	captionAcc     pes.Accumulator
	superimposeAcc pes.Accumulator

	pcrPid  uint16
	pcr     int64
	havePcr bool

	id3Pid     uint16
	id3Counter byte
	pmtCounter byte
	lastID3Pts int64

	buf []byte // scratch, reused across AddPmt/CheckPrivateDataPes calls.
}

// NewConverter returns a Converter with the given options.
func NewConverter(opts ConverterOptions) *Converter {
	return &Converter{opts: opts, pcr: -1, lastID3Pts: -1, removePidSet: make(map[uint16]bool)}
}

// Packets returns the TS packets produced so far.
func (c *Converter) Packets() []byte { return c.packets }

// ClearPackets discards the packets returned by Packets so far.
func (c *Converter) ClearPackets() { c.packets = c.packets[:0] }

// AddPacket feeds one whole 188-byte TS packet, mirroring
// CID3Converter::AddPacket.
func (c *Converter) AddPacket(pkt []byte) {
	if !c.opts.Enabled {
		c.packets = append(c.packets, pkt...)
		return
	}

	pid := mts.HeaderPID(pkt)
	unitStart := mts.UnitStart(pkt)
	cc := mts.ContinuityCounter(pkt)
	payload := mts.HeaderPayload(pkt)

	switch {
	case pid == 0:
		c.pat.AddPayload(payload, unitStart, cc)
		found := uint16(0)
		for _, ref := range c.pat.Refs {
			if ref.ProgramNumber != 0 {
				found = ref.PID
				break
			}
		}
		if c.firstPmtPid != 0 && found != c.firstPmtPid {
			c.firstPmtPid = 0
			c.firstPmt = psi.Section{}
		}
		if found != 0 {
			c.firstPmtPid = found
		}
		c.packets = append(c.packets, pkt...)

	case pid == c.firstPmtPid && c.firstPmtPid != 0:
		rest, start := payload, unitStart
		for {
			done, r := c.firstPmt.Reassemble(rest, start, cc)
			if c.firstPmt.Valid() && c.firstPmt.TableID == 2 {
				c.addPmt(pid, c.firstPmt.Bytes())
			}
			if done {
				break
			}
			rest, start = r, true
		}

	case pid == c.pcrPid && c.pcrPid != 0:
		if mts.HasPCR(pkt) {
			c.pcr = int64(mts.ExtractPCR(pkt))
			c.havePcr = true
		}
		c.packets = append(c.packets, pkt...)

	case c.removePidSet[pid] && (pid == c.captionPid || pid == c.superimposePid):
		acc := &c.captionAcc
		if pid == c.superimposePid {
			acc = &c.superimposeAcc
		}
		if unitStart {
			acc.Reset()
		}
		if acc.AddPacket(pkt, unitStart, cc) {
			c.checkPrivateDataPes(acc.Payload())
			acc.Reset()
		}

	default:
		c.packets = append(c.packets, pkt...)
	}
}

// addPmt mirrors AddPmt: reclassifies the ES loop, drops caption/
// superimpose ES entries, tracks the PCR PID, and appends a rewritten PMT
// (with the ID3 Timed Metadata descriptors added) to c.packets.
func (c *Converter) addPmt(pid uint16, table []byte) {
	const pesPrivateData = 0x06

	sectionLength := int(table[1]&0x03)<<8 | int(table[2])
	if sectionLength < 9 {
		return
	}
	serviceID := int(table[3])<<8 | int(table[4])
	c.pcrPid = uint16(table[8]&0x1f)<<8 | uint16(table[9])
	if c.pcrPid == 0x1fff {
		c.havePcr = false
		c.pcr = -1
	}
	programInfoLength := int(table[10]&0x03)<<8 | int(table[11])
	pos := 3 + 9 + programInfoLength
	if sectionLength < pos {
		return
	}

	c.buf = c.buf[:0]
	c.buf = append(c.buf, 0) // pointer field
	c.buf = append(c.buf, table[:pos]...)

	var captionPids, superimposePids [2]uint16
	minRemovePid := uint16(0x2000)
	c.removePidSet = make(map[uint16]bool)
	tableLen := 3 + sectionLength - 4
	for pos+4 < tableLen {
		streamType := int(table[pos])
		esPid := uint16(table[pos+1]&0x1f)<<8 | uint16(table[pos+2])
		esInfoLength := int(table[pos+3]&0x03)<<8 | int(table[pos+4])
		if pos+5+esInfoLength <= tableLen {
			componentTag := 0xff
			for i := pos + 5; i+2 < pos+5+esInfoLength; i += 2 + int(table[i+1]) {
				if table[i] == streamIdentifierDescTag {
					componentTag = int(table[i+2])
					break
				}
			}
			isCaption := componentTag == 0x30 || componentTag == 0x87
			isSuperimpose := componentTag == 0x38 || componentTag == 0x88
			isUnknown := componentTag == 0xff && c.opts.TreatUnknownAsSuperimpose
			if streamType == pesPrivateData && (isCaption || isSuperimpose || isUnknown) {
				switch {
				case componentTag == 0x30:
					captionPids[0] = esPid
				case componentTag == 0x87:
					captionPids[1] = esPid
				case componentTag == 0x38:
					superimposePids[0] = esPid
				default:
					superimposePids[1] = esPid
				}
				c.removePidSet[esPid] = true
				if esPid < minRemovePid {
					minRemovePid = esPid
				}
			} else {
				c.buf = append(c.buf, table[pos:pos+5+esInfoLength]...)
				if c.id3Pid == esPid {
					c.id3Pid = 0 // reassign PID, rare case.
				}
			}
		}
		pos += 5 + esInfoLength
	}

	newCaption := firstNonzero(captionPids)
	if c.captionPid != newCaption {
		c.captionPid = newCaption
		c.captionAcc.Reset()
	}
	newSuperimpose := firstNonzero(superimposePids)
	if c.superimposePid != newSuperimpose {
		c.superimposePid = newSuperimpose
		c.superimposeAcc.Reset()
	}

	if c.id3Pid == 0 && minRemovePid < 0x2000 {
		c.id3Pid = minRemovePid
	}
	if c.id3Pid != 0 {
		metadataPointerDesc := []byte{
			0x26, 15, 0xff, 0xff, 'I', 'D', '3', ' ', 0xff, 'I', 'D', '3', ' ', 0x00, 0x1f,
			byte(serviceID >> 8), byte(serviceID),
		}
		metadataDesc := []byte{
			0x26, 13, 0xff, 0xff, 'I', 'D', '3', ' ', 0xff, 'I', 'D', '3', ' ', 0xff, 0x0f,
		}
		programInfoLength += len(metadataPointerDesc)
		if programInfoLength <= 1023 {
			c.buf[11] = (c.buf[11] &^ 0x03) | byte(programInfoLength>>8)&0x03
			c.buf[12] = byte(programInfoLength)
			tail := append([]byte{}, c.buf[13:]...)
			c.buf = append(c.buf[:13], metadataPointerDesc...)
			c.buf = append(c.buf, tail...)
		}
		c.buf = append(c.buf, 0x15, byte(0xe0|(c.id3Pid>>8)), byte(c.id3Pid), 0xf0, byte(len(metadataDesc)))
		c.buf = append(c.buf, metadataDesc...)
	}

	c.buf = append(c.buf, 0, 0, 0, 0) // CRC, filled in by psi.UpdateCrc below.
	newSectionLen := len(c.buf) - 4   // section_length counts everything after the 3-byte header, CRC included.
	c.buf[2] = (c.buf[2] &^ 0x03) | byte(newSectionLen>>8)&0x03
	c.buf[3] = byte(newSectionLen)
	psi.UpdateCrc(c.buf[1:])

	c.emitSection(pid, &c.pmtCounter)
}

func firstNonzero(pids [2]uint16) uint16 {
	if pids[0] != 0 {
		return pids[0]
	}
	return pids[1]
}

// emitSection packetizes c.buf (pointer field + section + CRC) as 188-byte
// TS packets on pid into c.packets, mirroring AddPmt's packetizing loop:
// every 184-byte chunk gets its own packet, the last stuffed out to 188
// bytes with 0xff filler.
func (c *Converter) emitSection(pid uint16, counter *byte) {
	for i := 0; i < len(c.buf); i += 184 {
		end := i + 184
		if end > len(c.buf) {
			end = len(c.buf)
		}
		*counter = (*counter + 1) & 0x0f
		pkt := make([]byte, 4, 188)
		pkt[0] = mts.SyncByte
		unitStartBit := byte(0)
		if i == 0 {
			unitStartBit = 0x40
		}
		pkt[1] = unitStartBit | byte((pid>>8)&0x1f)
		pkt[2] = byte(pid)
		pkt[3] = 0x10 | *counter
		pkt = append(pkt, c.buf[i:end]...)
		for len(pkt) < 188 {
			pkt = append(pkt, 0xff)
		}
		c.packets = append(c.packets, pkt...)
	}
}

// checkPrivateDataPes mirrors CheckPrivateDataPes: validates the PES
// header, extracts PTS, validates data_identifier/private_stream_id, and
// emits an ID3 PRIV-framed PES for the payload.
func (c *Converter) checkPrivateDataPes(pesBytes []byte) {
	if len(pesBytes) < 4 || pesBytes[0] != 0 || pesBytes[1] != 0 || pesBytes[2] != 1 {
		return
	}
	streamID := pesBytes[3]
	var payloadPos int
	pts := int64(-1)
	switch {
	case streamID == privateStream1 && len(pesBytes) >= 9:
		ptsDtsFlags := pesBytes[7] >> 6
		payloadPos = 9 + int(pesBytes[8])
		if ptsDtsFlags >= 2 && len(pesBytes) >= 14 {
			pts = int64(pesBytes[13]>>1) |
				int64(pesBytes[12])<<7 |
				int64(pesBytes[11]&0xfe)<<14 |
				int64(pesBytes[10])<<22 |
				int64(pesBytes[9]&0x0e)<<29
		}
	case streamID == privateStream2:
		payloadPos = 6
		if c.havePcr {
			pts = c.pcr
		}
	}
	if payloadPos == 0 || payloadPos+1 >= len(pesBytes) || pts < 0 {
		return
	}
	dataIdentifier := pesBytes[payloadPos]
	privateStreamID := pesBytes[payloadPos+1]
	if (dataIdentifier != 0x80 && dataIdentifier != 0x81) || privateStreamID != 0xff {
		return
	}

	if c.opts.ForceMonotonousPTS {
		if c.lastID3Pts >= 0 && (0x200000000+c.lastID3Pts-pts)&0x1ffffffff < 90000*10 {
			pts = c.lastID3Pts
		}
		c.lastID3Pts = pts
	}

	c.buf = c.buf[:0]
	c.buf = append(c.buf, 0x00, 0x00, 0x01, privateStream1)
	c.buf = append(c.buf, 0, 0) // PES_packet_length, patched below.
	c.buf = append(c.buf, 0x80, 0x80, 5)
	c.buf = append(c.buf,
		byte(pts>>29)|0x21,
		byte(pts>>22),
		byte(pts>>14)|1,
		byte(pts>>7),
		byte(pts<<1)|1,
	)
	if c.opts.InsertInappropriate5Bytes {
		c.buf = append(c.buf, 0, 0, 0, 0, 0)
	}
	c.buf = append(c.buf, 'I', 'D', '3', 4, 0, 0x00)
	c.buf = append(c.buf, 0, 0, 0, 0) // ID3v2 tag size, patched below.
	id3FrameStart := len(c.buf)
	c.buf = append(c.buf, 'P', 'R', 'I', 'V')
	c.buf = append(c.buf, 0, 0, 0, 0) // PRIV frame size, patched below.
	c.buf = append(c.buf, 0, 0)       // frame flags.
	privPayloadStart := len(c.buf)
	c.buf = append(c.buf, []byte("arib-b24.js")...)
	c.buf = append(c.buf, 0)
	c.buf = append(c.buf, pesBytes[payloadPos:]...)

	privLen := len(c.buf) - privPayloadStart
	putSyncsafe32(c.buf[privPayloadStart-6:], privLen)
	id3Len := len(c.buf) - id3FrameStart
	putSyncsafe32(c.buf[id3FrameStart-4:], id3Len)
	pesLen := len(c.buf) - 6
	c.buf[4] = byte(pesLen >> 8)
	c.buf[5] = byte(pesLen)

	c.emitID3Packets()
}

// putSyncsafe32 writes v as four 7-bit big-endian bytes into dst[:4].
func putSyncsafe32(dst []byte, v int) {
	dst[0] = byte((v >> 21) & 0x7f)
	dst[1] = byte((v >> 14) & 0x7f)
	dst[2] = byte((v >> 7) & 0x7f)
	dst[3] = byte(v & 0x7f)
}

// emitID3Packets packetizes c.buf (a whole ID3-framed PES) as 188-byte TS
// packets on c.id3Pid, stuffing the final packet with an adaptation-field
// stuffing run (not trailing 0xff filler bytes, since a PES payload must
// not be followed by raw filler within its own packet) per spec §4.7.
func (c *Converter) emitID3Packets() {
	for i := 0; i < len(c.buf); i += 184 {
		end := i + 184
		if end > len(c.buf) {
			end = len(c.buf)
		}
		n := end - i
		c.id3Counter = (c.id3Counter + 1) & 0x0f
		pkt := make([]byte, 4, 188)
		pkt[0] = mts.SyncByte
		unitStartBit := byte(0)
		if i == 0 {
			unitStartBit = 0x40
		}
		pkt[1] = unitStartBit | byte((c.id3Pid>>8)&0x1f)
		pkt[2] = byte(c.id3Pid)
		if n < 184 {
			pkt[3] = 0x30 | c.id3Counter
			stuffLen := 183 - n
			pkt = append(pkt, byte(stuffLen))
			if stuffLen > 0 {
				pkt = append(pkt, 0x00)
				for j := 0; j < stuffLen-1; j++ {
					pkt = append(pkt, 0xff)
				}
			}
		} else {
			pkt[3] = 0x10 | c.id3Counter
		}
		pkt = append(pkt, c.buf[i:end]...)
		c.packets = append(c.packets, pkt...)
	}
}
