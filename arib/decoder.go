/*
NAME
  decoder.go

DESCRIPTION
  CaptionDecoder walks a TS packet stream, tracks the PAT and the first
  program's PMT to locate the PCR, caption (component tag 0x30) and
  superimpose (component tag 0x38) elementary PIDs, reassembles their PES
  packets, and decodes each into a trace line written to an io.Writer.
  Grounded on original_source/traceb24.cpp's CTraceB24Caption (AddPacket,
  CheckPmt, OutputPrivateDataPes).

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package arib

import (
	"fmt"
	"io"

	"github.com/ts-rewriter/tsrewrite/container/mts"
	"github.com/ts-rewriter/tsrewrite/container/mts/pes"
	"github.com/ts-rewriter/tsrewrite/container/mts/psi"
)

const (
	streamIdentifierDescTag = 0x52
	pesPrivateDataStreamTyp = 0x06
	captionComponentTag     = 0x30
	superimposeComponentTag = 0x38
	privateStream1          = 0xbd
	privateStream2          = 0xbf
)

// pidStream bundles the per-PID state CheckPmt resets when a PID changes.
type pidStream struct {
	pid      uint16
	acc      pes.Accumulator
	drcsList []uint16
	langTags [8]LangTag
}

// CaptionDecoder is the ARIB-8 trace-path decoder: feed it whole 188-byte
// TS packets via AddPacket, and it writes one trace line per decoded
// caption/superimpose PES to Out.
type CaptionDecoder struct {
	Out io.Writer

	pat         psi.PAT
	firstPmtPid uint16
	firstPmt    psi.Section

	pcrPid  uint16
	pcr     int64
	havePcr bool

	caption     pidStream
	superimpose pidStream
}

// NewCaptionDecoder returns a decoder writing trace lines to out.
func NewCaptionDecoder(out io.Writer) *CaptionDecoder {
	return &CaptionDecoder{Out: out, pcr: -1}
}

// AddPacket feeds one whole 188-byte TS packet, mirroring
// CTraceB24Caption::AddPacket.
func (d *CaptionDecoder) AddPacket(pkt []byte) {
	pid := mts.HeaderPID(pkt)
	unitStart := mts.UnitStart(pkt)
	cc := mts.ContinuityCounter(pkt)
	payload := mts.HeaderPayload(pkt)

	switch {
	case pid == 0:
		d.pat.AddPayload(payload, unitStart, cc)
		found := uint16(0)
		for _, ref := range d.pat.Refs {
			if ref.ProgramNumber != 0 {
				found = ref.PID
				break
			}
		}
		if d.firstPmtPid != 0 && found != d.firstPmtPid {
			d.firstPmtPid = 0
			d.firstPmt = psi.Section{}
		}
		if found != 0 {
			d.firstPmtPid = found
		}

	case pid == d.firstPmtPid && d.firstPmtPid != 0:
		rest, start := payload, unitStart
		for {
			done, r := d.firstPmt.Reassemble(rest, start, cc)
			if d.firstPmt.Valid() && d.firstPmt.TableID == 2 {
				d.checkPmt(d.firstPmt.Bytes())
			}
			if done {
				break
			}
			rest, start = r, true
		}

	case pid == d.pcrPid && d.pcrPid != 0:
		if mts.HasPCR(pkt) {
			first := !d.havePcr
			d.havePcr = true
			d.pcr = int64(mts.ExtractPCR(pkt))
			if first {
				fmt.Fprintf(d.Out, "pcrpid=0x%04X;pcr=%010d\n", d.pcrPid, d.pcr)
			}
		}

	case pid == d.caption.pid && d.caption.pid != 0:
		d.addToStream(&d.caption, pkt, unitStart, cc)

	case pid == d.superimpose.pid && d.superimpose.pid != 0:
		d.addToStream(&d.superimpose, pkt, unitStart, cc)
	}
}

// checkPmt mirrors CheckPmt: extracts the PCR PID and caption/superimpose
// elementary PIDs from a freshly validated PMT section.
func (d *CaptionDecoder) checkPmt(table []byte) {
	const sectionLenIdxHi, sectionLenIdxLo = 1, 2
	sectionLength := int(table[sectionLenIdxHi]&0x03)<<8 | int(table[sectionLenIdxLo])
	if sectionLength < 9 {
		return
	}
	d.pcrPid = uint16(table[8]&0x1f)<<8 | uint16(table[9])
	if d.pcrPid == 0x1fff {
		d.havePcr = false
		d.pcr = -1
	}
	programInfoLength := int(table[10]&0x03)<<8 | int(table[11])
	pos := 3 + 9 + programInfoLength
	if sectionLength < pos {
		return
	}

	var captionPid, superimposePid uint16
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
			if streamType == pesPrivateDataStreamTyp &&
				(componentTag == captionComponentTag || componentTag == superimposeComponentTag) {
				if componentTag == captionComponentTag {
					captionPid = esPid
				} else {
					superimposePid = esPid
				}
			}
		}
		pos += 5 + esInfoLength
	}

	if d.caption.pid != captionPid {
		d.caption = pidStream{pid: captionPid}
	}
	if d.superimpose.pid != superimposePid {
		d.superimpose = pidStream{pid: superimposePid}
	}
}

// addToStream accumulates one TS packet into the caption/superimpose PES
// reassembler and, once complete, decodes and traces it.
func (d *CaptionDecoder) addToStream(s *pidStream, pkt []byte, unitStart bool, cc byte) {
	if unitStart {
		s.acc.Reset()
	}
	if s.acc.AddPacket(pkt, unitStart, cc) {
		d.outputPrivateDataPes(s.acc.Payload(), s)
		s.acc.Reset()
	}
}

// outputPrivateDataPes mirrors OutputPrivateDataPes: validates the PES
// header, extracts PTS (or falls back to the current PCR for
// PRIVATE_STREAM_2), validates the ARIB data_identifier/private_stream_id
// pair, and writes one trace line. Whether the line is tagged "caption" or
// "superimpose" is decided by data_identifier (0x81 = superimpose), not by
// which of the two PIDs it arrived on, matching OutputPrivateDataPes.
func (d *CaptionDecoder) outputPrivateDataPes(pesBytes []byte, s *pidStream) {
	if len(pesBytes) < 9 || pesBytes[0] != 0 || pesBytes[1] != 0 || pesBytes[2] != 1 {
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
		if d.havePcr {
			pts = d.pcr
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

	body, ret := ParsePrivateData(pesBytes[payloadPos:], &s.drcsList, &s.langTags)
	if ret == ParseFailedNeedManagement {
		return
	}
	ptsPcrDiff := (0x200000000 + pts - d.pcr) & 0x1ffffffff
	if ptsPcrDiff >= 0x100000000 {
		ptsPcrDiff -= 0x200000000
	}
	rel := -9999999
	if d.havePcr {
		rel = clampInt(int(ptsPcrDiff), -9999999, 9999999)
	}
	kind := "caption"
	if dataIdentifier == 0x81 {
		kind = "superimpose"
	}
	fmt.Fprintf(d.Out, "pts=%010d;pcrrel=%+08d;b24%s", pts, rel, kind)
	switch ret {
	case ParseSucceeded:
		d.Out.Write(body)
		fmt.Fprint(d.Out, "\n")
	default:
		reason := "unknown"
		switch ret {
		case ParseFailedCRC:
			reason = "crc"
		case ParseFailedUnsupported:
			reason = "unsupported"
		}
		fmt.Fprintf(d.Out, "err=%s\n", reason)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
