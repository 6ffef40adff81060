/*
NAME
  filter.go

DESCRIPTION
  Filter selects one service (program) out of a transport stream, renumbers
  its elementary PIDs onto a fixed scheme, and re-synthesizes the PAT/PMT
  to describe only that service. Grounded on
  original_source/servicefilter.cpp/servfilt.hpp's CServiceFilter.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package servicefilter

import (
	"github.com/ts-rewriter/tsrewrite/codec/aac"
	"github.com/ts-rewriter/tsrewrite/container/mts"
	"github.com/ts-rewriter/tsrewrite/container/mts/pes"
	"github.com/ts-rewriter/tsrewrite/container/mts/psi"
)

// AudioMode controls how an audio elementary stream is treated.
type AudioMode int

const (
	// AudioPassthrough rewrites PID/continuity-counter only.
	AudioPassthrough AudioMode = iota
	// AudioSynthesize advertises the PID in the PMT and, if the source
	// never carries one, synthesizes 64ms silent stereo AAC frames on it.
	AudioSynthesize
	// AudioRemove drops the stream from the output PMT entirely.
	AudioRemove
	// AudioDualMonoSplit on Audio1Mode splits a dual-mono ADTS stream and
	// emits its left channel on audio1; AudioDualMonoSplit on Audio2Mode as
	// well asks for the split's right channel to appear on audio2.
	AudioDualMonoSplit
	// AudioMonoToStereo upmixes a single-channel ADTS stream into stereo.
	AudioMonoToStereo
)

// ComponentMode controls caption/superimpose ES presence in the output PMT.
type ComponentMode int

const (
	ComponentPassthrough ComponentMode = iota
	ComponentSynthesize
	ComponentRemove
)

const (
	pidVideo       = 0x0100
	pidAudio1      = 0x0110
	pidAudio2      = 0x0111
	pidCaption     = 0x0130
	pidSuperimpose = 0x0138
	pidPCR         = 0x01ff
	pidPMT         = 0x01f0
	pidNIT         = 0x0010

	streamH262  = 0x02
	streamPES   = 0x06
	streamADTS  = 0x0f
	streamAVC   = 0x1b
	streamH265  = 0x24
)

var silentADTS2ch48kHz = [13]byte{
	0xff, 0xf1, 0x4c, 0x80, 0x01, 0xbf, 0xfc, 0x21, 0x10, 0x04, 0x60, 0x8c, 0x1c,
}

// Filter rewrites whole 188-byte TS packets, selecting one service and
// renumbering its elementary PIDs onto a fixed scheme.
type Filter struct {
	ProgramNumberOrIndex int // positive = by number, negative = 1-based index among non-NIT entries, 0 = passthrough.
	Audio1Mode           AudioMode
	Audio2Mode           AudioMode
	CaptionMode          ComponentMode
	SuperimposeMode      ComponentMode

	packets []byte

	pat psi.PAT
	pmt psi.Section

	videoPid, audio1Pid, audio2Pid, captionPid, superimposePid uint16
	pcrPid                                                     uint16
	pcr                                                        int64

	patCounter, pmtCounter             byte
	audio1PesCounter, audio2PesCounter byte
	audio1PesCounterBase               int
	audio2PesCounterBase               int
	audio1Pts, audio2Pts               int64
	audio1PtsPcrDiff, audio2PtsPcrDiff int64

	audio1Acc, audio2Acc           pes.Accumulator
	audio1Workspace, audio2Workspace aac.Workspace
	audio1OutCounter, audio2OutCounter byte

	buf      []byte
	lastPat  []byte
	lastPmt  []byte
}

// New returns a Filter with its audio PTS-diff tracking initialized per
// CServiceFilter's constructor.
func New() *Filter {
	return &Filter{
		pcr:                   -1,
		audio1PesCounterBase:  -2,
		audio2PesCounterBase:  -2,
		audio1Pts:             -1,
		audio2Pts:             -1,
		audio2PtsPcrDiff:      -1,
	}
}

// Packets returns the TS packets produced so far.
func (f *Filter) Packets() []byte { return f.packets }

// ClearPackets discards the packets returned by Packets so far.
func (f *Filter) ClearPackets() { f.packets = f.packets[:0] }

// AddPacket feeds one whole 188-byte TS packet, mirroring
// CServiceFilter::AddPacket.
func (f *Filter) AddPacket(pkt []byte) {
	if f.ProgramNumberOrIndex == 0 {
		f.packets = append(f.packets, pkt...)
		return
	}

	unitStart := mts.UnitStart(pkt)
	pid := mts.HeaderPID(pkt)
	adaptation := mts.AdaptationFieldControl(pkt)
	counter := mts.ContinuityCounter(pkt)
	payload := mts.HeaderPayload(pkt)

	if pid == 0 {
		f.pat.AddPayload(payload, unitStart, counter)
		ref, found := f.findTargetPmtRef()
		if found {
			if unitStart {
				_, hasNit := f.findNitRef()
				f.addPat(f.pat.TransportStreamID, ref.ProgramNumber, hasNit)
			}
		} else {
			f.videoPid, f.audio1Pid, f.audio2Pid = 0, 0, 0
			f.captionPid, f.superimposePid = 0, 0
			f.pcrPid, f.pcr = 0, -1
		}
		return
	}

	ref, found := f.findTargetPmtRef()
	if !found {
		return
	}

	if pid == ref.PID {
		rest, start := payload, unitStart
		for {
			done, r := f.pmt.Reassemble(rest, start, counter)
			if f.pmt.Valid() && f.pmt.TableID == 2 && f.pmt.CurrentNext {
				f.addPmt(f.pmt.Bytes())
			}
			if done {
				break
			}
			rest, start = r, true
		}
	}

	if pid == f.pcrPid && f.pcrPid != 0 && adaptation&2 != 0 {
		if len(pkt) >= 6 && pkt[4] >= 6 && pkt[5]&0x10 != 0 {
			if pid != f.videoPid && pid != f.audio1Pid && pid != f.audio2Pid &&
				pid != f.captionPid && pid != f.superimposePid {
				f.addPcrAdaptation(pkt[6:])
			}
			f.pcr = (int64(pkt[10]) >> 7) |
				(int64(pkt[9]) << 1) |
				(int64(pkt[8]) << 9) |
				(int64(pkt[7]) << 17) |
				(int64(pkt[6]) << 25)
			if f.Audio1Mode == AudioSynthesize && f.audio1Pid == 0 {
				f.audio1PesCounterBase = -1
				f.addAudioPesPackets(0, (f.pcr+f.audio1PtsPcrDiff)&0x1ffffffff, &f.audio1Pts, &f.audio1PesCounter)
			}
			if f.Audio2Mode == AudioSynthesize && f.audio2Pid == 0 {
				if f.audio2PtsPcrDiff < 0 {
					f.audio2PtsPcrDiff = f.audio1PtsPcrDiff
				}
				f.audio2PesCounterBase = -1
				f.addAudioPesPackets(1, (f.pcr+f.audio2PtsPcrDiff)&0x1ffffffff, &f.audio2Pts, &f.audio2PesCounter)
			}
		}
	}

	switch {
	case pid == f.videoPid && f.videoPid != 0:
		f.changePidAndAddPacket(pkt, pidVideo, 0xff)

	case pid == f.audio1Pid && f.audio1Pid != 0:
		f.handleAudio(0, pkt, unitStart, counter, payload)

	case pid == f.audio2Pid && f.audio2Pid != 0:
		f.handleAudio(1, pkt, unitStart, counter, payload)

	case pid == f.captionPid && f.captionPid != 0:
		f.changePidAndAddPacket(pkt, pidCaption, 0xff)

	case pid == f.superimposePid && f.superimposePid != 0:
		f.changePidAndAddPacket(pkt, pidSuperimpose, 0xff)

	case pid < 0x0030:
		f.packets = append(f.packets, pkt...)

	default:
		if nit, ok := f.findNitRef(); ok && pid == nit.PID {
			// NIT PID should be 0x0010; this case is unusual.
			f.changePidAndAddPacket(pkt, pidNIT, 0xff)
		}
	}
}

func (f *Filter) findNitRef() (psi.PMTRef, bool) {
	for _, r := range f.pat.Refs {
		if r.ProgramNumber == 0 {
			return r, true
		}
	}
	return psi.PMTRef{}, false
}

func (f *Filter) findTargetPmtRef() (psi.PMTRef, bool) {
	if f.ProgramNumberOrIndex < 0 {
		index := -f.ProgramNumberOrIndex
		for _, r := range f.pat.Refs {
			if r.ProgramNumber != 0 {
				index--
				if index == 0 {
					return r, true
				}
			}
		}
		return psi.PMTRef{}, false
	}
	for _, r := range f.pat.Refs {
		if r.ProgramNumber == f.ProgramNumberOrIndex {
			return r, true
		}
	}
	return psi.PMTRef{}, false
}

// handleAudio dispatches one audio1 (index 0) or audio2 (index 1) packet:
// passthrough with PID/CC rewrite for AudioPassthrough/AudioSynthesize/
// AudioRemove, or PES-reassemble-and-transmux for AudioDualMonoSplit/
// AudioMonoToStereo.
func (f *Filter) handleAudio(index int, pkt []byte, unitStart bool, counter byte, payload []byte) {
	mode := f.Audio1Mode
	if index == 1 {
		mode = f.Audio2Mode
	}

	if mode == AudioDualMonoSplit || mode == AudioMonoToStereo {
		f.transmuxAudio(index, pkt, unitStart, counter)
		return
	}

	pts := getAudioPTS(unitStart, payload)
	outPid := uint16(pidAudio1)
	pesCounter := &f.audio1PesCounter
	counterBase := &f.audio1PesCounterBase
	ptsPcrDiff := &f.audio1PtsPcrDiff
	if index == 1 {
		outPid = pidAudio2
		pesCounter = &f.audio2PesCounter
		counterBase = &f.audio2PesCounterBase
		ptsPcrDiff = &f.audio2PtsPcrDiff
	}
	if pts >= 0 && f.pcr >= 0 {
		*ptsPcrDiff = 0x200000000 + pts - f.pcr
	}
	if *counterBase < 0 {
		if *counterBase < -1 {
			*counterBase = 0
		} else {
			*counterBase = (0x10 + int(*pesCounter) + 1 - int(counter)) & 0x0f
		}
	}
	*pesCounter = byte((*counterBase + int(counter)) & 0x0f)
	f.changePidAndAddPacket(pkt, outPid, *pesCounter)
}

// transmuxAudio reassembles one PID's PES, runs the requested AAC
// transmux, and re-emits the result as fresh PES on the audio1/audio2
// output PIDs, only the integration point SPEC_FULL.md adds beyond
// servicefilter.cpp (which never calls into an AAC transmuxer).
func (f *Filter) transmuxAudio(index int, pkt []byte, unitStart bool, counter byte) {
	acc := &f.audio1Acc
	if index == 1 {
		acc = &f.audio2Acc
	}
	if unitStart {
		acc.Reset()
	}
	if !acc.AddPacket(pkt, unitStart, counter) {
		return
	}
	pesBytes := acc.Payload()
	acc.Reset()
	if len(pesBytes) < 9 || pesBytes[0] != 0 || pesBytes[1] != 0 || pesBytes[2] != 1 {
		return
	}
	ptsDtsFlags := pesBytes[7] >> 6
	headerLen := int(pesBytes[8])
	esPos := 9 + headerLen
	if esPos > len(pesBytes) {
		return
	}
	pts := int64(-1)
	if ptsDtsFlags >= 2 && len(pesBytes) >= 14 {
		pts = int64(pesBytes[13]>>1) |
			int64(pesBytes[12])<<7 |
			int64(pesBytes[11]&0xfe)<<14 |
			int64(pesBytes[10])<<22 |
			int64(pesBytes[9]&0x0e)<<29
	}
	es := pesBytes[esPos:]

	mode := f.Audio1Mode
	if index == 1 {
		mode = f.Audio2Mode
	}
	ws := &f.audio1Workspace
	if index == 1 {
		ws = &f.audio2Workspace
	}

	switch mode {
	case AudioDualMonoSplit:
		mirror := index == 0 && f.Audio2Mode == AudioDualMonoSplit
		left, right, ok := ws.TransmuxDualMono(es, false, false)
		if !ok {
			return
		}
		if len(left) > 0 {
			f.emitAudioPES(pidAudio1, &f.audio1OutCounter, left, pts, 0xc0)
		}
		if mirror && len(right) > 0 {
			f.emitAudioPES(pidAudio2, &f.audio2OutCounter, right, pts, 0xc1)
		}
	case AudioMonoToStereo:
		dest, ok := ws.TransmuxMonoToStereo(es)
		if !ok {
			return
		}
		outPid := uint16(pidAudio1)
		outCounter := &f.audio1OutCounter
		sid := byte(0xc0)
		if index == 1 {
			outPid = pidAudio2
			outCounter = &f.audio2OutCounter
			sid = 0xc1
		}
		if len(dest) > 0 {
			f.emitAudioPES(outPid, outCounter, dest, pts, sid)
		}
	}
}

// getAudioPTS mirrors GetAudioPresentationTimeStamp.
func getAudioPTS(unitStart bool, payload []byte) int64 {
	if !unitStart || len(payload) < 6 || payload[0] != 0 || payload[1] != 0 || payload[2] != 1 {
		return -1
	}
	streamID := payload[3]
	pesPacketLength := int(payload[4])<<8 | int(payload[5])
	if streamID&0xe0 != 0xc0 || pesPacketLength < 3 || len(payload) < 9 {
		return -1
	}
	ptsDtsFlags := payload[7] >> 6
	if ptsDtsFlags >= 2 && pesPacketLength >= 8 && len(payload) >= 14 {
		return int64(payload[13]>>1) |
			int64(payload[12])<<7 |
			int64(payload[11]&0xfe)<<14 |
			int64(payload[10])<<22 |
			int64(payload[9]&0x0e)<<29
	}
	return -1
}
