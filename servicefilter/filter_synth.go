/*
NAME
  filter_synth.go

DESCRIPTION
  PAT/PMT synthesis, PCR-only packet synthesis, and silent-audio
  synthesis, grounded on original_source/servicefilter.cpp's AddPat,
  AddPmt, AddPcrAdaptation, AddAudioPesPackets, Add64MsecAudioPesPacket.

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

	"github.com/ts-rewriter/tsrewrite/container/mts"
	"github.com/ts-rewriter/tsrewrite/internal/crc"
)

// addPat synthesizes a one-program PAT mapping programNumber to the fixed
// output PMT PID, optionally with an NIT entry, mirroring AddPat.
func (f *Filter) addPat(transportStreamID int, programNumber int, addNit bool) {
	f.buf = f.buf[:0]
	f.buf = append(f.buf, make([]byte, 9)...)
	f.buf[1] = 0x00
	f.buf[2] = 0xb0
	if addNit {
		f.buf[3] = 17
	} else {
		f.buf[3] = 13
	}
	f.buf[4] = byte(transportStreamID >> 8)
	f.buf[5] = byte(transportStreamID)
	if len(f.lastPat) > 6 {
		f.buf[6] = f.lastPat[6]
	} else {
		f.buf[6] = 0xc1
	}
	if addNit {
		f.buf = append(f.buf, 0, 0, 0xe0, byte(pidNIT))
	}
	f.buf = append(f.buf, byte(programNumber>>8), byte(programNumber))
	f.buf = append(f.buf, byte(0xe0|(pidPMT>>8)), byte(pidPMT))

	if len(f.lastPat) == len(f.buf)+4 && bytes.Equal(f.buf, f.lastPat[:len(f.buf)]) {
		f.buf = append(f.buf, f.lastPat[len(f.lastPat)-4:]...)
	} else {
		f.buf[6] = 0xc1 | (((f.buf[6]>>1)+1)&0x1f)<<1
		f.buf = append(f.buf, 0, 0, 0, 0)
		sum := crc.Sum32(f.buf[1 : len(f.buf)-4])
		f.buf[len(f.buf)-4] = byte(sum >> 24)
		f.buf[len(f.buf)-3] = byte(sum >> 16)
		f.buf[len(f.buf)-2] = byte(sum >> 8)
		f.buf[len(f.buf)-1] = byte(sum)
		f.lastPat = append([]byte{}, f.buf...)
	}

	f.patCounter = (f.patCounter + 1) & 0x0f
	pkt := []byte{mts.SyncByte, 0x40, 0x00, 0x10 | f.patCounter}
	pkt = append(pkt, f.buf...)
	for len(pkt)%188 != 0 {
		pkt = append(pkt, 0xff)
	}
	f.packets = append(f.packets, pkt...)
}

// addPmt synthesizes a PMT carrying at most {video, audio1, audio2,
// caption, superimpose} on their fixed output PIDs, copying ES descriptor
// loops from the source and rewriting component tags where absent,
// mirroring AddPmt.
func (f *Filter) addPmt(table []byte) {
	sectionLength := int(table[1]&0x03)<<8 | int(table[2])
	if sectionLength < 9 {
		return
	}
	programNumber := int(table[3])<<8 | int(table[4])
	f.pcrPid = uint16(table[8]&0x03)<<8 | uint16(table[9])
	if f.pcrPid == 0x1fff {
		f.pcr = -1
	}
	programInfoLength := int(table[10]&0x03)<<8 | int(table[11])
	pos := 3 + 9 + programInfoLength
	if sectionLength < pos {
		return
	}

	f.buf = f.buf[:0]
	f.buf = append(f.buf, make([]byte, 13)...)
	f.buf[1] = 0x02
	f.buf[4] = byte(programNumber >> 8)
	f.buf[5] = byte(programNumber)
	if len(f.lastPmt) > 6 {
		f.buf[6] = f.lastPmt[6]
	} else {
		f.buf[6] = 0xc1
	}
	f.buf[9] = byte(0xe0 | (pidPCR >> 8))
	f.buf[10] = byte(pidPCR)
	f.buf[11] = 0xc0 | byte(programInfoLength>>8)
	f.buf[12] = byte(programInfoLength)
	f.buf = append(f.buf, table[12:pos]...)

	lastAudio1Pid, lastAudio2Pid := f.audio1Pid, f.audio2Pid
	f.videoPid, f.audio1Pid, f.audio2Pid = 0, 0, 0
	f.captionPid, f.superimposePid = 0, 0
	var videoDescPos, audio1DescPos, audio2DescPos, captionDescPos, superimposeDescPos int
	maybeCProfile := false
	audio1ComponentTagUnknown := true

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
			switch {
			case streamType == streamH262 || streamType == streamAVC || streamType == streamH265:
				if (f.videoPid == 0 && componentTag == 0xff) || componentTag == 0x00 || componentTag == 0x81 {
					f.videoPid = esPid
					videoDescPos = pos
					maybeCProfile = componentTag == 0x81
				}
			case streamType == streamADTS:
				switch {
				case (f.audio1Pid == 0 && componentTag == 0xff) || componentTag == 0x10 || componentTag == 0x83 || componentTag == 0x85:
					f.audio1Pid = esPid
					audio1DescPos = pos
					audio1ComponentTagUnknown = componentTag == 0xff
				case componentTag == 0x11:
					if f.Audio2Mode != AudioRemove {
						f.audio2Pid = esPid
						audio2DescPos = pos
					}
				}
			case streamType == streamPES:
				switch {
				case componentTag == 0x30 || componentTag == 0x87:
					if f.CaptionMode != ComponentRemove {
						f.captionPid = esPid
						captionDescPos = pos
					}
				case componentTag == 0x38 || componentTag == 0x88:
					if f.SuperimposeMode != ComponentRemove {
						f.superimposePid = esPid
						superimposeDescPos = pos
					}
				}
			}
		}
		pos += 5 + esInfoLength
	}

	if f.audio1Pid != lastAudio1Pid {
		f.audio1Pts = -1
	}
	if f.audio2Pid != lastAudio2Pid {
		f.audio2Pts = -1
	}

	if f.videoPid != 0 {
		f.buf = append(f.buf, table[videoDescPos])
		f.buf = append(f.buf, 0xe1, 0x00)
		esInfoLength := int(table[videoDescPos+3]&0x03)<<8 | int(table[videoDescPos+4])
		f.buf = append(f.buf, table[videoDescPos+3:videoDescPos+5+esInfoLength]...)
		if f.pcrPid == f.videoPid {
			f.buf[9], f.buf[10] = 0xe1, 0x00
		}
	}
	if f.audio1Pid != 0 || f.Audio1Mode == AudioSynthesize {
		f.buf = append(f.buf, streamADTS, 0xe1, 0x10)
		switch {
		case f.audio1Pid != 0:
			esInfoLength := int(table[audio1DescPos+3]&0x03)<<8 | int(table[audio1DescPos+4])
			if audio1ComponentTagUnknown && (f.audio2Pid != 0 || f.Audio2Mode == AudioSynthesize) {
				n := esInfoLength + 3
				tag := byte(0x10)
				if maybeCProfile {
					tag = 0x83
				}
				f.buf = append(f.buf, 0xf0|byte(n>>8), byte(n), 0x52, 1, tag)
			} else {
				f.buf = append(f.buf, 0xf0|byte(esInfoLength>>8), byte(esInfoLength))
			}
			f.buf = append(f.buf, table[audio1DescPos+5:audio1DescPos+5+esInfoLength]...)
			if f.pcrPid == f.audio1Pid {
				f.buf[9], f.buf[10] = 0xe1, 0x10
			}
		default:
			tag := byte(0x10)
			if maybeCProfile {
				tag = 0x83
			}
			f.buf = append(f.buf, 0xf0, 3, 0x52, 1, tag)
		}
	}
	if f.audio2Pid != 0 || f.Audio2Mode == AudioSynthesize {
		f.buf = append(f.buf, streamADTS, 0xe1, 0x11)
		if f.audio2Pid != 0 {
			esInfoLength := int(table[audio2DescPos+3]&0x03)<<8 | int(table[audio2DescPos+4])
			f.buf = append(f.buf, table[audio2DescPos+3:audio2DescPos+5+esInfoLength]...)
			if f.pcrPid == f.audio2Pid {
				f.buf[9], f.buf[10] = 0xe1, 0x11
			}
		} else {
			tag := byte(0x11)
			if maybeCProfile {
				tag = 0x85
			}
			f.buf = append(f.buf, 0xf0, 3, 0x52, 1, tag)
		}
	}
	if f.captionPid != 0 || f.CaptionMode == ComponentSynthesize {
		f.buf = append(f.buf, streamPES, 0xe1, 0x30)
		if f.captionPid != 0 {
			esInfoLength := int(table[captionDescPos+3]&0x03)<<8 | int(table[captionDescPos+4])
			f.buf = append(f.buf, table[captionDescPos+3:captionDescPos+5+esInfoLength]...)
			if f.pcrPid == f.captionPid {
				f.buf[9], f.buf[10] = 0xe1, 0x30
			}
		} else {
			n := 3
			tag := byte(0x30)
			if maybeCProfile {
				tag = 0x87
			} else {
				n += 5
			}
			f.buf = append(f.buf, 0xf0, byte(n), 0x52, 1, tag)
			if !maybeCProfile {
				f.buf = append(f.buf, 0xfd, 3, 0x00, 0x08, 0x3d)
			}
		}
	}
	if f.superimposePid != 0 || f.SuperimposeMode == ComponentSynthesize {
		f.buf = append(f.buf, streamPES, 0xe1, 0x38)
		if f.superimposePid != 0 {
			esInfoLength := int(table[superimposeDescPos+3]&0x03)<<8 | int(table[superimposeDescPos+4])
			f.buf = append(f.buf, table[superimposeDescPos+3:superimposeDescPos+5+esInfoLength]...)
			if f.pcrPid == f.superimposePid {
				f.buf[9], f.buf[10] = 0xe1, 0x38
			}
		} else {
			n := 3
			tag := byte(0x38)
			if maybeCProfile {
				tag = 0x88
			} else {
				n += 5
			}
			f.buf = append(f.buf, 0xf0, byte(n), 0x52, 1, tag)
			if !maybeCProfile {
				f.buf = append(f.buf, 0xfd, 3, 0x00, 0x08, 0x3c)
			}
		}
	}

	newSectionLen := len(f.buf)
	f.buf[2] = 0xb0 | byte(newSectionLen>>8)
	f.buf[3] = byte(newSectionLen)

	if len(f.lastPmt) == len(f.buf)+4 && bytes.Equal(f.buf, f.lastPmt[:len(f.buf)]) {
		f.buf = append(f.buf, f.lastPmt[len(f.lastPmt)-4:]...)
	} else {
		f.buf[6] = 0xc1 | (((f.buf[6]>>1)+1)&0x1f)<<1
		f.buf = append(f.buf, 0, 0, 0, 0)
		sum := crc.Sum32(f.buf[1 : len(f.buf)-4])
		f.buf[len(f.buf)-4] = byte(sum >> 24)
		f.buf[len(f.buf)-3] = byte(sum >> 16)
		f.buf[len(f.buf)-2] = byte(sum >> 8)
		f.buf[len(f.buf)-1] = byte(sum)
		f.lastPmt = append([]byte{}, f.buf...)
	}

	for i := 0; i < len(f.buf); i += 184 {
		end := i + 184
		if end > len(f.buf) {
			end = len(f.buf)
		}
		f.pmtCounter = (f.pmtCounter + 1) & 0x0f
		unitStartBit := byte(0)
		if i == 0 {
			unitStartBit = 0x40
		}
		pkt := []byte{mts.SyncByte, unitStartBit | 0x01, 0xf0, 0x10 | f.pmtCounter}
		pkt = append(pkt, f.buf[i:end]...)
		for len(pkt)%188 != 0 {
			pkt = append(pkt, 0xff)
		}
		f.packets = append(f.packets, pkt...)
	}
}

// addPcrAdaptation emits an adaptation-only packet carrying just the PCR
// on the fixed PCR output PID, mirroring AddPcrAdaptation. pcr is the
// 6-byte program_clock_reference_base/extension field from the source
// packet.
func (f *Filter) addPcrAdaptation(pcr []byte) {
	pkt := []byte{mts.SyncByte, 0x01, 0xff, 0x20, 183, 0x10}
	pkt = append(pkt, pcr[:4]...)
	pkt = append(pkt, (pcr[4]&0x80)|0x7e, 0)
	for len(pkt)%188 != 0 {
		pkt = append(pkt, 0xff)
	}
	f.packets = append(f.packets, pkt...)
}

// changePidAndAddPacket copies a packet, rewriting its PID and, if
// counter<=0x0f, its continuity counter, mirroring ChangePidAndAddPacket.
func (f *Filter) changePidAndAddPacket(pkt []byte, pid uint16, counter byte) {
	out := make([]byte, 4, 188)
	out[0] = mts.SyncByte
	out[1] = (pkt[1] & 0xe0) | byte(pid>>8)
	out[2] = byte(pid)
	if counter > 0x0f {
		out[3] = pkt[3]
	} else {
		out[3] = (pkt[3] & 0xf0) | counter
	}
	out = append(out, pkt[4:]...)
	f.packets = append(f.packets, out...)
}

// addAudioPesPackets synthesizes 64ms silent stereo AAC PES packets,
// advancing pts until the next 64ms step would pass targetPts. With no prior
// pts, or a gap of more than 900000/90000=10s either way, pts first snaps to
// targetPts. Mirrors AddAudioPesPackets.
func (f *Filter) addAudioPesPackets(index int, targetPts int64, pts *int64, counter *byte) {
	const acceptablePtsDiffSec = 10
	ptsDiff := (0x200000000 + targetPts - *pts) & 0x1ffffffff
	if *pts < 0 || (90000*acceptablePtsDiffSec < ptsDiff && ptsDiff < 0x200000000-90000*acceptablePtsDiffSec) {
		*pts = targetPts
	}
	for {
		nextPts := (*pts + 90000*64/1000) & 0x1ffffffff
		if ((0x200000000 + targetPts - nextPts) & 0x1ffffffff) > 900000 {
			break
		}
		f.add64MsecAudioPesPacket(index, *pts, counter)
		*pts = nextPts
	}
}

// add64MsecAudioPesPacket emits one 188-byte TS packet carrying three
// 1024-sample silent stereo AAC ADTS frames (64ms of audio at 48kHz),
// mirroring Add64MsecAudioPesPacket.
func (f *Filter) add64MsecAudioPesPacket(index int, pts int64, counter *byte) {
	const pesHeaderLen = 6 + 8 // PES header fields through the 5-byte PTS.
	const payloadLen = pesHeaderLen + 13*3
	pkt := []byte{mts.SyncByte, 0x41, 0x10 | byte(index)}
	*counter = (*counter + 1) & 0x0f
	pkt = append(pkt, 0x30|*counter)
	pkt = append(pkt, byte(188-5-(6+8+13*3)), 0x40)
	for len(pkt) < 6+(188-6-payloadLen) {
		pkt = append(pkt, 0xff)
	}
	pkt = append(pkt, 0, 0, 1, 0xc0|byte(index), 0, byte(8+13*3))
	pkt = append(pkt, 0x84, 0x80, 5)
	pkt = append(pkt,
		byte(pts>>29)|0x21,
		byte(pts>>22),
		byte(pts>>14)|1,
		byte(pts>>7),
		byte(pts<<1)|1,
	)
	for i := 0; i < 3; i++ {
		pkt = append(pkt, silentADTS2ch48kHz[:]...)
	}
	f.packets = append(f.packets, pkt...)
}
