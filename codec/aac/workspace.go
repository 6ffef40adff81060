/*
NAME
  workspace.go

DESCRIPTION
  The persistent ADTS resync workspace and the two public transmux entry
  points, TransmuxDualMono and TransmuxMonoToStereo. Ported from
  original_source/aac.cpp's SyncPayload/SkipPayload and
  Aac::TransmuxDualMono/Aac::TransmuxMonoToStereo.

  A Workspace must persist across calls for one elementary stream: ADTS
  frames rarely align with PES packet boundaries, so a caller feeds
  successive PES payloads in and the workspace carries any unconsumed tail
  forward. workspace[0]==0 is the poisoned "already synchronized"
  marker: skipPayload overwrites the carried-over frame's leading 0xff
  with 0, and syncPayload restores 0xff when it appends the next payload,
  so the next call knows whether it needs to re-scan for a sync word or
  can trust its leading byte.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package aac

// Workspace is the per-stream ADTS resync buffer fed across successive
// calls to TransmuxDualMono or TransmuxMonoToStereo.
type Workspace struct {
	buf []byte
}

// synced reports whether buf[0] has already been confirmed a sync byte by
// a prior call; the zero value is "not yet synced", matching the
// workspace[0]==0 sentinel in the original.
func (w *Workspace) synced() bool {
	return len(w.buf) > 0 && w.buf[0] == 0
}

// syncPayload appends payload and, unless already synced, scans for the
// next 0xff + high-nibble-0xf sync word, discarding anything before it.
// It returns false if no ADTS frames are present to process yet.
func (w *Workspace) syncPayload(payload []byte) bool {
	if w.synced() {
		w.buf = append(w.buf, payload...)
		w.buf[0] = 0xff
		return true
	}
	w.buf = append(w.buf, payload...)
	i := 0
	for ; i < len(w.buf); i++ {
		if w.buf[i] == 0xff && (i+1 >= len(w.buf) || w.buf[i+1]&0xf0 == 0xf0) {
			break
		}
	}
	w.buf = w.buf[i:]
	return len(w.buf) >= 2
}

// skipPayload is called once no more complete frames remain in
// buf[:workspaceLen]: it walks whole ADTS frames it can still identify,
// carries over any trailing partial frame, and re-poisons buf[0] to 0 so
// the next syncPayload call knows to trust the remaining sync state.
func (w *Workspace) skipPayload(workspaceLen int) {
	if workspaceLen > len(w.buf) {
		workspaceLen = len(w.buf)
	}
	w.buf = w.buf[:workspaceLen]
	i := 0
	for workspaceLen-i > 0 {
		if w.buf[i] != 0xff {
			w.buf = nil
			return
		}
		if workspaceLen-i < 7 {
			break
		}
		if w.buf[i+1]&0xf0 != 0xf0 {
			w.buf = nil
			return
		}
		pos := i*8 + 30
		frameLenBytes := int(readBits(w.buf, &pos, 13))
		if frameLenBytes < 7 {
			w.buf = nil
			return
		}
		if workspaceLen-i < frameLenBytes {
			break
		}
		i += frameLenBytes
	}
	w.buf = w.buf[i:]
	if len(w.buf) > 0 {
		w.buf[0] = 0
	}
}

// adtsHeaderFields are the fields TransmuxDualMono/TransmuxMonoToStereo
// need out of the 7-byte ADTS fixed+variable header (protection_absent
// assumed per frame, re-derived below since CRC presence varies frame to
// frame).
type adtsHeaderFields struct {
	protectionAbsent bool
	samplingFreqIdx  int
	channelConfig    int
	frameLenBytes    int
	blocksInFrame    int
	headerBits       int // bit position immediately after the fixed+variable header (and CRC, if present).
}

// parseADTSHeader reads the fixed+variable ADTS header (and, if present,
// the adts_error_check CRC) starting at the frame's first byte.
func parseADTSHeader(frame []byte) adtsHeaderFields {
	pos := 12 // syncword already matched by the caller.
	pos += 3  // ID, layer
	protectionAbsent := readBool(frame, &pos)
	pos += 2 // profile
	samplingFreqIdx := int(readBits(frame, &pos, 4))
	pos++ // private_bit
	channelConfig := int(readBits(frame, &pos, 3))
	pos += 4 // original/copy, home, copyright bits
	frameLenBytes := int(readBits(frame, &pos, 13))
	pos += 11 // buffer_fullness
	blocksInFrame := int(readBits(frame, &pos, 2))
	if !protectionAbsent {
		pos += (blocksInFrame + 1) * 16
	}
	return adtsHeaderFields{
		protectionAbsent: protectionAbsent,
		samplingFreqIdx:  samplingFreqIdx,
		channelConfig:    channelConfig,
		frameLenBytes:    frameLenBytes,
		blocksInFrame:    blocksInFrame,
		headerBits:       pos,
	}
}

// patchFrameLength back-patches the 13-bit aac_frame_length field once a
// rebuilt frame's final length is known.
func patchFrameLength(dest []byte, headBytes int) {
	frameLenBytes := len(dest) - headBytes
	dest[headBytes+3] = (dest[headBytes+3] & 0xfc) | byte(frameLenBytes>>11)
	dest[headBytes+4] = byte(frameLenBytes >> 3)
	dest[headBytes+5] = byte(frameLenBytes<<5) | (dest[headBytes+5] & 0x1f)
}

// appendMonoOrStereoElement appends one reconstructed syntactic element
// (SCE or, if muxToStereo, a CPE duplicating the mono content into both
// channels) for the raw_data_block at sceBegin..sceEnd within frame, onto
// dest. It mirrors the per-block loop bodies shared by TransmuxDualMono
// (destIndex loop) and TransmuxMonoToStereo.
func appendMonoOrStereoElement(dest []byte, frame []byte, sceBegin, sceEnd int, muxToStereo bool) []byte {
	scePos := sceBegin
	if muxToStereo {
		scePos += 3 // skip the 3-bit SCE element id; 4-bit element_instance_tag remains.
		instanceTag := byte(readBits(frame, &scePos, 4))
		dest = append(dest, (idCPE<<5)|(instanceTag<<1)) // common_window = 0

		leftPos := scePos
		for leftPos+7 < sceEnd {
			dest = append(dest, byte(readBits(frame, &leftPos, 8)))
		}
		leftRemain := sceEnd - leftPos
		if leftRemain != 0 {
			dest = append(dest, byte(readBits(frame, &leftPos, leftRemain))<<(8-leftRemain))
		}
		if leftRemain != 0 {
			dest[len(dest)-1] |= byte(readBits(frame, &scePos, 8-leftRemain))
		}
	}
	// Non-mux path: scePos stays at sceBegin, so the copy below reproduces
	// the original 3-bit SCE id and instance_tag verbatim along with the
	// individual_channel_stream - a valid standalone SCE needs nothing else.

	for scePos+7 < sceEnd {
		dest = append(dest, byte(readBits(frame, &scePos, 8)))
	}
	sceRemain := sceEnd - scePos
	if sceRemain != 0 {
		dest = append(dest, (byte(readBits(frame, &scePos, sceRemain))<<(8-sceRemain))|byte(0xe0>>uint(sceRemain)))
	}
	if sceRemain == 0 || sceRemain >= 6 {
		dest = append(dest, byte((uint16(0x60e0)>>uint(sceRemain))&0xe0))
	}
	return dest
}

// TransmuxDualMono splits one or more ARIB dual-mono ADTS frames
// (channel_configuration=0, exactly two single_channel_elements per block)
// into independent left/right ADTS streams. muxLeftToStereo/muxRightToStereo
// request that channel additionally be upmixed into a two-channel CPE
// duplicating its own content (matching TransmuxMonoToStereo's output
// shape) rather than left as a mono SCE stream.
//
// ok is false if the workspace could not be resynchronized and must be
// dropped (a discontinuity in the source PID); destLeft/destRight are
// always valid (possibly empty) ADTS byte streams otherwise.
func (w *Workspace) TransmuxDualMono(payload []byte, muxLeftToStereo, muxRightToStereo bool) (destLeft, destRight []byte, ok bool) {
	if !w.syncPayload(payload) {
		return nil, nil, true
	}
	workspaceLen := len(w.buf)
	w.buf = append(w.buf, make([]byte, extraWorkspaceBytes)...)

	for workspaceLen > 0 {
		if w.buf[0] != 0xff {
			w.buf = nil
			return nil, nil, false
		}
		if workspaceLen < 7 {
			break
		}
		if w.buf[1]&0xf0 != 0xf0 {
			w.buf = nil
			return nil, nil, false
		}
		frame := w.buf
		hdr := parseADTSHeader(frame)
		if hdr.samplingFreqIdx < 3 || hdr.samplingFreqIdx > 5 {
			w.skipPayload(workspaceLen)
			return destLeft, destRight, false
		}
		if hdr.channelConfig != 0 {
			w.skipPayload(workspaceLen)
			return destLeft, destRight, false
		}
		if hdr.frameLenBytes < 7 {
			w.buf = nil
			return nil, nil, false
		}
		if workspaceLen < hdr.frameLenBytes {
			break
		}

		var sceBegin, sceEnd [4][2]int
		pos := hdr.headerBits
		ok := true
		for i := 0; i <= hdr.blocksInFrame && ok; i++ {
			sceCount := 0
			for {
				begin := pos
				id := rawDataBlock(frame, hdr.frameLenBytes, &pos, hdr.samplingFreqIdx == 5)
				if id < 0 {
					ok = false
					break
				}
				if id == idEND {
					break
				}
				if id == idSCE {
					if sceCount >= 2 {
						ok = false
						break
					}
					sceBegin[i][sceCount] = begin
					sceEnd[i][sceCount] = pos
					sceCount++
				}
			}
			if ok && sceCount != 2 {
				ok = false
			}
			if ok {
				pos = byteAlign(pos)
				if hdr.blocksInFrame != 0 && !hdr.protectionAbsent {
					pos += 16
				}
			}
		}
		if !ok || overrun(hdr.frameLenBytes, pos) {
			w.skipPayload(workspaceLen)
			return destLeft, destRight, false
		}

		for destIdx := 0; destIdx < 2; destIdx++ {
			dest := destLeft
			muxToStereo := muxLeftToStereo
			if destIdx == 1 {
				dest = destRight
				muxToStereo = muxRightToStereo
			}
			headBytes := len(dest)
			dest = append(dest, frame[:7]...)
			dest[headBytes+1] |= 0x01 // protection_absent = 1
			if muxToStereo {
				dest[headBytes+3] |= 0x80 // channel_configuration = 2
			} else {
				dest[headBytes+3] |= 0x40 // channel_configuration = 1
			}
			for i := 0; i <= hdr.blocksInFrame; i++ {
				dest = appendMonoOrStereoElement(dest, frame, sceBegin[i][destIdx], sceEnd[i][destIdx], muxToStereo)
			}
			patchFrameLength(dest, headBytes)
			if destIdx == 0 {
				destLeft = dest
			} else {
				destRight = dest
			}
		}

		w.buf = w.buf[hdr.frameLenBytes:]
		workspaceLen -= hdr.frameLenBytes
	}

	w.skipPayload(workspaceLen)
	return destLeft, destRight, true
}

// TransmuxMonoToStereo upmixes one or more mono ADTS frames
// (channel_configuration=1, exactly one single_channel_element per block)
// into a stereo stream by duplicating the mono content into both channels
// of a channel_pair_element.
func (w *Workspace) TransmuxMonoToStereo(payload []byte) (dest []byte, ok bool) {
	if !w.syncPayload(payload) {
		return nil, true
	}
	workspaceLen := len(w.buf)
	w.buf = append(w.buf, make([]byte, extraWorkspaceBytes)...)

	for workspaceLen > 0 {
		if w.buf[0] != 0xff {
			w.buf = nil
			return nil, false
		}
		if workspaceLen < 7 {
			break
		}
		if w.buf[1]&0xf0 != 0xf0 {
			w.buf = nil
			return nil, false
		}
		frame := w.buf
		hdr := parseADTSHeader(frame)
		if hdr.samplingFreqIdx < 3 || hdr.samplingFreqIdx > 5 {
			w.skipPayload(workspaceLen)
			return dest, false
		}
		if hdr.channelConfig != 1 {
			w.skipPayload(workspaceLen)
			return dest, false
		}
		if hdr.frameLenBytes < 7 {
			w.buf = nil
			return nil, false
		}
		if workspaceLen < hdr.frameLenBytes {
			break
		}

		var sceBegin, sceEnd [4]int
		pos := hdr.headerBits
		okBlocks := true
		for i := 0; i <= hdr.blocksInFrame && okBlocks; i++ {
			found := false
			for {
				begin := pos
				id := rawDataBlock(frame, hdr.frameLenBytes, &pos, hdr.samplingFreqIdx == 5)
				if id < 0 {
					okBlocks = false
					break
				}
				if id == idEND {
					break
				}
				if id == idSCE {
					if found {
						okBlocks = false
						break
					}
					sceBegin[i] = begin
					sceEnd[i] = pos
					found = true
				}
			}
			if okBlocks && !found {
				okBlocks = false
			}
			if okBlocks {
				pos = byteAlign(pos)
				if hdr.blocksInFrame != 0 && !hdr.protectionAbsent {
					pos += 16
				}
			}
		}
		if !okBlocks || overrun(hdr.frameLenBytes, pos) {
			w.skipPayload(workspaceLen)
			return dest, false
		}

		headBytes := len(dest)
		dest = append(dest, frame[:7]...)
		dest[headBytes+1] |= 0x01
		dest[headBytes+3] = (dest[headBytes+3] & 0x3f) | 0x80
		for i := 0; i <= hdr.blocksInFrame; i++ {
			dest = appendMonoOrStereoElement(dest, frame, sceBegin[i], sceEnd[i], true)
		}
		patchFrameLength(dest, headBytes)

		w.buf = w.buf[hdr.frameLenBytes:]
		workspaceLen -= hdr.frameLenBytes
	}

	w.skipPayload(workspaceLen)
	return dest, true
}
