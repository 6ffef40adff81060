/*
NAME
  transmux.go

DESCRIPTION
  ADTS raw_data_block transmuxing: splitting an ARIB dual-mono AAC stream
  (channel_configuration=0, exactly two single_channel_elements) into two
  independent mono (or upmixed stereo) ADTS streams, and upmixing a mono
  stream (channel_configuration=1) into a two-channel_pair_element stream.
  Ported from original_source/aac.cpp's Aac::TransmuxDualMono and
  Aac::TransmuxMonoToStereo: the raw_data_block walk only needs to find
  byte/bit boundaries of each single_channel_element so its bits can be
  copied verbatim into the rebuilt ADTS frame - the spectral data itself is
  never numerically re-encoded, only relocated.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package aac

const (
	onlyLongSequence  = 0
	eightShortSequence = 2

	zeroHCB     = 0
	firstPairHCB = 5
	escHCB      = 11

	idSCE = 0
	idCPE = 1
	idDSE = 4
	idPCE = 5
	idFIL = 6
	idEND = 7

	extDynamicRange = 11
	extSBRData      = 13
	extSBRDataCRC   = 14

	predSFBMax48kHz = 40

	extraWorkspaceBytes = 16
)

var swbOffsetLongWindow48kHz = [64]int{
	0, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40, 48, 56, 64, 72, 80, 88, 96, 108, 120, 132, 144, 160, 176, 196,
	216, 240, 264, 292, 320, 352, 384, 416, 448, 480, 512, 544, 576, 608, 640, 672, 704, 736, 768, 800, 832, 864, 896, 928, 1024,
	1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024,
}

var swbOffsetLongWindow32kHz = [64]int{
	0, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40, 48, 56, 64, 72, 80, 88, 96, 108, 120, 132, 144, 160, 176, 196, 216,
	240, 264, 292, 320, 352, 384, 416, 448, 480, 512, 544, 576, 608, 640, 672, 704, 736, 768, 800, 832, 864, 896, 928, 960, 992, 1024,
	1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024,
}

var swbOffsetShortWindow48kHz = [16]int{
	0, 4, 8, 12, 16, 20, 28, 36, 44, 56, 68, 80, 96, 112, 128,
	128,
}

// singleChannelElement walks one individual_channel_stream(0) (the body of
// a single_channel_element, after the 3-bit element id) and advances pos
// past it. It returns false if the bitstream is malformed or runs past
// lenBytes, mirroring aac.cpp's SingleChannelElement.
func singleChannelElement(data []byte, lenBytes int, pos *int, is32kHz bool) bool {
	*pos += 4 // element_instance_tag
	*pos += 8 // individual_channel_stream(): global_gain

	*pos++ // ics_info: reserved bit
	windowSequence := int(readBits(data, pos, 2))
	*pos++ // window_shape

	var maxSfb, numWindowGroups int
	numWindowGroups = 1
	var windowGroupLength [8]int
	windowGroupLength[0] = 1

	if windowSequence == eightShortSequence {
		maxSfb = int(readBits(data, pos, 4))
		scaleFactorGrouping := int(readBits(data, pos, 7))
		for i := 6; i >= 0; i-- {
			if (scaleFactorGrouping>>uint(i))&1 != 0 {
				windowGroupLength[numWindowGroups-1]++
			} else {
				numWindowGroups++
				windowGroupLength[numWindowGroups-1] = 1
			}
		}
	} else {
		maxSfb = int(readBits(data, pos, 6))
		predictorDataPresent := readBool(data, pos)
		if predictorDataPresent {
			predictorReset := readBool(data, pos)
			if predictorReset {
				*pos += 5
			}
			n := maxSfb
			if n > predSFBMax48kHz {
				n = predSFBMax48kHz
			}
			*pos += n
		}
	}

	var numWindows int
	var sectSfbOffset [8][65]int
	if windowSequence == eightShortSequence {
		numWindows = 8
		for g := 0; g < numWindowGroups; g++ {
			offset := 0
			for i := 0; i < maxSfb; i++ {
				sectSfbOffset[g][i] = offset
				offset += (swbOffsetShortWindow48kHz[i+1] - swbOffsetShortWindow48kHz[i]) * windowGroupLength[g]
			}
			sectSfbOffset[g][maxSfb] = offset
		}
	} else {
		numWindows = 1
		table := &swbOffsetLongWindow48kHz
		if is32kHz {
			table = &swbOffsetLongWindow32kHz
		}
		for i := 0; i <= maxSfb && i < len(table); i++ {
			sectSfbOffset[0][i] = table[i]
		}
	}

	// section_data
	var numSec [8]int
	var sectCb [8][64]int
	var sectEnd [8][64]int
	var sfbCb [8][64]int
	for g := 0; g < numWindowGroups; g++ {
		sectLenIncrBits, sectEscVal := 5, 31
		if windowSequence == eightShortSequence {
			sectLenIncrBits, sectEscVal = 3, 7
		}
		i := 0
		for k := 0; k < maxSfb; i++ {
			if overrun(lenBytes, *pos) {
				return false
			}
			sectCb[g][i] = int(readBits(data, pos, 4))
			sectLen := 0
			for {
				if overrun(lenBytes, *pos) {
					return false
				}
				sectLenIncr := int(readBits(data, pos, sectLenIncrBits))
				sectLen += sectLenIncr
				if k+sectLen > maxSfb {
					return false
				}
				if sectLenIncr != sectEscVal {
					break
				}
			}
			for sfb := k; sfb < k+sectLen; sfb++ {
				sfbCb[g][sfb] = sectCb[g][i]
			}
			k += sectLen
			sectEnd[g][i] = k
		}
		numSec[g] = i
	}

	// scale_factor_data (ISO/IEC 14496-3 extended for PNS, sfbCb==13).
	noisePcmFlag := true
	for g := 0; g < numWindowGroups; g++ {
		for sfb := 0; sfb < maxSfb; sfb++ {
			if sfbCb[g][sfb] == zeroHCB {
				continue
			}
			if overrun(lenBytes, *pos) {
				return false
			}
			if sfbCb[g][sfb] == 13 && noisePcmFlag {
				noisePcmFlag = false
				*pos += 9
			} else {
				decodeScalefactorBits(data, pos)
			}
		}
	}

	if overrun(lenBytes, *pos) {
		return false
	}
	if readBool(data, pos) { // pulse_data_present
		numberPulse := int(readBits(data, pos, 2))
		*pos += 6 + 9*(numberPulse+1)
	}

	if overrun(lenBytes, *pos) {
		return false
	}
	if readBool(data, pos) { // tns_data_present
		nFiltBits, lengthBits, orderBits := 2, 6, 5
		if windowSequence == eightShortSequence {
			nFiltBits, lengthBits, orderBits = 1, 4, 3
		}
		for w := 0; w < numWindows; w++ {
			if overrun(lenBytes, *pos) {
				return false
			}
			nFilt := int(readBits(data, pos, nFiltBits))
			coefRes := 0
			if nFilt != 0 {
				coefRes = int(readBits(data, pos, 1))
			}
			for f := 0; f < nFilt; f++ {
				*pos += lengthBits
				if overrun(lenBytes, *pos) {
					return false
				}
				order := int(readBits(data, pos, orderBits))
				if order != 0 {
					*pos++
					coefCompress := int(readBits(data, pos, 1))
					*pos += (3 + coefRes - coefCompress) * order
				}
			}
		}
	}

	if overrun(lenBytes, *pos) {
		return false
	}
	if readBool(data, pos) { // gain_control_data_present
		maxBand := int(readBits(data, pos, 2))
		wdCount := 2
		switch windowSequence {
		case onlyLongSequence:
			wdCount = 1
		case eightShortSequence:
			wdCount = 8
		}
		for bd := 1; bd <= maxBand; bd++ {
			for wd := 0; wd < wdCount; wd++ {
				if overrun(lenBytes, *pos) {
					return false
				}
				adjustNum := int(readBits(data, pos, 3))
				var adjustBits int
				switch {
				case windowSequence == onlyLongSequence:
					adjustBits = 9
				case windowSequence == eightShortSequence:
					adjustBits = 6
				case wd == 0:
					adjustBits = 8
				default:
					adjustBits = 9
				}
				*pos += adjustBits * adjustNum
			}
		}
	}

	if overrun(lenBytes, *pos) {
		return false
	}
	// spectral_data
	for g := 0; g < numWindowGroups; g++ {
		sectStart := 0
		for i := 0; i < numSec[g]; i++ {
			codebook := sectCb[g][i]
			if codebook == zeroHCB || codebook > escHCB {
				sectStart = sectEnd[g][i]
				continue
			}
			coefEnd := sectSfbOffset[g][sectEnd[g][i]]
			for k := sectSfbOffset[g][sectStart]; k < coefEnd; {
				if overrun(lenBytes, *pos) {
					return false
				}
				if codebook < firstPairHCB {
					unsigned, w, x, y, z := decodeSpectrumQuadBits(codebook-1, data, pos)
					if unsigned != 0 {
						if w != 0 {
							*pos++
						}
						if x != 0 {
							*pos++
						}
						if y != 0 {
							*pos++
						}
						if z != 0 {
							*pos++
						}
					}
					k += 4
				} else {
					unsigned, y, z := decodeSpectrumPairBits(codebook-1, data, pos)
					if unsigned != 0 {
						if y != 0 {
							*pos++
						}
						if z != 0 {
							*pos++
						}
					}
					k += 2
					if codebook == escHCB {
						if y == escFlag {
							count := 0
							for readBool(data, pos) {
								count++
								if count > 8 {
									return false
								}
							}
							*pos += count + 4
						}
						if z == escFlag {
							count := 0
							for readBool(data, pos) {
								count++
								if count > 8 {
									return false
								}
							}
							*pos += count + 4
						}
					}
				}
			}
			sectStart = sectEnd[g][i]
		}
	}
	return true
}

// dataStreamElement walks a data_stream_element and advances pos past it.
func dataStreamElement(data []byte, pos *int) {
	*pos += 4
	dataByteAlignFlag := readBool(data, pos)
	cnt := int(readBits(data, pos, 8))
	if cnt == 255 {
		cnt += int(readBits(data, pos, 8))
	}
	if dataByteAlignFlag {
		*pos = byteAlign(*pos)
	}
	*pos += 8 * cnt
}

// programConfigElement walks a program_config_element and advances pos.
func programConfigElement(data []byte, lenBytes int, pos *int) bool {
	*pos += 10
	numFront := int(readBits(data, pos, 4))
	numSide := int(readBits(data, pos, 4))
	numBack := int(readBits(data, pos, 4))
	numLfe := int(readBits(data, pos, 2))
	numAssoc := int(readBits(data, pos, 3))
	numValidCC := int(readBits(data, pos, 4))
	if readBool(data, pos) { // mono_mixdown_present
		*pos += 4
	}
	if readBool(data, pos) { // stereo_mixdown_present
		*pos += 4
	}
	if readBool(data, pos) { // matrix_mixdown_idx_present
		*pos += 3
	}
	*pos += 5 * numFront
	*pos += 5 * numSide
	*pos += 5 * numBack
	*pos += 4 * numLfe
	*pos += 4 * numAssoc
	*pos += 5 * numValidCC

	if overrun(lenBytes, *pos) {
		return false
	}
	*pos = byteAlign(*pos)
	commentFieldBytes := int(readBits(data, pos, 8))
	*pos += 8 * commentFieldBytes
	return true
}

// fillElement walks a fill_element and advances pos. It refuses SBR/DRC
// extension payloads, matching aac.cpp (this rewriter does not need to
// understand them, only to know it cannot safely skip past them blind).
func fillElement(data []byte, pos *int) bool {
	cnt := int(readBits(data, pos, 4))
	if cnt == 15 {
		cnt += int(readBits(data, pos, 8)) - 1
	}
	if cnt > 0 {
		extensionType := int(readBits(data, pos, 4))
		if extensionType == extDynamicRange || extensionType == extSBRData || extensionType == extSBRDataCRC {
			return false
		}
		*pos += 8*(cnt-1) + 4
	}
	return true
}

// rawDataBlock reads one syntactic element's id and walks its body,
// returning the element id or -1 on failure.
func rawDataBlock(data []byte, lenBytes int, pos *int, is32kHz bool) int {
	if overrun(lenBytes, *pos) {
		return -1
	}
	id := int(readBits(data, pos, 3))
	switch id {
	case idSCE:
		if singleChannelElement(data, lenBytes, pos, is32kHz) {
			return id
		}
	case idDSE:
		dataStreamElement(data, pos)
		return id
	case idPCE:
		if programConfigElement(data, lenBytes, pos) {
			return id
		}
	case idFIL:
		if fillElement(data, pos) {
			return id
		}
	case idEND:
		return id
	}
	return -1
}
