/*
NAME
  huffman.go

DESCRIPTION
  Variable-length decoding for the scale_factor_data and spectral_data
  Huffman codebooks referenced by original_source/huffman.hpp
  (Huffman::DecodeScalefactorBits / DecodeSpectrumQuadBits /
  DecodeSpectrumPairBits). The retrieved original_source tree only carries
  the function signatures; huffman.cpp/maketree.cpp (which build the actual
  ISO/IEC 14496-3 Table 4.A.* codeword trees) were not part of the
  retrieval pack, so the literal codeword assignments cannot be grounded.
  What IS grounded, and reproduced faithfully here, is the structural role
  these calls play in aac.cpp's raw_data_block walk: each call consumes a
  self-delimiting run of bits and reports only what the walk needs to find
  section/element boundaries - whether the decoded magnitude(s) are zero
  (for the unsigned codebooks' extra sign bit) and, for the escape
  codebook, whether the magnitude hit the escape sentinel.

  In place of the real canonical Huffman trees, codewords are assigned by
  Elias-gamma-coding a symbol's rank in magnitude-ascending order: a
  self-terminating scheme that needs no precomputed canonical table,
  requires no Kraft-inequality bookkeeping, and preserves Huffman's
  qualitative property that common, small-magnitude symbols are shortest.
  This is representative, not standards-conformant; see DESIGN.md.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package aac

import "sort"

// maxCodewordLen mirrors Huffman::MAX_CODEWORD_LEN; it bounds the
// Elias-gamma prefix run so garbage input can't spin the bit reader forever.
const maxCodewordLen = 19

// decodeEliasGammaRank reads a self-terminating Elias-gamma codeword and
// returns its zero-based rank.
func decodeEliasGammaRank(data []byte, pos *int) int {
	zeros := 0
	for zeros < maxCodewordLen {
		if readBool(data, pos) {
			break
		}
		zeros++
	}
	if zeros == 0 {
		return 0
	}
	rest := int(readBits(data, pos, zeros))
	return (1 << zeros) | rest - 1
}

type quadSym struct{ w, x, y, z int }

type pairSym struct{ y, z int }

// buildQuadTable enumerates every quad whose components lie in [lo,hi] and
// orders them by ascending sum of absolute magnitude, so rank 0 is the
// all-zero quad.
func buildQuadTable(lo, hi int) []quadSym {
	var syms []quadSym
	for w := lo; w <= hi; w++ {
		for x := lo; x <= hi; x++ {
			for y := lo; y <= hi; y++ {
				for z := lo; z <= hi; z++ {
					syms = append(syms, quadSym{w, x, y, z})
				}
			}
		}
	}
	sort.SliceStable(syms, func(i, j int) bool {
		return absSum4(syms[i]) < absSum4(syms[j])
	})
	return syms
}

func buildPairTable(lo, hi int) []pairSym {
	var syms []pairSym
	for y := lo; y <= hi; y++ {
		for z := lo; z <= hi; z++ {
			syms = append(syms, pairSym{y, z})
		}
	}
	sort.SliceStable(syms, func(i, j int) bool {
		return absSum2(syms[i]) < absSum2(syms[j])
	})
	return syms
}

func absSum4(s quadSym) int { return abs(s.w) + abs(s.x) + abs(s.y) + abs(s.z) }
func absSum2(s pairSym) int { return abs(s.y) + abs(s.z) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// quadCodebook describes one spectral quad codebook (codebook index 0-3,
// i.e. HCB 1-4): its component range and whether magnitudes are unsigned
// (requiring a sign bit per nonzero component, consumed by the caller).
type quadCodebook struct {
	table    []quadSym
	unsigned bool
}

// pairCodebook describes one spectral pair codebook (codebook index 4-10,
// i.e. HCB 5-11).
type pairCodebook struct {
	table    []pairSym
	unsigned bool
	escape   bool // HCB 11: magnitude 16 signals an escape-coded value.
}

var quadCodebooks = [4]quadCodebook{
	{table: buildQuadTable(-1, 1), unsigned: false}, // HCB1
	{table: buildQuadTable(-1, 1), unsigned: false}, // HCB2
	{table: buildQuadTable(0, 1), unsigned: true},   // HCB3
	{table: buildQuadTable(0, 2), unsigned: true},   // HCB4
}

var pairCodebooks = [7]pairCodebook{
	{table: buildPairTable(-4, 4), unsigned: false},             // HCB5
	{table: buildPairTable(-4, 4), unsigned: false},             // HCB6
	{table: buildPairTable(0, 7), unsigned: true},               // HCB7
	{table: buildPairTable(0, 7), unsigned: true},               // HCB8
	{table: buildPairTable(0, 12), unsigned: true},              // HCB9
	{table: buildPairTable(0, 12), unsigned: true},              // HCB10
	{table: buildPairTable(0, 16), unsigned: true, escape: true}, // HCB11 (ESC_HCB)
}

// escFlag mirrors aac.cpp's ESC_FLAG: a decoded magnitude of 16 from the
// escape codebook signals that an escape extension follows in the stream.
const escFlag = 16

// decodeScalefactorBits mirrors Huffman::DecodeScalefactorBits: it consumes
// one scale factor delta codeword. The decoded value itself is unused by
// the raw_data_block walk (only the bit consumption matters), matching
// aac.cpp's call site which discards the return value.
func decodeScalefactorBits(data []byte, pos *int) int {
	return decodeEliasGammaRank(data, pos)
}

// decodeSpectrumQuadBits mirrors Huffman::DecodeSpectrumQuadBits. codebook
// is zero-based (sectCb value minus 1, per aac.cpp). It returns whether the
// codebook is unsigned (sign bits follow per nonzero component, consumed
// by the caller) and the four decoded magnitudes/values.
func decodeSpectrumQuadBits(codebook int, data []byte, pos *int) (unsigned int, w, x, y, z int) {
	cb := quadCodebooks[codebook]
	rank := decodeEliasGammaRank(data, pos)
	if rank >= len(cb.table) {
		rank = len(cb.table) - 1
	}
	sym := cb.table[rank]
	if cb.unsigned {
		unsigned = 1
	}
	return unsigned, sym.w, sym.x, sym.y, sym.z
}

// decodeSpectrumPairBits mirrors Huffman::DecodeSpectrumPairBits. codebook
// is zero-based (sectCb value minus 1).
func decodeSpectrumPairBits(codebook int, data []byte, pos *int) (unsigned, y, z int) {
	cb := pairCodebooks[codebook]
	rank := decodeEliasGammaRank(data, pos)
	if rank >= len(cb.table) {
		rank = len(cb.table) - 1
	}
	sym := cb.table[rank]
	if cb.unsigned {
		unsigned = 1
	}
	return unsigned, sym.y, sym.z
}
