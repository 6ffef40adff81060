/*
NAME
  reassembler.go

DESCRIPTION
  Reassembles pointer-field-prefixed PSI section data out of a sequence of
  TS packet payloads for one PID, and tracks the Program Association Table
  built on top of it. This is the input-side counterpart to psi.go's
  output-only PSI/PAT/PMT encoders: those build sections to emit, this
  reassembles sections that arrived, continuity-counter by
  continuity-counter, exactly as original_source/util.cpp's extract_psi
  and extract_pat do.

LICENSE
  See repository root.
*/

package psi

import "github.com/ts-rewriter/tsrewrite/internal/crc"

// maxSectionData is the reassembly buffer cap (spec: up to 1024 bytes).
const maxSectionData = 1024

// Section is a single PSI section reassembler: one per PID of interest
// (PAT uses PID 0; the service filter additionally runs one over the
// target PMT PID).
type Section struct {
	data        [maxSectionData]byte
	dataCount   int
	contExpect  int // 0x20|counter when valid, else "invalid" sentinel < 0x20
	TableID     byte
	SectionLen  int
	// Version is 0x20 | (5-bit version number); the high bit is a "valid
	// publication has occurred" flag, per spec §3/§4.2.
	Version         int
	CurrentNext     bool
}

// Valid reports whether a verified section has been published since
// accumulation last restarted (Version's 0x20 bit set).
func (s *Section) Valid() bool { return s.Version&0x20 != 0 }

// Bytes returns the raw section bytes (table_id .. including CRC) of the
// most recently published section. Valid only when Valid() is true.
func (s *Section) Bytes() []byte {
	return s.data[:3+s.SectionLen]
}

func (s *Section) reset() {
	s.contExpect = 0
	s.dataCount = 0
	s.Version = 0
}

// Reassemble feeds one TS packet payload (not the whole packet — the
// caller strips the adaptation field first) into the reassembler for a
// single step. unitStart is the packet's payload_unit_start_indicator and
// cc its continuity counter. It returns done=false, plus the payload to
// feed again, when the pointer_field bytes finished a pending section; the
// caller must re-invoke Reassemble with that payload (and unitStart=true)
// until done=true, inspecting Valid()/Bytes() after every step, per spec
// §4.2. On the second pass the continuity check no longer matches, so
// accumulation restarts at pointer_field+1 with the next section.
func (s *Section) Reassemble(payload []byte, unitStart bool, cc byte) (done bool, rest []byte) {
	copyPos, copySize := 0, len(payload)
	done = true

	if unitStart {
		if len(payload) < 1 {
			s.reset()
			return true, nil
		}
		pointer := int(payload[0])
		s.contExpect = (s.contExpect + 1) & 0x2f
		if pointer > 0 && s.contExpect == (0x20|int(cc)) {
			copyPos = 1
			copySize = pointer
			done = false
		} else {
			s.contExpect = 0x20 | int(cc)
			s.dataCount = 0
			s.Version = 0
			copyPos = 1 + pointer
			copySize -= copyPos
		}
	} else {
		s.contExpect = (s.contExpect + 1) & 0x2f
		if s.contExpect != (0x20 | int(cc)) {
			s.reset()
			return true, nil
		}
	}

	if copySize > 0 && copyPos < len(payload) {
		if copySize > maxSectionData-s.dataCount {
			copySize = maxSectionData - s.dataCount
		}
		n := copy(s.data[s.dataCount:s.dataCount+copySize], payload[copyPos:copyPos+copySize])
		s.dataCount += n
	}

	if s.dataCount >= 3 {
		sectionLength := int(s.data[1]&0x03)<<8 | int(s.data[2])
		if s.dataCount >= 3+sectionLength &&
			sectionLength >= 3 &&
			crc.Sum32(s.data[:3+sectionLength]) == 0 {
			s.TableID = s.data[0]
			s.SectionLen = sectionLength
			s.Version = 0x20 | ((s.data[5] >> 1) & 0x1f)
			s.CurrentNext = s.data[5]&0x01 != 0
		}
	}

	if !done {
		rest = payload
	}
	return done, rest
}

// PMTRef is one PAT entry: program_number == 0 denotes the NIT.
type PMTRef struct {
	PID           uint16
	ProgramNumber uint16
}

// PAT tracks transport_stream_id and the (program_number, pmt_pid) list,
// built atop a Section reassembler fed PID-0 payloads (spec §4.3).
type PAT struct {
	Section
	TransportStreamID uint16
	PATVersion        byte
	Refs              []PMTRef
}

// AddPayload feeds one PID-0 packet payload into the PAT tracker,
// reassembling as many sections as the payload contains and refreshing
// TransportStreamID/Refs after each publication, per
// original_source/util.cpp's extract_pat do/while loop.
func (p *PAT) AddPayload(payload []byte, unitStart bool, cc byte) {
	for {
		done, rest := p.Section.Reassemble(payload, unitStart, cc)
		if p.Valid() && p.CurrentNext && p.TableID == 0 && p.SectionLen >= 5 {
			table := p.data[:]
			p.TransportStreamID = uint16(table[3])<<8 | uint16(table[4])
			p.PATVersion = byte(p.Version & 0x1f)
			p.Refs = p.Refs[:0]
			pos := 3 + 5
			for pos+3 < 3+p.SectionLen-4 {
				p.Refs = append(p.Refs, PMTRef{
					PID:           uint16(table[pos+2]&0x1f)<<8 | uint16(table[pos+3]),
					ProgramNumber: uint16(table[pos])<<8 | uint16(table[pos+1]),
				})
				pos += 4
			}
		}
		if done {
			return
		}
		payload, unitStart = rest, true
	}
}
