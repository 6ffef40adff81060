/*
NAME
  privatedata_test.go

DESCRIPTION
  Tests for ParsePrivateData: a minimal valid caption_management_data()
  data_group with zero languages and an empty data_unit loop, plus the
  too-short and CRC-mismatch failure paths.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package arib

import "testing"

// minimalCaptionManagementData is one synchronized_PES_data private_data
// payload: data_identifier=0x80, private_stream_id=0xff,
// PES_data_packet_header_length=0, then a data_group (id/version=0,
// link_number=0, last_link_number=0, data_group_size=5) whose 5-byte body
// is tmd=0, num_languages=0, data_unit_loop_length=0, followed by its
// CRC-16/CCITT (precomputed offline with the package's own algorithm).
var minimalCaptionManagementData = []byte{
	0x80, 0xff, 0x00,
	0x00, 0x00, 0x00,
	0x00, 0x05,
	0x00, 0x00,
	0x00, 0x00, 0x00,
	0x43, 0x01,
}

func TestParsePrivateDataCaptionManagementMinimal(t *testing.T) {
	var drcsList []uint16
	var langTags [8]LangTag

	body, ret := ParsePrivateData(minimalCaptionManagementData, &drcsList, &langTags)

	if ret != ParseSucceeded {
		t.Fatalf("ret = %v, want ParseSucceeded", ret)
	}
	want := "0=%00%00%00%00%00%={%=}"
	if string(body) != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestParsePrivateDataTooShort(t *testing.T) {
	var drcsList []uint16
	var langTags [8]LangTag

	_, ret := ParsePrivateData([]byte{0x80, 0xff}, &drcsList, &langTags)
	if ret != ParseFailed {
		t.Errorf("ret = %v, want ParseFailed", ret)
	}
}

func TestParsePrivateDataCRCMismatch(t *testing.T) {
	corrupt := append([]byte{}, minimalCaptionManagementData...)
	corrupt[len(corrupt)-1] ^= 0xff // flip the low CRC byte.

	var drcsList []uint16
	var langTags [8]LangTag
	_, ret := ParsePrivateData(corrupt, &drcsList, &langTags)
	if ret != ParseFailedCRC {
		t.Errorf("ret = %v, want ParseFailedCRC", ret)
	}
}
