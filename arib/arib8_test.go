/*
NAME
  arib8_test.go

DESCRIPTION
  Tests for the byte-escaping helpers and the Latin-set ASCII passthrough
  path of AnalizeArib8's port; deliberately avoids exercising the
  JIS/Gaiji lookup tables (documented in DESIGN.md as a representative
  subset, not a complete transcription).

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

package arib

import "testing"

func TestAddCharEscapesControlAndSpecialBytes(t *testing.T) {
	cases := []struct {
		in   byte
		want string
	}{
		{'A', "A"},
		{0x09, "%09"}, // control byte.
		{0x25, "%25"}, // '%' itself.
		{0x7f, "%7f"}, // DEL.
	}
	for _, c := range cases {
		var buf []byte
		addChar(&buf, c.in)
		if string(buf) != c.want {
			t.Errorf("addChar(%#x) = %q, want %q", c.in, buf, c.want)
		}
	}
}

func TestAddChar32EncodesUTF8ByWidth(t *testing.T) {
	cases := []struct {
		in   rune
		want []byte
	}{
		{'A', []byte("A")},
		{0x00e9, []byte{0xc3, 0xa9}},             // 'é', 2-byte UTF-8.
		{0x3042, []byte{0xe3, 0x81, 0x82}},       // hiragana 'あ', 3-byte.
		{0x1f600, []byte{0xf0, 0x9f, 0x98, 0x80}}, // 4-byte, supplementary plane.
	}
	for _, c := range cases {
		var buf []byte
		addChar32(&buf, c.in)
		if string(buf) != string(c.want) {
			t.Errorf("addChar32(%#x) = %v, want %v", c.in, buf, c.want)
		}
	}
}

func TestAddEscapedData(t *testing.T) {
	var buf []byte
	n := addEscapedData(&buf, []byte{0x00, 0xff, 0x10})
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
	if string(buf) != "%00%ff%10" {
		t.Errorf("buf = %q, want %q", buf, "%00%ff%10")
	}
}

func TestAddArib8AsUtf8LatinASCIIPassthrough(t *testing.T) {
	// With isLatin set, GL defaults to the plain ASCII G0 set, so bytes in
	// the printable GL range pass through unescaped rather than going
	// through the fullwidth/JIS lookup tables.
	var buf []byte
	addArib8AsUtf8(&buf, []byte("Hi!"), nil, true)
	if string(buf) != "Hi!" {
		t.Errorf("buf = %q, want %q", buf, "Hi!")
	}
}

func TestAddArib8AsUtf8EscapesControlCode(t *testing.T) {
	// CS (0x0c) takes no argument bytes and is escaped like any other
	// control code below 0x20.
	var buf []byte
	addArib8AsUtf8(&buf, []byte{'A', 0x0c, 'B'}, nil, true)
	if string(buf) != "A%0cB" {
		t.Errorf("buf = %q, want %q", buf, "A%0cB")
	}
}

func TestAddUcsPassesThroughPlainUTF8(t *testing.T) {
	var buf []byte
	addUcs(&buf, []byte("hello"))
	if string(buf) != "hello" {
		t.Errorf("buf = %q, want %q", buf, "hello")
	}
}

func TestAddUcsEscapesBOMVerbatim(t *testing.T) {
	var buf []byte
	addUcs(&buf, []byte{0xfe, 0xff, 0x00, 0x41})
	if string(buf) != "%fe%ff%00%41" {
		t.Errorf("buf = %q, want %q", buf, "%fe%ff%00%41")
	}
}
