/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package wire_test

import (
	"testing"

	"github.com/nabbar/udpmesh/wire"
)

func TestCRC32Vectors(t *testing.T) {
	tests := []struct {
		nam string
		in  []byte
		exp uint32
	}{
		{"empty", []byte{}, 0x00000000},
		{"one zero byte", []byte{0x00}, 0xd202ef8d},
		{"covfefe", []byte("covfefe"), 0xf62cd904},
		{"eight zero bytes", make([]byte, 8), 0x6522df69},
		{"alphabet", []byte("abcdefghijklmnopqrstuvwxyz"), 0x4c2750bd},
		{"pangram", []byte("The quick brown fox jumps over the lazy dog."), 0x519025e9},
	}

	for _, tc := range tests {
		t.Run(tc.nam, func(t *testing.T) {
			if got := wire.CRC32(tc.in); got != tc.exp {
				t.Errorf("CRC32(%q) = %#08x, want %#08x", tc.in, got, tc.exp)
			}
		})
	}
}

func TestCRC32Incremental(t *testing.T) {
	whole := []byte("abcdefghijklmnopqrstuvwxyz")

	want := wire.CRC32(whole)

	got := uint32(0)
	for _, b := range whole {
		got = wire.CRC32Update([]byte{b}, got)
	}

	if got != want {
		t.Errorf("byte-at-a-time CRC32 = %#08x, want %#08x", got, want)
	}
}

func TestCRC16CheckValue(t *testing.T) {
	// The standard CRC-16/CCITT-FALSE check value for the nine ASCII
	// digits "123456789".
	got := wire.CRC16([]byte("123456789"))
	want := uint16(0x29B1)

	if got != want {
		t.Errorf("CRC16(\"123456789\") = %#04x, want %#04x", got, want)
	}
}

func TestCRC16Incremental(t *testing.T) {
	whole := []byte("the quick brown fox")

	want := wire.CRC16(whole)

	got := wire.CRC16Update(nil, 0xFFFF)
	for _, b := range whole {
		got = wire.CRC16Update([]byte{b}, got)
	}

	if got != want {
		t.Errorf("byte-at-a-time CRC16 = %#04x, want %#04x", got, want)
	}
}
