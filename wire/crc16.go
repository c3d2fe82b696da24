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

package wire

// CRC-16/CCITT-FALSE: poly 0x1021, init 0xFFFF, no input/output reflection,
// no final xor. See DESIGN.md for why this replaces the control-frame CRC
// the original library used.
const crc16Poly = 0x1021

// crc16InitCCITTFalse is the conventional seed for a whole-message
// CRC-16/CCITT-FALSE computation.
const crc16InitCCITTFalse uint16 = 0xFFFF

var crc16Table [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		c := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if c&0x8000 != 0 {
				c = (c << 1) ^ crc16Poly
			} else {
				c <<= 1
			}
		}
		crc16Table[i] = c
	}
}

// CRC16Update folds data into seed, byte at a time, through the
// CRC-16/CCITT-FALSE table. It supports incremental extension:
// CRC16Update(b, CRC16Update(a, seed)) == CRC16Update(append(a, b...), seed).
func CRC16Update(data []byte, seed uint16) uint16 {
	crc := seed
	for _, b := range data {
		crc = (crc << 8) ^ crc16Table[byte(crc>>8)^b]
	}
	return crc
}

// CRC16 is CRC16Update seeded with the CCITT-FALSE initial register value,
// the convention the control-frame CRC field is computed under.
func CRC16(data []byte) uint16 {
	return CRC16Update(data, crc16InitCCITTFalse)
}
