// Copyright © 2025 The Homeport Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package ber

import "fmt"

// BitString is an ordered sequence of bits with a recorded unused-bit
// count (0-7). Indexing is MSB-first: bit 0 is the high bit of the first
// byte.
type BitString struct {
	Bytes     []byte
	UnusedBits int
}

// BitLen returns the number of significant bits.
func (b BitString) BitLen() int {
	if len(b.Bytes) == 0 {
		return 0
	}
	return len(b.Bytes)*8 - b.UnusedBits
}

// At reports the value of bit i (0 = most significant bit of the first
// byte). Panics if i is out of range.
func (b BitString) At(i int) bool {
	if i < 0 || i >= b.BitLen() {
		panic(fmt.Sprintf("ber: bit index %d out of range (len %d)", i, b.BitLen()))
	}
	byteIdx := i / 8
	bitIdx := uint(7 - i%8)
	return b.Bytes[byteIdx]&(1<<bitIdx) != 0
}

// validateTrailingZero checks the DER requirement that unused trailing bits
// in the final octet are zero.
func validateTrailingZero(content []byte, unused int) error {
	if unused == 0 || len(content) == 0 {
		return nil
	}
	last := content[len(content)-1]
	mask := byte(1<<uint(unused)) - 1
	if last&mask != 0 {
		return fmt.Errorf("ber: bit string has non-zero unused trailing bits")
	}
	return nil
}

// ParseBitStringContent parses the content of a BIT STRING (the unused-bit
// count octet followed by the bit octets) and validates it per DER. It is
// exported for callers that already hold raw BIT STRING content from an
// IMPLICIT-tagged field, where the tag has been stripped by the caller and
// cannot be re-read through ReadBitString.
func ParseBitStringContent(content []byte) (BitString, error) {
	return newBitString(content)
}

func newBitString(content []byte) (BitString, error) {
	if len(content) == 0 {
		return BitString{}, fmt.Errorf("ber: bit string content is empty, missing unused-bits octet")
	}
	unused := int(content[0])
	if unused > 7 {
		return BitString{}, fmt.Errorf("ber: bit string unused-bits count %d out of range 0..7", unused)
	}
	body := content[1:]
	if unused > 0 && len(body) == 0 {
		return BitString{}, fmt.Errorf("ber: bit string declares unused bits but has no content octets")
	}
	if err := validateTrailingZero(body, unused); err != nil {
		return BitString{}, err
	}
	return BitString{Bytes: body, UnusedBits: unused}, nil
}
