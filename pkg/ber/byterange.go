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

// Package ber provides bounds-checked, allocation-free traversal of DER
// tag-length-value elements over a borrowed byte slice, plus the handful of
// value types (byte ranges, bit strings, and normalized time values) that
// the rest of this module builds on.
package ber

import "bytes"

// ByteRange is an immutable view over a contiguous byte sequence. It does
// not own its bytes; it borrows from a backing buffer whose lifetime must
// exceed any ByteRange derived from it.
type ByteRange struct {
	data []byte
}

// NewByteRange wraps the given slice. The caller retains ownership; the
// ByteRange must not outlive it.
func NewByteRange(data []byte) ByteRange {
	return ByteRange{data: data}
}

// Len returns the number of bytes in the range.
func (b ByteRange) Len() int { return len(b.data) }

// Bytes returns the raw bytes of the range. Callers must not mutate the
// returned slice.
func (b ByteRange) Bytes() []byte { return b.data }

// IsEmpty reports whether the range has zero length.
func (b ByteRange) IsEmpty() bool { return len(b.data) == 0 }

// Prefix returns the first n bytes as a new ByteRange without copying.
// Panics if n is out of range, matching slice semantics.
func (b ByteRange) Prefix(n int) ByteRange { return ByteRange{data: b.data[:n]} }

// Suffix returns the bytes from index n to the end without copying.
func (b ByteRange) Suffix(n int) ByteRange { return ByteRange{data: b.data[n:]} }

// Sub returns the subrange [from, to) without copying.
func (b ByteRange) Sub(from, to int) ByteRange { return ByteRange{data: b.data[from:to]} }

// Equal reports byte-wise equality.
func (b ByteRange) Equal(other ByteRange) bool { return bytes.Equal(b.data, other.data) }

// Compare returns the lexicographic ordering of the two ranges, following
// the same contract as bytes.Compare.
func (b ByteRange) Compare(other ByteRange) int { return bytes.Compare(b.data, other.data) }
