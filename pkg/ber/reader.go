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

import (
	"fmt"
	"math/big"
)

// Reader performs bounds-checked sequential extraction of DER
// tag-length-value elements over a ByteRange. A Reader never panics on
// malformed input and never reads past the end of its range; every method
// returns an error instead.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of the given range.
func NewReader(br ByteRange) *Reader {
	return &Reader{data: br.Bytes()}
}

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Done reports whether the reader has consumed every byte.
func (r *Reader) Done() bool { return r.Remaining() == 0 }

// TLV is one decoded tag-length-value element.
type TLV struct {
	Tag     Tag
	Value   ByteRange
	rawFrom int
	rawTo   int
	owner   *Reader
}

// Raw returns the header and value bytes together, suitable for
// re-embedding (e.g. the tbs-certificate TLV fed into a signature check).
func (t TLV) Raw() ByteRange {
	return ByteRange{data: t.owner.data[t.rawFrom:t.rawTo]}
}

// readTagAndLength decodes the tag octet(s) and length octet(s) starting at
// r.pos, without consuming the value. It returns the tag, the content
// length, and the offset of the first content byte.
func (r *Reader) readTagAndLength() (Tag, int, int, error) {
	start := r.pos
	if r.Remaining() < 2 {
		return Tag{}, 0, 0, fmt.Errorf("ber: truncated header at offset %d", start)
	}

	first := r.data[r.pos]
	class := Class((first & 0xC0) >> 6)
	constructed := first&0x20 != 0
	number := uint32(first & 0x1F)
	r.pos++

	if number == 0x1F {
		// High tag number form: subsequent octets are base-128, MSB
		// continuation bit, little tolerance for absurdly large tags.
		number = 0
		count := 0
		for {
			if r.Remaining() < 1 {
				r.pos = start
				return Tag{}, 0, 0, fmt.Errorf("ber: truncated high tag number at offset %d", start)
			}
			b := r.data[r.pos]
			r.pos++
			number = number<<7 | uint32(b&0x7F)
			count++
			if count > 5 {
				r.pos = start
				return Tag{}, 0, 0, fmt.Errorf("ber: tag number too large at offset %d", start)
			}
			if b&0x80 == 0 {
				break
			}
		}
	}

	if r.Remaining() < 1 {
		r.pos = start
		return Tag{}, 0, 0, fmt.Errorf("ber: truncated length at offset %d", start)
	}

	lenByte := r.data[r.pos]
	r.pos++

	var length int
	switch {
	case lenByte&0x80 == 0:
		length = int(lenByte)

	case lenByte == 0x80:
		r.pos = start
		return Tag{}, 0, 0, fmt.Errorf("ber: indefinite-length encoding is not permitted in DER (offset %d)", start)

	default:
		numBytes := int(lenByte & 0x7F)
		if numBytes > 4 {
			r.pos = start
			return Tag{}, 0, 0, fmt.Errorf("ber: length encoding too wide at offset %d", start)
		}
		if r.Remaining() < numBytes {
			r.pos = start
			return Tag{}, 0, 0, fmt.Errorf("ber: truncated long-form length at offset %d", start)
		}
		if numBytes == 0 {
			r.pos = start
			return Tag{}, 0, 0, fmt.Errorf("ber: long-form length with zero octets at offset %d", start)
		}
		if r.data[r.pos] == 0 {
			r.pos = start
			return Tag{}, 0, 0, fmt.Errorf("ber: length encoding is not minimal at offset %d", start)
		}
		l := 0
		for i := 0; i < numBytes; i++ {
			l = l<<8 | int(r.data[r.pos])
			r.pos++
		}
		if l < 0x80 {
			r.pos = start
			return Tag{}, 0, 0, fmt.Errorf("ber: long-form length %d should use short form", l)
		}
		length = l
	}

	if length > r.Remaining() {
		r.pos = start
		return Tag{}, 0, 0, fmt.Errorf("ber: declared length %d exceeds remaining %d bytes", length, r.Remaining())
	}

	return Tag{Class: class, Constructed: constructed, Number: number}, length, r.pos, nil
}

// ReadTLV reads and consumes the next tag-length-value element.
func (r *Reader) ReadTLV() (TLV, error) {
	start := r.pos
	tag, length, contentStart, err := r.readTagAndLength()
	if err != nil {
		return TLV{}, err
	}
	r.pos = contentStart + length
	return TLV{
		Tag:     tag,
		Value:   ByteRange{data: r.data[contentStart : contentStart+length]},
		rawFrom: start,
		rawTo:   r.pos,
		owner:   r,
	}, nil
}

// ReadTLVExpect reads the next TLV and fails if its tag does not match.
func (r *Reader) ReadTLVExpect(tag Tag) (TLV, error) {
	mark := r.pos
	tlv, err := r.ReadTLV()
	if err != nil {
		return TLV{}, err
	}
	if !tlv.Tag.Equal(tag) {
		r.pos = mark
		return TLV{}, fmt.Errorf("ber: expected tag %s, found %s", tag, tlv.Tag)
	}
	return tlv, nil
}

// Peek reads the next TLV without advancing the reader.
func (r *Reader) Peek() (TLV, error) {
	mark := r.pos
	tlv, err := r.ReadTLV()
	r.pos = mark
	return tlv, err
}

// PeekTag reports the tag of the next element, or false if the reader is
// exhausted or the header is malformed.
func (r *Reader) PeekTag() (Tag, bool) {
	tlv, err := r.Peek()
	if err != nil {
		return Tag{}, false
	}
	return tlv.Tag, true
}

// ReadOptionalExplicit consumes and returns the inner value of an element
// tagged with the given explicit context-specific tag, if present. If the
// next element does not carry that tag, the reader is left untouched and ok
// is false.
func (r *Reader) ReadOptionalExplicit(number uint32) (inner *Reader, ok bool, err error) {
	mark := r.pos
	tag, peeked := r.PeekTag()
	if !peeked || !tag.Equal(ContextSpecific(number, true)) {
		return nil, false, nil
	}
	outer, err := r.ReadTLV()
	if err != nil {
		r.pos = mark
		return nil, false, err
	}
	return NewReader(outer.Value), true, nil
}

// ReadOptionalImplicit consumes the next element if it carries the given
// implicit (primitive or constructed, caller-specified) context-specific
// tag, returning its raw content bytes.
func (r *Reader) ReadOptionalImplicit(number uint32, constructed bool) (value ByteRange, ok bool, err error) {
	mark := r.pos
	tag, peeked := r.PeekTag()
	if !peeked || !tag.Equal(ContextSpecific(number, constructed)) {
		return ByteRange{}, false, nil
	}
	tlv, err := r.ReadTLV()
	if err != nil {
		r.pos = mark
		return ByteRange{}, false, err
	}
	return tlv.Value, true, nil
}

// ReadBoolean reads a BOOLEAN, enforcing DER's one-byte, 0x00-or-0xFF
// encoding. It does not know the field's ASN.1 DEFAULT: callers reading a
// field that has one reject an explicitly encoded default value themselves.
func (r *Reader) ReadBoolean() (bool, error) {
	tlv, err := r.ReadTLVExpect(Universal(TagBoolean, false))
	if err != nil {
		return false, err
	}
	content := tlv.Value.Bytes()
	if len(content) != 1 {
		return false, fmt.Errorf("ber: boolean must be one byte, got %d", len(content))
	}
	switch content[0] {
	case 0x00:
		return false, nil
	case 0xFF:
		return true, nil
	default:
		return false, fmt.Errorf("ber: boolean has invalid octet 0x%02x", content[0])
	}
}

// ReadIntegerBytesLenient reads the content bytes of an INTEGER without
// checking DER's minimal-encoding rule, for fields (such as
// certificate serial numbers) whose minimality is validated separately
// with a caller-configurable severity rather than treated as an
// unconditional parse failure.
func (r *Reader) ReadIntegerBytesLenient() (ByteRange, error) {
	tlv, err := r.ReadTLVExpect(Universal(TagInteger, false))
	if err != nil {
		return ByteRange{}, err
	}
	if tlv.Value.IsEmpty() {
		return ByteRange{}, fmt.Errorf("ber: integer has empty content")
	}
	return tlv.Value, nil
}

// ReadIntegerBytes reads the content bytes of an INTEGER without
// interpreting them as a number, but does verify DER's minimal-encoding
// rule.
func (r *Reader) ReadIntegerBytes() (ByteRange, error) {
	tlv, err := r.ReadTLVExpect(Universal(TagInteger, false))
	if err != nil {
		return ByteRange{}, err
	}
	if err := CheckMinimalInteger(tlv.Value.Bytes()); err != nil {
		return ByteRange{}, err
	}
	return tlv.Value, nil
}

// CheckMinimalInteger validates DER's minimal-encoding rule for INTEGER
// content, exported for callers (e.g. the serial-number check) that read
// INTEGER content leniently and apply this rule with their own severity.
func CheckMinimalInteger(content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("ber: integer has empty content")
	}
	if len(content) > 1 {
		if (content[0] == 0x00 && content[1]&0x80 == 0) || (content[0] == 0xFF && content[1]&0x80 != 0) {
			return fmt.Errorf("ber: integer is not minimally encoded")
		}
	}
	return nil
}

// ReadUnsignedInt reads a non-negative INTEGER bounded by uint64, failing
// if the value is negative or does not fit.
func (r *Reader) ReadUnsignedInt() (uint64, error) {
	content, err := r.ReadIntegerBytes()
	if err != nil {
		return 0, err
	}
	b := content.Bytes()
	if len(b) > 0 && b[0]&0x80 != 0 {
		return 0, fmt.Errorf("ber: expected non-negative integer, sign bit set")
	}
	trimmed := b
	for len(trimmed) > 1 && trimmed[0] == 0 {
		trimmed = trimmed[1:]
	}
	if len(trimmed) > 9 || (len(trimmed) == 9 && trimmed[0] != 0) {
		return 0, fmt.Errorf("ber: integer too large for uint64")
	}
	var v uint64
	for _, byt := range trimmed {
		v = v<<8 | uint64(byt)
	}
	return v, nil
}

// ReadUnsignedIntBounded reads a non-negative INTEGER and requires it to
// fit within [0, max].
func (r *Reader) ReadUnsignedIntBounded(max uint64) (uint64, error) {
	v, err := r.ReadUnsignedInt()
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, fmt.Errorf("ber: integer %d exceeds bound %d", v, max)
	}
	return v, nil
}

// BigInt converts arbitrary-length INTEGER content to a *big.Int, treating
// the bytes as two's-complement per X.690.
func BigInt(content []byte) *big.Int {
	if len(content) == 0 {
		return big.NewInt(0)
	}
	result := new(big.Int)
	if content[0]&0x80 == 0 {
		result.SetBytes(content)
		return result
	}
	// Negative: invert via two's complement.
	notBytes := make([]byte, len(content))
	for i, b := range content {
		notBytes[i] = ^b
	}
	tmp := new(big.Int).SetBytes(notBytes)
	tmp.Add(tmp, big.NewInt(1))
	result.Neg(tmp)
	return result
}

// ReadOctetString reads an OCTET STRING's content bytes.
func (r *Reader) ReadOctetString() (ByteRange, error) {
	tlv, err := r.ReadTLVExpect(Universal(TagOctetString, false))
	if err != nil {
		return ByteRange{}, err
	}
	return tlv.Value, nil
}

// ReadObjectIdentifier reads an OBJECT IDENTIFIER's raw DER content bytes.
// Comparisons between OIDs are done on these raw bytes (identity
// comparison), matching spec's "OID list is returned as raw bytes for
// identity comparison".
func (r *Reader) ReadObjectIdentifier() (ByteRange, error) {
	tlv, err := r.ReadTLVExpect(Universal(TagOID, false))
	if err != nil {
		return ByteRange{}, err
	}
	if tlv.Value.IsEmpty() {
		return ByteRange{}, fmt.Errorf("ber: object identifier has empty content")
	}
	return tlv.Value, nil
}

// ReadBitString reads a BIT STRING and validates the unused-bit count and
// zero-masked trailing bits.
func (r *Reader) ReadBitString() (BitString, error) {
	tlv, err := r.ReadTLVExpect(Universal(TagBitString, false))
	if err != nil {
		return BitString{}, err
	}
	return newBitString(tlv.Value.Bytes())
}

// ReadSequence reads a SEQUENCE header and returns a Reader over its
// content for further traversal.
func (r *Reader) ReadSequence() (*Reader, error) {
	tlv, err := r.ReadTLVExpect(Universal(TagSequence, true))
	if err != nil {
		return nil, err
	}
	return NewReader(tlv.Value), nil
}

// ReadTime reads a Time value encoded as UTCTime or GeneralizedTime,
// normalizing both to the same representation. Any other tag is an error.
func (r *Reader) ReadTime() (Time, error) {
	tag, ok := r.PeekTag()
	if !ok {
		return Time{}, fmt.Errorf("ber: expected a time value, reader exhausted")
	}
	switch {
	case tag.Equal(Universal(TagUTCTime, false)):
		tlv, err := r.ReadTLV()
		if err != nil {
			return Time{}, err
		}
		return ParseUTCTime(string(tlv.Value.Bytes()))

	case tag.Equal(Universal(TagGeneralizedTime, false)):
		tlv, err := r.ReadTLV()
		if err != nil {
			return Time{}, err
		}
		return ParseGeneralizedTime(string(tlv.Value.Bytes()))

	default:
		return Time{}, fmt.Errorf("ber: unsupported time tag %s", tag)
	}
}

// ReadIA5String reads an IA5String (the universal IA5String tag only; other
// string types are rejected) and verifies every byte is ASCII (< 0x80).
func (r *Reader) ReadIA5String() (string, error) {
	tlv, err := r.ReadTLVExpect(Universal(TagIA5String, false))
	if err != nil {
		return "", err
	}
	return asciiString(tlv.Value.Bytes())
}

func asciiString(b []byte) (string, error) {
	for _, c := range b {
		if c >= 0x80 {
			return "", fmt.Errorf("ber: string contains non-ASCII byte 0x%02x", c)
		}
	}
	return string(b), nil
}
