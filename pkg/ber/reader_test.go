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

package ber_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/orbitpki/x509path/pkg/ber"
)

var _ = Describe("Reader", func() {
	Describe("tag and length parsing", func() {
		It("reads a short-form SEQUENCE containing an INTEGER and a BOOLEAN", func() {
			der := []byte{
				0x30, 0x06, // SEQUENCE, length 6
				0x02, 0x01, 0x05, // INTEGER 5
				0x01, 0x01, 0xFF, // BOOLEAN true
			}
			r := NewReader(NewByteRange(der))
			seq, err := r.ReadSequence()
			Expect(err).NotTo(HaveOccurred())

			v, err := seq.ReadUnsignedInt()
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeEquivalentTo(5))

			b, err := seq.ReadBoolean()
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(BeTrue())

			Expect(seq.Done()).To(BeTrue())
		})

		It("rejects indefinite-length encoding", func() {
			der := []byte{0x30, 0x80, 0x00, 0x00}
			r := NewReader(NewByteRange(der))
			_, err := r.ReadTLV()
			Expect(err).To(HaveOccurred())
		})

		It("rejects a non-minimal long-form length", func() {
			// length byte 0x81 0x05 declares one long-form octet for a
			// value (5) that should have used short form.
			der := []byte{0x04, 0x81, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05}
			r := NewReader(NewByteRange(der))
			_, err := r.ReadTLV()
			Expect(err).To(HaveOccurred())
		})

		It("decodes a high tag number form", func() {
			der := []byte{0x1F, 0x81, 0x00, 0x01, 0x01}
			r := NewReader(NewByteRange(der))
			tlv, err := r.ReadTLV()
			Expect(err).NotTo(HaveOccurred())
			Expect(tlv.Tag.Class).To(Equal(ClassUniversal))
			Expect(tlv.Tag.Number).To(BeEquivalentTo(128))
		})

		It("fails on a declared length exceeding the remaining bytes", func() {
			der := []byte{0x04, 0x05, 0x01, 0x02}
			r := NewReader(NewByteRange(der))
			_, err := r.ReadTLV()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ReadTLVExpect", func() {
		It("restores the read position on a tag mismatch", func() {
			der := []byte{0x02, 0x01, 0x05}
			r := NewReader(NewByteRange(der))
			_, err := r.ReadTLVExpect(Universal(TagBoolean, false))
			Expect(err).To(HaveOccurred())

			v, err := r.ReadUnsignedInt()
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeEquivalentTo(5))
		})
	})

	Describe("optional context-specific elements", func() {
		It("reads an explicit [n] element when present", func() {
			der := []byte{0xA0, 0x03, 0x02, 0x01, 0x07}
			r := NewReader(NewByteRange(der))
			inner, ok, err := r.ReadOptionalExplicit(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			v, err := inner.ReadUnsignedInt()
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeEquivalentTo(7))
		})

		It("leaves the reader untouched when the expected tag is absent", func() {
			der := []byte{0x02, 0x01, 0x09}
			r := NewReader(NewByteRange(der))
			_, ok, err := r.ReadOptionalExplicit(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			v, err := r.ReadUnsignedInt()
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeEquivalentTo(9))
		})
	})

	Describe("ReadUnsignedIntBounded", func() {
		It("rejects a value over the bound", func() {
			der := []byte{0x02, 0x01, 0x0A}
			r := NewReader(NewByteRange(der))
			_, err := r.ReadUnsignedIntBounded(5)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("BigInt", func() {
		It("decodes a negative two's-complement INTEGER", func() {
			// -1 is encoded as a single 0xFF octet.
			Expect(BigInt([]byte{0xFF}).Int64()).To(BeEquivalentTo(-1))
		})

		It("decodes a positive INTEGER", func() {
			Expect(BigInt([]byte{0x01, 0x00}).Int64()).To(BeEquivalentTo(256))
		})
	})

	Describe("CheckMinimalInteger", func() {
		It("rejects a redundant leading 0x00 octet", func() {
			Expect(CheckMinimalInteger([]byte{0x00, 0x7F})).To(HaveOccurred())
		})

		It("accepts a leading 0x00 that disambiguates a sign bit", func() {
			Expect(CheckMinimalInteger([]byte{0x00, 0x80})).NotTo(HaveOccurred())
		})
	})

	Describe("ReadIA5String", func() {
		It("rejects non-ASCII content", func() {
			der := []byte{0x16, 0x01, 0xFF}
			r := NewReader(NewByteRange(der))
			_, err := r.ReadIA5String()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ReadTime", func() {
		It("parses a UTCTime", func() {
			der := append([]byte{0x17, 0x0D}, []byte("250102030405Z")...)
			r := NewReader(NewByteRange(der))
			tm, err := r.ReadTime()
			Expect(err).NotTo(HaveOccurred())
			Expect(tm.Year).To(Equal(2025))
			Expect(tm.Month).To(Equal(1))
		})

		It("parses a GeneralizedTime", func() {
			der := append([]byte{0x18, 0x0F}, []byte("20250102030405Z")...)
			r := NewReader(NewByteRange(der))
			tm, err := r.ReadTime()
			Expect(err).NotTo(HaveOccurred())
			Expect(tm.Year).To(Equal(2025))
		})
	})
})
