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

var _ = Describe("Tag", func() {
	It("treats identical class/number/constructed tags as equal", func() {
		Expect(Universal(TagInteger, false).Equal(Universal(TagInteger, false))).To(BeTrue())
	})

	It("distinguishes an implicit context tag from an explicit one of the same number", func() {
		implicit := ContextSpecific(0, false)
		explicit := ContextSpecific(0, true)
		Expect(implicit.Equal(explicit)).To(BeFalse())
	})

	It("renders a readable string for context-specific tags", func() {
		Expect(ContextSpecific(2, true).String()).To(ContainSubstring("[2]"))
	})
})

var _ = Describe("ByteRange", func() {
	It("reports emptiness and length", func() {
		br := NewByteRange([]byte{1, 2, 3})
		Expect(br.Len()).To(Equal(3))
		Expect(br.IsEmpty()).To(BeFalse())
		Expect(NewByteRange(nil).IsEmpty()).To(BeTrue())
	})

	It("slices without copying the backing array", func() {
		br := NewByteRange([]byte{1, 2, 3, 4, 5})
		Expect(br.Prefix(2).Bytes()).To(Equal([]byte{1, 2}))
		Expect(br.Suffix(3).Bytes()).To(Equal([]byte{4, 5}))
		Expect(br.Sub(1, 4).Bytes()).To(Equal([]byte{2, 3, 4}))
	})

	It("compares lexicographically", func() {
		a := NewByteRange([]byte{1, 2})
		b := NewByteRange([]byte{1, 3})
		Expect(a.Compare(b)).To(Equal(-1))
		Expect(a.Equal(NewByteRange([]byte{1, 2}))).To(BeTrue())
	})
})
