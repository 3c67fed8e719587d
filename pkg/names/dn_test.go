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

package names_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/orbitpki/x509path/pkg/names"
)

var _ = Describe("ParseName", func() {
	It("parses a single-RDN commonName sequence", func() {
		name, err := ParseName(byteRange(commonNameRDN("Test CA")))
		Expect(err).NotTo(HaveOccurred())
		Expect(name.RDNs).To(HaveLen(1))
		Expect(name.RDNs[0]).To(HaveLen(1))
		Expect(name.RDNs[0][0].Raw).To(Equal("Test CA"))
	})

	It("case-folds and compresses whitespace for comparison", func() {
		a, err := ParseName(byteRange(commonNameRDN("Test  CA")))
		Expect(err).NotTo(HaveOccurred())
		b, err := ParseName(byteRange(commonNameRDN("test ca")))
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Equal(b)).To(BeTrue())
	})

	It("reports IsEmpty for a zero-RDN name", func() {
		name := &Name{}
		Expect(name.IsEmpty()).To(BeTrue())
	})

	It("rejects a character outside the PrintableString alphabet", func() {
		_, err := ParseName(byteRange(commonNameRDN("bad_value"))) // underscore is not permitted
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("VerifyNameInSubtree", func() {
	It("matches a name whose leading RDNs equal the subtree", func() {
		sub, _ := ParseName(byteRange(commonNameRDN("Example")))
		Expect(VerifyNameInSubtree(sub, sub)).To(BeTrue())
	})

	It("rejects a name shorter than the subtree", func() {
		subtree, _ := ParseName(byteRange(commonNameRDN("Example")))
		short := &Name{}
		Expect(VerifyNameInSubtree(short, subtree)).To(BeFalse())
	})
})
