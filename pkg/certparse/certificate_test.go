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

package certparse_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/errset"
)

var _ = Describe("Create", func() {
	It("parses a minimal self-signed v3 certificate with no extensions", func() {
		b := minimalV3Builder()
		der, _, err := b.Build()
		Expect(err).NotTo(HaveOccurred())

		pc, errs := Create(der, Options{})
		Expect(errs.Empty()).To(BeTrue())
		Expect(pc).NotTo(BeNil())
		Expect(pc.TBS.Version).To(Equal(V3))
		Expect(pc.IssuerName.Equal(pc.SubjectName)).To(BeTrue())
	})

	It("interprets BasicConstraints, KeyUsage and SubjectAltName", func() {
		b := minimalV3Builder()
		b.HasBasicConstraints = true
		b.IsCA = true
		b.BasicConstraintsCritical = true
		b.KeyUsage = KeyUsageKeyCertSign | KeyUsageDigitalSignature
		b.KeyUsageCritical = true
		b.DNSNames = []string{"www.example.com"}
		der, _, err := b.Build()
		Expect(err).NotTo(HaveOccurred())

		pc, errs := Create(der, Options{})
		Expect(errs.Empty()).To(BeTrue())
		Expect(pc.BasicConstraints.IsCA).To(BeTrue())
		Expect(*pc.KeyUsage & KeyUsageKeyCertSign).NotTo(BeZero())
		Expect(pc.SubjectAltName.DNSName).To(ConsistOf("www.example.com"))
		Expect(pc.IsExtensionCritical([]byte{0x55, 0x1D, 0x13})).To(BeTrue())
		Expect(pc.HasExtension([]byte{0x55, 0x1D, 0x11})).To(BeTrue())
		Expect(pc.HasExtension([]byte{0x55, 0x1D, 0x1E})).To(BeFalse())
	})

	It("interprets NameConstraints", func() {
		b := minimalV3Builder()
		b.HasBasicConstraints = true
		b.IsCA = true
		b.PermittedDNS = []string{"example.com"}
		der, _, err := b.Build()
		Expect(err).NotTo(HaveOccurred())

		pc, errs := Create(der, Options{})
		Expect(errs.Empty()).To(BeTrue())
		Expect(pc.NameConstraints).NotTo(BeNil())
		Expect(pc.NameConstraints.PermittedSubtrees.DNSName).To(ConsistOf("example.com"))
	})

	It("rejects a malformed Certificate outright, with no partial object", func() {
		pc, errs := Create([]byte{0x01, 0x02}, Options{})
		Expect(pc).To(BeNil())
		Expect(errs.ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
	})

	It("rejects an oversized serial number unless AllowInvalidSerialNumbers is set", func() {
		oversized := make([]byte, 21)
		oversized[0] = 0x01
		tbsValue := tbsContentWithSerial(oversized)
		der := certificateBytes(tbsValue)

		pc, errs := Create(der, Options{})
		Expect(pc).To(BeNil())
		Expect(errs.ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())

		pc, errs = Create(der, Options{AllowInvalidSerialNumbers: true})
		Expect(pc).NotTo(BeNil())
		Expect(errs.ContainsAnyErrorWithSeverity(errset.Warning)).To(BeTrue())
	})

	It("rejects an all-zero (non-positive) serial number unless AllowInvalidSerialNumbers is set", func() {
		tbsValue := tbsContentWithSerial([]byte{0x00})
		der := certificateBytes(tbsValue)

		pc, errs := Create(der, Options{})
		Expect(pc).To(BeNil())
		Expect(errs.ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())

		pc, errs = Create(der, Options{AllowInvalidSerialNumbers: true})
		Expect(pc).NotTo(BeNil())
		Expect(errs.ContainsAnyErrorWithSeverity(errset.Warning)).To(BeTrue())
	})
})
