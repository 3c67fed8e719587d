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

	"github.com/orbitpki/x509path/pkg/errset"
	"github.com/orbitpki/x509path/pkg/gennames"
	. "github.com/orbitpki/x509path/pkg/names"
)

// dnsGeneralName builds a dNSName [2] IA5String GeneralName.
func dnsGeneralName(domain string) []byte {
	return tlv(0x82, []byte(domain))
}

// generalSubtree wraps a single GeneralName in a GeneralSubtree SEQUENCE
// (base only; minimum/maximum omitted, as DER requires).
func generalSubtree(generalName []byte) []byte {
	return tlv(0x30, generalName)
}

// nameConstraintsDNS builds a NameConstraints extension value with a single
// dNSName entry in whichever of permittedSubtrees ([0]) / excludedSubtrees
// ([1]) the caller requests.
func nameConstraintsDNS(permitted, excluded string) []byte {
	var content []byte
	if permitted != "" {
		content = append(content, tlv(0xA0, generalSubtree(dnsGeneralName(permitted)))...)
	}
	if excluded != "" {
		content = append(content, tlv(0xA1, generalSubtree(dnsGeneralName(excluded)))...)
	}
	return tlv(0x30, content)
}

var _ = Describe("CreateNameConstraints", func() {
	It("parses a permittedSubtrees-only extension", func() {
		nc, err := CreateNameConstraints(byteRange(nameConstraintsDNS("example.com", "")), false)
		Expect(err).NotTo(HaveOccurred())
		Expect(nc.PermittedSubtrees.DNSName).To(ConsistOf("example.com"))
		Expect(nc.ExcludedSubtrees).To(BeNil())
	})

	It("rejects an extension with neither permitted nor excluded subtrees", func() {
		_, err := CreateNameConstraints(byteRange(tlv(0x30, nil)), false)
		Expect(err).To(HaveOccurred())
	})

	Describe("IsPermittedCert", func() {
		It("accepts a DNS SAN within the permitted subtree", func() {
			nc, err := CreateNameConstraints(byteRange(nameConstraintsDNS("example.com", "")), false)
			Expect(err).NotTo(HaveOccurred())

			sans := &gennames.GeneralNames{DNSName: []string{"www.example.com"}, PresentNameTypes: gennames.DNSName}
			subject := &Name{}

			var errs errset.Set
			IsPermittedCert(nc, subject, sans, &errs)
			Expect(errs.Empty()).To(BeTrue())
		})

		It("rejects a DNS SAN outside the permitted subtree", func() {
			nc, err := CreateNameConstraints(byteRange(nameConstraintsDNS("example.com", "")), false)
			Expect(err).NotTo(HaveOccurred())

			sans := &gennames.GeneralNames{DNSName: []string{"evil.org"}, PresentNameTypes: gennames.DNSName}
			subject := &Name{}

			var errs errset.Set
			IsPermittedCert(nc, subject, sans, &errs)
			Expect(errs.ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})

		It("rejects a DNS SAN matching an excluded subtree even if no permitted subtree is set", func() {
			nc, err := CreateNameConstraints(byteRange(nameConstraintsDNS("", "excluded.example.com")), false)
			Expect(err).NotTo(HaveOccurred())

			sans := &gennames.GeneralNames{DNSName: []string{"host.excluded.example.com"}, PresentNameTypes: gennames.DNSName}
			subject := &Name{}

			var errs errset.Set
			IsPermittedCert(nc, subject, sans, &errs)
			Expect(errs.ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})

		It("fails closed (High) rather than silently skipping enforcement when the name×constraint count exceeds the quadratic bound", func() {
			manyNames := make([]string, 1100)
			for i := range manyNames {
				manyNames[i] = "www.example.com"
			}
			manyConstraints := make([]string, 1100)
			for i := range manyConstraints {
				manyConstraints[i] = "evil.org"
			}

			nc := &NameConstraints{PermittedSubtrees: &gennames.GeneralNames{DNSName: manyConstraints}}
			sans := &gennames.GeneralNames{DNSName: manyNames, PresentNameTypes: gennames.DNSName}
			subject := &Name{}

			var errs errset.Set
			IsPermittedCert(nc, subject, sans, &errs)
			Expect(errs.ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})
	})
})
