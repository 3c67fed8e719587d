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
)

var (
	oidCPSPointer = []byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x02, 0x01}
	oidAnyPolicy  = []byte{0x55, 0x1D, 0x20, 0x00}
)

var _ = Describe("ParseBasicConstraints", func() {
	It("accepts an all-default (empty) SEQUENCE", func() {
		bc, err := ParseBasicConstraints(byteRange(dseq()))
		Expect(err).NotTo(HaveOccurred())
		Expect(bc.IsCA).To(BeFalse())
		Expect(bc.HasPathLen).To(BeFalse())
	})

	It("parses cA TRUE with a pathLenConstraint", func() {
		bc, err := ParseBasicConstraints(byteRange(dseq(dtlv(0x01, []byte{0xFF}), dint(2))))
		Expect(err).NotTo(HaveOccurred())
		Expect(bc.IsCA).To(BeTrue())
		Expect(bc.HasPathLen).To(BeTrue())
		Expect(bc.PathLenConstraint).To(Equal(2))
	})

	It("rejects an explicitly-encoded cA FALSE (DER default violation)", func() {
		_, err := ParseBasicConstraints(byteRange(dseq(dtlv(0x01, []byte{0x00}))))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseKeyUsage", func() {
	It("decodes digitalSignature and keyCertSign", func() {
		// bit0 (digitalSignature) and bit5 (keyCertSign) set, 2 unused bits.
		mask, err := ParseKeyUsage(byteRange(dtlv(0x03, []byte{0x02, 0x84})))
		Expect(err).NotTo(HaveOccurred())
		Expect(mask & KeyUsageDigitalSignature).NotTo(BeZero())
		Expect(mask & KeyUsageKeyCertSign).NotTo(BeZero())
	})

	It("rejects an all-zero-length bit string", func() {
		_, err := ParseKeyUsage(byteRange(dtlv(0x03, []byte{0x00})))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseExtendedKeyUsage", func() {
	It("decodes a non-empty SEQUENCE OF OID and supports Has", func() {
		eku, err := ParseExtendedKeyUsage(byteRange(dseq(doid(OidServerAuth))))
		Expect(err).NotTo(HaveOccurred())
		Expect(eku.Has(OidServerAuth)).To(BeTrue())
		Expect(eku.Has(OidClientAuth)).To(BeFalse())
	})

	It("rejects an empty SEQUENCE", func() {
		_, err := ParseExtendedKeyUsage(byteRange(dseq()))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseCertificatePolicies", func() {
	It("decodes a policy OID with an allowed CPS-pointer qualifier under critical", func() {
		qualifier := dseq(doid(oidCPSPointer), dtlv(0x16, []byte("https://example.com/cps")))
		policyInfo := dseq(doid(oidAnyPolicy), dseq(qualifier))
		cp, err := ParseCertificatePolicies(byteRange(dseq(policyInfo)), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(cp.OIDs).To(HaveLen(1))
	})

	It("rejects a disallowed qualifier OID under a critical extension", func() {
		qualifier := dseq(doid([]byte{0x01, 0x02, 0x03}), dtlv(0x16, []byte("x")))
		policyInfo := dseq(doid(oidAnyPolicy), dseq(qualifier))
		_, err := ParseCertificatePolicies(byteRange(dseq(policyInfo)), true)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an empty policies SEQUENCE", func() {
		_, err := ParseCertificatePolicies(byteRange(dseq()), false)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParsePolicyMappings", func() {
	It("decodes one issuer/subject domain policy pair", func() {
		item := dseq(doid([]byte{0x01, 0x01}), doid([]byte{0x01, 0x02}))
		mappings, err := ParsePolicyMappings(byteRange(dseq(item)))
		Expect(err).NotTo(HaveOccurred())
		Expect(mappings).To(HaveLen(1))
	})

	It("rejects an empty SEQUENCE", func() {
		_, err := ParsePolicyMappings(byteRange(dseq()))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParsePolicyConstraints", func() {
	It("decodes requireExplicitPolicy alone", func() {
		pc, err := ParsePolicyConstraints(byteRange(dseq(dtlv(0x80, []byte{0x00}))))
		Expect(err).NotTo(HaveOccurred())
		Expect(pc.RequireExplicitPolicy).NotTo(BeNil())
		Expect(*pc.RequireExplicitPolicy).To(Equal(uint64(0)))
		Expect(pc.InhibitPolicyMapping).To(BeNil())
	})

	It("rejects an empty SEQUENCE (neither field present)", func() {
		_, err := ParsePolicyConstraints(byteRange(dseq()))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseInhibitAnyPolicy", func() {
	It("decodes the skip count", func() {
		skip, err := ParseInhibitAnyPolicy(byteRange(dint(3)))
		Expect(err).NotTo(HaveOccurred())
		Expect(skip).To(Equal(uint64(3)))
	})
})

var _ = Describe("ParseAuthorityInfoAccess", func() {
	It("keeps only caIssuers/ocsp URIs", func() {
		caIssuers := dseq(doid([]byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x30, 0x02}), dtlv(0x86, []byte("http://ca.example.com/issuer.crt")))
		ocsp := dseq(doid([]byte{0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x30, 0x01}), dtlv(0x86, []byte("http://ocsp.example.com")))
		aia, err := ParseAuthorityInfoAccess(byteRange(dseq(caIssuers, ocsp)))
		Expect(err).NotTo(HaveOccurred())
		Expect(aia.CAIssuers).To(ConsistOf("http://ca.example.com/issuer.crt"))
		Expect(aia.OCSP).To(ConsistOf("http://ocsp.example.com"))
	})
})

var _ = Describe("ParseCRLDistributionPoints", func() {
	It("decodes a distributionPoint fullName", func() {
		fullName := dtlv(0xA0, dtlv(0xA0, dtlv(0x86, []byte("http://crl.example.com/ca.crl"))))
		point := dseq(fullName)
		points, err := ParseCRLDistributionPoints(byteRange(dseq(point)))
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(1))
		Expect(points[0].FullName.UniformResourceIdentifier).To(ConsistOf("http://crl.example.com/ca.crl"))
	})

	It("rejects a DistributionPoint with neither distributionPoint nor cRLIssuer", func() {
		_, err := ParseCRLDistributionPoints(byteRange(dseq(dseq())))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseAuthorityKeyIdentifier", func() {
	It("decodes a bare keyIdentifier", func() {
		aki, err := ParseAuthorityKeyIdentifier(byteRange(dseq(dtlv(0x80, []byte{0x01, 0x02, 0x03}))))
		Expect(err).NotTo(HaveOccurred())
		Expect(aki.KeyIdentifier.Bytes()).To(Equal([]byte{0x01, 0x02, 0x03}))
	})

	It("rejects authorityCertIssuer without authorityCertSerialNumber", func() {
		issuer := dtlv(0xA1, dtlv(0xA4, dname("Test CA")))
		_, err := ParseAuthorityKeyIdentifier(byteRange(dseq(issuer)))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseSubjectKeyIdentifier", func() {
	It("decodes the OCTET STRING content", func() {
		ski, err := ParseSubjectKeyIdentifier(byteRange(dtlv(0x04, []byte{0xAA, 0xBB})))
		Expect(err).NotTo(HaveOccurred())
		Expect(ski.Bytes()).To(Equal([]byte{0xAA, 0xBB}))
	})
})

var _ = Describe("IsKnownExtensionOID", func() {
	It("recognizes BasicConstraints", func() {
		Expect(IsKnownExtensionOID([]byte{0x55, 0x1D, 0x13})).To(BeTrue())
	})

	It("does not recognize an unrelated OID", func() {
		Expect(IsKnownExtensionOID([]byte{0x01, 0x02, 0x03})).To(BeFalse())
	})
})
