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

package chainverify_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/orbitpki/x509path/internal/testcert"
	"github.com/orbitpki/x509path/pkg/ber"
	. "github.com/orbitpki/x509path/pkg/chainverify"
	"github.com/orbitpki/x509path/pkg/certparse"
	"github.com/orbitpki/x509path/pkg/errset"
	"github.com/orbitpki/x509path/pkg/refdelegate"
)

var _ = Describe("VerifyCertificateChain", func() {
	delegate := refdelegate.New()
	now := ber.FromStdTime(verifyTime)

	It("rejects an empty chain", func() {
		policySet, errs := VerifyCertificateChain(nil, TrustDecision{}, delegate, now, AnyEku, false, nil, false, false)
		Expect(policySet).To(BeNil())
		Expect(errs.GetOtherErrors().ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
	})

	Context("single-certificate (degenerate) chains", func() {
		It("accepts a self-signed certificate trusted as a leaf", func() {
			b := &testcert.Builder{
				Version: 2, SerialNumber: 1,
				Issuer: "Solo", Subject: "Solo",
				NotBefore: validFrom, NotAfter: validTo,
			}
			cert := buildParsedCert(b)

			_, errs := VerifyCertificateChain([]*certparse.ParsedCertificate{cert},
				TrustDecision{Kind: TrustedLeaf}, delegate, now, AnyEku, false, nil, false, false)
			Expect(errs.ContainsAnyErrorWithSeverity(errset.High)).To(BeFalse())
		})

		It("rejects a certificate explicitly distrusted by the trust store", func() {
			b := &testcert.Builder{
				Version: 2, SerialNumber: 1,
				Issuer: "Solo", Subject: "Solo",
				NotBefore: validFrom, NotAfter: validTo,
			}
			cert := buildParsedCert(b)

			policySet, errs := VerifyCertificateChain([]*certparse.ParsedCertificate{cert},
				TrustDecision{Kind: Distrusted}, delegate, now, AnyEku, false, nil, false, false)
			Expect(policySet).To(BeNil())
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})

		It("rejects a lone certificate trusted as an anchor rather than a leaf", func() {
			b := &testcert.Builder{
				Version: 2, SerialNumber: 1,
				Issuer: "Solo", Subject: "Solo",
				NotBefore: validFrom, NotAfter: validTo,
			}
			cert := buildParsedCert(b)

			policySet, errs := VerifyCertificateChain([]*certparse.ParsedCertificate{cert},
				TrustDecision{Kind: TrustedAnchor}, delegate, now, AnyEku, false, nil, false, false)
			Expect(policySet).To(BeNil())
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})
	})

	Context("a two-certificate chain (leaf issued by a trusted root)", func() {
		It("verifies cleanly with no constraints enabled", func() {
			chain := rootAndLeaf(nil, nil)

			policySet, errs := VerifyCertificateChain(chain,
				TrustDecision{Kind: TrustedAnchor}, delegate, now, AnyEku, false, nil, false, false)
			Expect(errs.ContainsAnyErrorWithSeverity(errset.High)).To(BeFalse())
			Expect(policySet).NotTo(BeNil())
		})

		It("rejects a leaf whose signature does not verify against the root's key", func() {
			chain := rootAndLeaf(func(leaf *testcert.Builder) {
				leaf.CorruptSignature = true
			}, nil)

			_, errs := VerifyCertificateChain(chain,
				TrustDecision{Kind: TrustedAnchor}, delegate, now, AnyEku, false, nil, false, false)
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})

		It("flags (but does not fail under AnyEku) a leaf asserting CA BasicConstraints", func() {
			chain := rootAndLeaf(func(leaf *testcert.Builder) {
				leaf.HasBasicConstraints = true
				leaf.IsCA = true
			}, nil)

			_, errs := VerifyCertificateChain(chain,
				TrustDecision{Kind: TrustedAnchor}, delegate, now, AnyEku, false, nil, false, false)
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.Warning)).To(BeTrue())
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.High)).To(BeFalse())
		})

		It("fails a leaf asserting CA BasicConstraints under a strict key purpose", func() {
			chain := rootAndLeaf(func(leaf *testcert.Builder) {
				leaf.HasBasicConstraints = true
				leaf.IsCA = true
				leaf.ExtKeyUsageOIDs = [][]byte{certparse.OidServerAuth}
			}, nil)

			_, errs := VerifyCertificateChain(chain,
				TrustDecision{Kind: TrustedAnchor}, delegate, now, ServerAuthStrictLeaf, false, nil, false, false)
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})

		It("requires the target to carry the required EKU under a strict key purpose", func() {
			chain := rootAndLeaf(nil, nil) // leaf has no EKU extension at all

			_, errs := VerifyCertificateChain(chain,
				TrustDecision{Kind: TrustedAnchor}, delegate, now, ServerAuthStrictLeaf, false, nil, false, false)
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})

		It("rejects a leaf DNS name excluded by the root's trust-anchor name constraints", func() {
			chain := rootAndLeaf(func(leaf *testcert.Builder) {
				leaf.DNSNames = []string{"www.example.net"}
			}, func(root *testcert.Builder) {
				root.ExcludedDNS = []string{"example.net"}
			})

			_, errs := VerifyCertificateChain(chain,
				TrustDecision{Kind: TrustedAnchor, EnforceAnchorConstraints: true}, delegate, now, AnyEku, false, nil, false, false)
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})

		It("accepts a leaf DNS name permitted by the root's trust-anchor name constraints", func() {
			chain := rootAndLeaf(func(leaf *testcert.Builder) {
				leaf.DNSNames = []string{"www.example.com"}
			}, func(root *testcert.Builder) {
				root.PermittedDNS = []string{"example.com"}
			})

			_, errs := VerifyCertificateChain(chain,
				TrustDecision{Kind: TrustedAnchor, EnforceAnchorConstraints: true}, delegate, now, AnyEku, false, nil, false, false)
			Expect(errs.ForCert(0).ContainsAnyErrorWithSeverity(errset.High)).To(BeFalse())
		})

		It("rejects a chain whose root lacks the keyCertSign bit under trust-anchor constraint enforcement", func() {
			chain := rootAndLeaf(nil, func(root *testcert.Builder) {
				root.KeyUsage = certparse.KeyUsageDigitalSignature
			})

			_, errs := VerifyCertificateChain(chain,
				TrustDecision{Kind: TrustedAnchor, EnforceAnchorConstraints: true}, delegate, now, AnyEku, false, nil, false, false)
			Expect(errs.ForCert(1).ContainsAnyErrorWithSeverity(errset.High)).To(BeTrue())
		})
	})
})
