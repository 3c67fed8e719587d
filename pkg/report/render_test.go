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

package report_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/orbitpki/x509path/internal/testcert"
	"github.com/orbitpki/x509path/pkg/errset"
	. "github.com/orbitpki/x509path/pkg/report"
)

var _ = Describe("Human", func() {
	It("renders nothing for an empty PathErrors", func() {
		pe := errset.NewPathErrors()
		Expect(Human(pe, HumanOptions{})).To(BeEmpty())
	})

	It("omits the banner when ShowBanner is false", func() {
		pe := errset.NewPathErrors()
		pe.ForCert(0).Add(errset.High, errset.CertIsNotTrustAnchor, nil)
		Expect(Human(pe, HumanOptions{ShowBanner: false})).NotTo(ContainSubstring("found"))
	})

	It("prepends a banner counting every diagnostic across certs and the chain bucket when ShowBanner is true", func() {
		pe := errset.NewPathErrors()
		pe.ForCert(0).Add(errset.High, errset.CertIsNotTrustAnchor, nil)
		pe.ForCert(1).Add(errset.Warning, errset.MissingBasicConstraints, nil)
		pe.GetOtherErrors().Add(errset.High, errset.ChainIsEmpty, nil)

		out := Human(pe, HumanOptions{ShowBanner: true})
		Expect(out).To(ContainSubstring("found 3 diagnostics"))
	})

	It("groups diagnostics under certificate[N] headings in ascending index order", func() {
		pe := errset.NewPathErrors()
		pe.ForCert(2).Add(errset.High, errset.CertIsNotTrustAnchor, nil)
		pe.ForCert(0).Add(errset.Warning, errset.MissingBasicConstraints, nil)

		out := Human(pe, HumanOptions{})
		idx0 := strings.Index(out, "certificate[0]")
		idx2 := strings.Index(out, "certificate[2]")
		Expect(idx0).To(BeNumerically(">=", 0))
		Expect(idx2).To(BeNumerically(">", idx0))
	})

	It("renders chain-level errors under a \"chain\" heading", func() {
		pe := errset.NewPathErrors()
		pe.GetOtherErrors().Add(errset.High, errset.ChainIsEmpty, nil)

		out := Human(pe, HumanOptions{})
		Expect(out).To(ContainSubstring("chain"))
		Expect(out).To(ContainSubstring(errset.ChainIsEmpty.Name()))
	})

	It("includes diagnostic parameters in the rendered line", func() {
		pe := errset.NewPathErrors()
		pe.ForCert(0).Addf(errset.High, errset.NotPermittedByNameConstraints, "name", "www.example.net")

		out := Human(pe, HumanOptions{})
		Expect(out).To(ContainSubstring("name=www.example.net"))
	})
})

var _ = Describe("YAML and JSON", func() {
	cert := buildSummaryCert("Example Root CA", func(b *testcert.Builder) {
		b.HasBasicConstraints = true
		b.IsCA = true
	})

	It("renders a YAML document containing the subject", func() {
		out, err := YAML(cert)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("subject"))
		Expect(out).To(ContainSubstring("Example Root CA"))
	})

	It("renders indented JSON containing the subject", func() {
		out, err := JSON(cert)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("\"subject\""))
		Expect(out).To(ContainSubstring("Example Root CA"))
		Expect(out).To(ContainSubstring("  "))
	})
})

var _ = Describe("DiffCertificates", func() {
	It("produces a diff that mentions both subjects when they differ", func() {
		a := buildSummaryCert("Example Root CA", nil)
		b := buildSummaryCert("Other Root CA", nil)

		out, err := DiffCertificates(a, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Example Root CA"))
		Expect(out).To(ContainSubstring("Other Root CA"))
	})

	It("produces no line-level differences for two identically-configured certificates", func() {
		a := buildSummaryCert("Same Subject", nil)
		b := buildSummaryCert("Same Subject", nil)

		aYAML, err := YAML(a)
		Expect(err).NotTo(HaveOccurred())
		bYAML, err := YAML(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(aYAML).To(Equal(bYAML))
	})
})

var _ = Describe("SuggestPermittedDNSName", func() {
	It("returns an empty string when there are no permitted names", func() {
		Expect(SuggestPermittedDNSName("www.example.net", nil)).To(Equal(""))
	})

	It("picks the closest permitted name by Levenshtein distance", func() {
		suggestion := SuggestPermittedDNSName("www.example.con", []string{"example.com", "www.example.com", "unrelated.org"})
		Expect(suggestion).To(Equal("www.example.com"))
	})
})
