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

// The following are minimal, file-local DER builders for the malformed and
// boundary encodings a real certificate never carries, so the edge cases
// below can be expressed without routing through testcert.Builder (which
// only ever emits well-formed certificates).

func dtlv(tagByte byte, content []byte) []byte {
	out := []byte{tagByte}
	if len(content) < 0x80 {
		out = append(out, byte(len(content)))
	} else {
		out = append(out, 0x81, byte(len(content)))
	}
	return append(out, content...)
}

func dseq(parts ...[]byte) []byte {
	var content []byte
	for _, p := range parts {
		content = append(content, p...)
	}
	return dtlv(0x30, content)
}

func dconcat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func dint(b ...byte) []byte { return dtlv(0x02, b) }
func doid(b []byte) []byte  { return dtlv(0x06, b) }
func dnull() []byte         { return dtlv(0x05, nil) }
func dname(cn string) []byte {
	ava := dseq(doid([]byte{0x55, 0x04, 0x03}), dtlv(0x13, []byte(cn)))
	return dseq(dtlv(0x31, ava))
}
func dtime(s string) []byte { return dtlv(0x17, []byte(s)) }
func dsigalg() []byte {
	return dseq(doid([]byte{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x01, 0x0B}), dnull())
}
func dspki() []byte {
	// A syntactically valid but not cryptographically meaningful SPKI:
	// AlgorithmIdentifier + a BIT STRING wrapping an empty SEQUENCE. Good
	// enough for tests that never reach RefDelegate.
	return dseq(dsigalg(), dtlv(0x03, []byte{0x00, 0x30, 0x00}))
}

// tbsContent returns the mandatory tbsCertificate fields, concatenated
// without the enclosing SEQUENCE tag (the form ParseTBSCertificate's
// tbsValue argument expects), with an optional version prefix and optional
// extensions block spliced in by the caller.
func tbsContent(versionField, extensionsField []byte) []byte {
	fields := [][]byte{
		dint(1),
		dsigalg(),
		dname("Test CA"),
		dseq(dtime("240101000000Z"), dtime("340101000000Z")),
		dname("Test CA"),
		dspki(),
	}
	if extensionsField != nil {
		fields = append(fields, extensionsField)
	}
	if versionField != nil {
		fields = append([][]byte{versionField}, fields...)
	}
	return dconcat(fields...)
}

func certificateBytes(tbsValue []byte) []byte {
	return dseq(dtlv(0x30, tbsValue), dsigalg(), dtlv(0x03, []byte{0x00, 0x00}))
}

// tbsContentWithSerial builds a complete, otherwise-valid v3 tbsCertificate
// with the given raw serial-number content bytes, for serial-number
// validation tests that need a specific (possibly invalid) encoding rather
// than testcert.Builder's always-valid small serials.
func tbsContentWithSerial(serial []byte) []byte {
	versionField := dtlv(0xA0, dint(2))
	return dconcat(
		versionField,
		dtlv(0x02, serial),
		dsigalg(),
		dname("Test CA"),
		dseq(dtime("240101000000Z"), dtime("340101000000Z")),
		dname("Test CA"),
		dspki(),
	)
}

var _ = Describe("ParseCertificate", func() {
	It("parses the outer Certificate SEQUENCE into its three fields", func() {
		tbsValue := tbsContent(nil, nil)
		cert, err := ParseCertificate(byteRange(certificateBytes(tbsValue)))
		Expect(err).NotTo(HaveOccurred())
		Expect(cert.TBSTLV.Bytes()).To(Equal(dtlv(0x30, tbsValue)))
	})

	It("rejects trailing bytes after the outer SEQUENCE", func() {
		raw := append(certificateBytes(tbsContent(nil, nil)), 0x00)
		_, err := ParseCertificate(byteRange(raw))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseTBSCertificate", func() {
	It("defaults to V1 when no version field is present", func() {
		tbs, err := ParseTBSCertificate(byteRange(tbsContent(nil, nil)))
		Expect(err).NotTo(HaveOccurred())
		Expect(tbs.Version).To(Equal(V1))
	})

	It("parses an explicit v3 version field", func() {
		versionField := dtlv(0xA0, dint(2))
		tbs, err := ParseTBSCertificate(byteRange(tbsContent(versionField, nil)))
		Expect(err).NotTo(HaveOccurred())
		Expect(tbs.Version).To(Equal(V3))
	})

	It("rejects an explicit V1 version field as a DER default violation", func() {
		versionField := dtlv(0xA0, dint(0))
		_, err := ParseTBSCertificate(byteRange(tbsContent(versionField, nil)))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a version number outside 0..2", func() {
		versionField := dtlv(0xA0, dint(3))
		_, err := ParseTBSCertificate(byteRange(tbsContent(versionField, nil)))
		Expect(err).To(HaveOccurred())
	})

	It("rejects an extensions block as trailing bytes on a v1 certificate", func() {
		ext := dtlv(0xA3, dseq(dseq(doid([]byte{0x55, 0x1D, 0x0F}), dtlv(0x04, dtlv(0x03, []byte{0x07, 0x80})))))
		_, err := ParseTBSCertificate(byteRange(tbsContent(nil, ext)))
		Expect(err).To(HaveOccurred())
	})

	It("parses the extensions block on a v3 certificate", func() {
		keyUsageExt := dseq(doid([]byte{0x55, 0x1D, 0x0F}), dtlv(0x04, dtlv(0x03, []byte{0x07, 0x80})))
		extensionsField := dtlv(0xA3, dseq(keyUsageExt))
		versionField := dtlv(0xA0, dint(2))
		tbs, err := ParseTBSCertificate(byteRange(tbsContent(versionField, extensionsField)))
		Expect(err).NotTo(HaveOccurred())
		Expect(tbs.Extensions).To(HaveLen(1))
	})

	It("rejects a duplicate extension OID", func() {
		ku := dseq(doid([]byte{0x55, 0x1D, 0x0F}), dtlv(0x04, dtlv(0x03, []byte{0x07, 0x80})))
		extensionsField := dtlv(0xA3, dseq(ku, ku))
		versionField := dtlv(0xA0, dint(2))
		_, err := ParseTBSCertificate(byteRange(tbsContent(versionField, extensionsField)))
		Expect(err).To(HaveOccurred())
	})

	It("rejects an extension whose critical flag is the DER-default FALSE encoded explicitly", func() {
		ku := dseq(doid([]byte{0x55, 0x1D, 0x0F}), dtlv(0x01, []byte{0x00}), dtlv(0x04, dtlv(0x03, []byte{0x07, 0x80})))
		extensionsField := dtlv(0xA3, dseq(ku))
		versionField := dtlv(0xA0, dint(2))
		_, err := ParseTBSCertificate(byteRange(tbsContent(versionField, extensionsField)))
		Expect(err).To(HaveOccurred())
	})
})
