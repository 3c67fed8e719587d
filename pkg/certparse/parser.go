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

// Package certparse parses the X.509 v3 constructs a path verifier
// consults: Certificate, TBSCertificate, and every extension the verifier
// reads, down to the OCTET STRING contents of each.
package certparse

import (
	"fmt"

	"github.com/orbitpki/x509path/pkg/ber"
)

// Version identifies the X.509 certificate version.
type Version int

// The three certificate versions DER can express.
const (
	V1 Version = iota
	V2
	V3
)

// Certificate is the outermost Certificate ::= SEQUENCE { tbsCertificate,
// signatureAlgorithm, signatureValue }.
type Certificate struct {
	TBSTLV               ber.ByteRange
	SignatureAlgorithmTLV ber.ByteRange
	SignatureValue       ber.BitString
}

// ParseCertificate decodes the outermost Certificate SEQUENCE, requiring
// no trailing bytes after it and exactly the three expected fields inside.
func ParseCertificate(raw ber.ByteRange) (*Certificate, error) {
	r := ber.NewReader(raw)
	outer, err := r.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return nil, fmt.Errorf("certparse: Certificate: %w", err)
	}
	if !r.Done() {
		return nil, fmt.Errorf("certparse: Certificate: unconsumed trailing bytes after outer SEQUENCE")
	}

	inner := ber.NewReader(outer.Value)
	tbs, err := inner.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return nil, fmt.Errorf("certparse: tbsCertificate: %w", err)
	}
	sigAlg, err := inner.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return nil, fmt.Errorf("certparse: signatureAlgorithm: %w", err)
	}
	sig, err := inner.ReadBitString()
	if err != nil {
		return nil, fmt.Errorf("certparse: signatureValue: %w", err)
	}
	if !inner.Done() {
		return nil, fmt.Errorf("certparse: Certificate: unexpected trailing field")
	}

	return &Certificate{
		TBSTLV:                tbs.Raw(),
		SignatureAlgorithmTLV: sigAlg.Raw(),
		SignatureValue:        sig,
	}, nil
}

// Extension is one Extension ::= SEQUENCE { extnID, critical DEFAULT FALSE,
// extnValue OCTET STRING }.
type Extension struct {
	OID      ber.ByteRange
	Critical bool
	Value    ber.ByteRange
}

// ParsedTBSCertificate is the fully-decoded (but not extension-interpreted)
// TBSCertificate.
type ParsedTBSCertificate struct {
	Version Version
	Serial  ber.ByteRange

	// InnerSignatureAlgorithmTLV is retained for the outer/inner
	// signature-algorithm cross-check the path verifier performs.
	InnerSignatureAlgorithmTLV ber.ByteRange

	IssuerTLV  ber.ByteRange
	SubjectTLV ber.ByteRange
	// IssuerRDNSequence/SubjectRDNSequence are the inner content of the
	// Name CHOICE (rdnSequence), with the outer SEQUENCE tag stripped.
	IssuerRDNSequence  ber.ByteRange
	SubjectRDNSequence ber.ByteRange

	NotBefore ber.Time
	NotAfter  ber.Time

	SPKITLV ber.ByteRange

	IssuerUniqueID  *ber.BitString
	SubjectUniqueID *ber.BitString

	Extensions []Extension
}

// ParseTBSCertificate decodes a tbsCertificate TLV's value per §4.C.
func ParseTBSCertificate(tbsValue ber.ByteRange) (*ParsedTBSCertificate, error) {
	r := ber.NewReader(tbsValue)
	tbs := &ParsedTBSCertificate{Version: V1}

	if inner, ok, err := r.ReadOptionalExplicit(0); err != nil {
		return nil, fmt.Errorf("certparse: version: %w", err)
	} else if ok {
		v, err := inner.ReadUnsignedIntBounded(2)
		if err != nil {
			return nil, fmt.Errorf("certparse: version: %w", err)
		}
		if !inner.Done() {
			return nil, fmt.Errorf("certparse: version: unconsumed trailing bytes")
		}
		if v == 0 {
			return nil, fmt.Errorf("certparse: version: explicit V1 encoding is a DER default violation")
		}
		tbs.Version = Version(v)
	}

	serial, err := r.ReadIntegerBytesLenient()
	if err != nil {
		return nil, fmt.Errorf("certparse: serialNumber: %w", err)
	}
	tbs.Serial = serial

	sigAlg, err := r.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return nil, fmt.Errorf("certparse: inner signature algorithm: %w", err)
	}
	tbs.InnerSignatureAlgorithmTLV = sigAlg.Raw()

	issuer, err := r.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return nil, fmt.Errorf("certparse: issuer: %w", err)
	}
	tbs.IssuerTLV = issuer.Raw()
	tbs.IssuerRDNSequence = issuer.Value

	validity, err := r.ReadSequence()
	if err != nil {
		return nil, fmt.Errorf("certparse: validity: %w", err)
	}
	notBefore, err := validity.ReadTime()
	if err != nil {
		return nil, fmt.Errorf("certparse: validity.notBefore: %w", err)
	}
	notAfter, err := validity.ReadTime()
	if err != nil {
		return nil, fmt.Errorf("certparse: validity.notAfter: %w", err)
	}
	if !validity.Done() {
		return nil, fmt.Errorf("certparse: validity: unconsumed trailing bytes")
	}
	tbs.NotBefore, tbs.NotAfter = notBefore, notAfter

	subject, err := r.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return nil, fmt.Errorf("certparse: subject: %w", err)
	}
	tbs.SubjectTLV = subject.Raw()
	tbs.SubjectRDNSequence = subject.Value

	spki, err := r.ReadTLVExpect(ber.Universal(ber.TagSequence, true))
	if err != nil {
		return nil, fmt.Errorf("certparse: subjectPublicKeyInfo: %w", err)
	}
	tbs.SPKITLV = spki.Raw()

	if tbs.Version == V2 || tbs.Version == V3 {
		if value, ok, err := r.ReadOptionalImplicit(1, false); err != nil {
			return nil, fmt.Errorf("certparse: issuerUniqueID: %w", err)
		} else if ok {
			bs, err := ber.ParseBitStringContent(value.Bytes())
			if err != nil {
				return nil, fmt.Errorf("certparse: issuerUniqueID: %w", err)
			}
			tbs.IssuerUniqueID = &bs
		}
		if value, ok, err := r.ReadOptionalImplicit(2, false); err != nil {
			return nil, fmt.Errorf("certparse: subjectUniqueID: %w", err)
		} else if ok {
			bs, err := ber.ParseBitStringContent(value.Bytes())
			if err != nil {
				return nil, fmt.Errorf("certparse: subjectUniqueID: %w", err)
			}
			tbs.SubjectUniqueID = &bs
		}
	}

	if tbs.Version == V3 {
		if inner, ok, err := r.ReadOptionalExplicit(3); err != nil {
			return nil, fmt.Errorf("certparse: extensions: %w", err)
		} else if ok {
			exts, err := parseExtensionsSequence(inner)
			if err != nil {
				return nil, fmt.Errorf("certparse: extensions: %w", err)
			}
			tbs.Extensions = exts
		}
	}

	if !r.Done() {
		return nil, fmt.Errorf("certparse: tbsCertificate: unconsumed trailing bytes")
	}

	return tbs, nil
}

func parseExtensionsSequence(r *ber.Reader) ([]Extension, error) {
	seq, err := r.ReadSequence()
	if err != nil {
		return nil, err
	}
	var exts []Extension
	seen := make(map[string]bool)
	for !seq.Done() {
		extSeq, err := seq.ReadSequence()
		if err != nil {
			return nil, fmt.Errorf("Extension: %w", err)
		}
		oid, err := extSeq.ReadObjectIdentifier()
		if err != nil {
			return nil, fmt.Errorf("Extension.extnID: %w", err)
		}
		critical := false
		if tag, ok := extSeq.PeekTag(); ok && tag.Equal(ber.Universal(ber.TagBoolean, false)) {
			critical, err = extSeq.ReadBoolean()
			if err != nil {
				return nil, fmt.Errorf("Extension.critical: %w", err)
			}
			if !critical {
				return nil, fmt.Errorf("Extension.critical: DER default value FALSE must be omitted")
			}
		}
		value, err := extSeq.ReadOctetString()
		if err != nil {
			return nil, fmt.Errorf("Extension.extnValue: %w", err)
		}
		if !extSeq.Done() {
			return nil, fmt.Errorf("Extension: unconsumed trailing bytes")
		}

		key := string(oid.Bytes())
		if seen[key] {
			return nil, fmt.Errorf("duplicate extension OID")
		}
		seen[key] = true

		exts = append(exts, Extension{OID: oid, Critical: critical, Value: value})
	}
	if !r.Done() {
		return nil, fmt.Errorf("extensions: unconsumed trailing bytes")
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("extensions SEQUENCE is present but empty")
	}
	return exts, nil
}
